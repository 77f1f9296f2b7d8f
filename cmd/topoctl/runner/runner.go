// Package runner loads a blueprint, realizes it against the controller and
// rolls it back on failure.
package runner

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/pkg/blueprint"
	"github.com/yaroslav/topoctl/pkg/topology"
	"github.com/yaroslav/topoctl/pkg/txn"
	"github.com/yaroslav/topoctl/sdk"
)

// Apply results recorded in metrics.ApplyResults.
const (
	ResultSuccess        = "success"
	ResultRolledBack     = "rolled_back"
	ResultRollbackFailed = "rollback_failed"
	ResultUnresolved     = "unresolved"
)

// Controller is what the runner needs from the controller client.
type Controller interface {
	topology.API
	topology.Directory
}

// Options control one run.
type Options struct {
	// BlueprintPath is the YAML topology to apply.
	BlueprintPath string

	// Hold keeps a successful topology until the context is cancelled or
	// SIGINT/SIGTERM arrives, then rolls it back.
	Hold bool

	// MetricsFile receives the run's metrics in text format when set.
	MetricsFile string
}

// Result summarizes a run.
type Result struct {
	// Created is the number of resources the run created.
	Created int

	// RolledBack is true when the created resources were deleted again.
	RolledBack bool
}

// Runner drives one blueprint through resolution, apply and rollback.
type Runner struct {
	ctrl   Controller
	logger *zap.Logger

	// wait blocks a held topology; replaced in tests.
	wait func(ctx context.Context)
}

// NewClient builds the controller client described by cfg.
func NewClient(cfg *Config, logger *zap.Logger) (*sdk.Client, error) {
	return sdk.NewClient(sdk.ClientConfig{
		BaseURL:           cfg.APIURL,
		Username:          cfg.Username,
		Password:          cfg.Password,
		RetryAttempts:     cfg.RetryAttempts,
		Timeout:           cfg.Timeout(),
		RequestsPerSecond: cfg.RequestsPerSecond,
		Logger:            logger,
	})
}

// New creates a runner using ctrl. It initializes the metrics registry.
func New(ctrl Controller, logger *zap.Logger) (*Runner, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := metrics.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	r := &Runner{ctrl: ctrl, logger: logger}
	r.wait = r.waitForSignal
	return r, nil
}

// Run applies the blueprint at opts.BlueprintPath. When realization fails
// every created resource is deleted in reverse order and the apply error is
// returned together with any rollback failures.
func (r *Runner) Run(ctx context.Context, opts Options) (res *Result, err error) {
	if opts.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(opts.MetricsFile); werr != nil {
				r.logger.Warn("Failed to write metrics file", zap.Error(werr))
			}
		}()
	}

	bp, err := blueprint.Load(opts.BlueprintPath)
	if err != nil {
		return nil, err
	}

	ctx = logging.WithComponent(logging.WithLogger(ctx, r.logger), "apply")

	tenantIDs, err := topology.ResolveTenants(ctx, r.ctrl, bp.Tenants())
	if err != nil {
		metrics.ApplyResults.WithLabelValues(ResultUnresolved).Inc()
		return nil, err
	}
	if _, err := topology.ResolveHosts(ctx, r.ctrl, bp.HostIDs()); err != nil {
		metrics.ApplyResults.WithLabelValues(ResultUnresolved).Inc()
		return nil, err
	}

	plan, err := bp.Build(tenantIDs)
	if err != nil {
		return nil, err
	}

	r.logger.Info("Applying blueprint",
		zap.String("blueprint", opts.BlueprintPath),
		zap.Int("steps", len(plan.Steps())),
		zap.Int("resources", plan.Count()))

	tx := txn.New(r.logger)
	api := &instrumentedAPI{api: r.ctrl}

	start := time.Now()
	applyErr := plan.Apply(ctx, api, tx)
	metrics.ApplyDuration.Observe(time.Since(start).Seconds())

	res = &Result{Created: tx.Len()}

	if applyErr != nil {
		r.logger.Error("Failed to build topology",
			zap.Error(applyErr),
			zap.Int("created", res.Created),
			zap.Stack("stack"))

		rbErr := r.rollback(ctx, tx)
		res.RolledBack = true
		if rbErr != nil {
			metrics.ApplyResults.WithLabelValues(ResultRollbackFailed).Inc()
		} else {
			metrics.ApplyResults.WithLabelValues(ResultRolledBack).Inc()
		}
		return res, fmt.Errorf("topology rolled back: %w", multierr.Append(applyErr, rbErr))
	}

	metrics.ApplyResults.WithLabelValues(ResultSuccess).Inc()
	r.logger.Info("Topology built",
		zap.Int("created", res.Created),
		zap.Int64(logging.FieldDuration, time.Since(start).Milliseconds()))

	if !opts.Hold {
		return res, nil
	}

	r.logger.Info("Holding topology until interrupted")
	r.wait(ctx)

	res.RolledBack = true
	if err := r.rollback(ctx, tx); err != nil {
		return res, fmt.Errorf("teardown: %w", err)
	}
	return res, nil
}

// rollback runs the ledger on a context that survives cancellation of ctx,
// so an interrupted run still cleans up.
func (r *Runner) rollback(ctx context.Context, tx *txn.Transaction) error {
	err := tx.Rollback(context.WithoutCancel(ctx))
	if err != nil {
		r.logger.Error("Rollback incomplete",
			zap.Int("failed", len(multierr.Errors(err))),
			zap.Error(err))
	}
	return err
}

func (r *Runner) waitForSignal(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		r.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}
}
