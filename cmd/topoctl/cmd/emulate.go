package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/emulator"
	"github.com/yaroslav/topoctl/internal/metrics"
	"github.com/yaroslav/topoctl/models"
)

var (
	listenAddr  string
	emuPrefix   string
	emuDSN      string
	emuTenants  []string
	emuHosts    []string
	emuFaults   []string
	emuUsername string
	emuPassword string
	emuHash     string
	emuLogLevel string
	emuRPS      float64
	emuBurst    int
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Serve an emulated controller API",
	Long: `Serve an in-process emulation of the controller REST API.

Resources are kept in SQLite (in memory unless --dsn is given) with the
controller's parent and reference constraints: deleting a resource that still
has children or is referenced fails with 409.

Tenants and hosts are seeded from flags. --fail injects failures, for example
--fail bgp:2 fails the second BGP session creation with 500 and
--fail rule:3:409 fails the third rule with 409.`,
	RunE: runEmulate,
}

func init() {
	rootCmd.AddCommand(emulateCmd)

	emulateCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	emulateCmd.Flags().StringVar(&emuPrefix, "prefix", emulator.DefaultPrefix, "URL prefix of the API")
	emulateCmd.Flags().StringVar(&emuDSN, "dsn", "", "SQLite data source (default in-memory)")
	emulateCmd.Flags().StringArrayVar(&emuTenants, "tenant", nil, "Tenant name to seed (repeatable)")
	emulateCmd.Flags().StringArrayVar(&emuHosts, "host", nil, "Host identifier to seed (repeatable)")
	emulateCmd.Flags().StringArrayVar(&emuFaults, "fail", nil, "Inject a failure as kind:nth[:status] (repeatable)")
	emulateCmd.Flags().StringVar(&emuUsername, "username", "", "Require HTTP basic authentication with this user")
	emulateCmd.Flags().StringVar(&emuPassword, "password", "", "Password for --username")
	emulateCmd.Flags().StringVar(&emuHash, "password-hash", "", "bcrypt hash of the password for --username")
	emulateCmd.Flags().StringVar(&emuLogLevel, "log-level", "info", "Log level")
	emulateCmd.Flags().Float64Var(&emuRPS, "rps", 0, "Throttle each client to this many requests per second (0 = unlimited)")
	emulateCmd.Flags().IntVar(&emuBurst, "burst", 1, "Requests a throttled client may make at once")
}

func runEmulate(cmd *cobra.Command, args []string) error {
	logger, err := initLogger(devMode, emuLogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	if err := metrics.Init(); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	cfg := emulator.Config{
		Prefix:            emuPrefix,
		DSN:               emuDSN,
		Username:          emuUsername,
		Password:          emuPassword,
		PasswordHash:      emuHash,
		RequestsPerSecond: emuRPS,
		Burst:             emuBurst,
		Logger:            logger,
	}
	for _, name := range emuTenants {
		cfg.Tenants = append(cfg.Tenants, models.Tenant{Name: name})
	}
	for _, id := range emuHosts {
		cfg.Hosts = append(cfg.Hosts, models.Host{ID: id, Name: id, Alive: true})
	}
	for _, spec := range emuFaults {
		f, err := emulator.ParseFailOn(spec)
		if err != nil {
			return err
		}
		cfg.Faults = append(cfg.Faults, f)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := emulator.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Emulator listening", zap.String("address", listenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("emulator server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down emulator")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Emulator shutdown incomplete", zap.Error(err))
	}

	if n, err := srv.Store().Count(shutdownCtx); err == nil {
		logger.Info("Emulator stopped", zap.Int("resources_left", n))
	}
	return nil
}
