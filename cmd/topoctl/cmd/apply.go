package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/cmd/topoctl/runner"
)

var (
	configPath    string
	blueprintPath string
	hold          bool
	metricsFile   string
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Build a topology from a blueprint",
	Long: `Resolve the tenants and hosts named by the blueprint, then create every
resource it describes.

If any creation fails, every resource created so far is deleted in reverse
order and the command exits with status 1. Tenants or hosts that cannot be
resolved abort the run before anything is created.

Configuration is read from a JSON file, then from .env in the working
directory, then from TOPOCTL_* environment variables:
  TOPOCTL_API_URL, TOPOCTL_USERNAME, TOPOCTL_PASSWORD, TOPOCTL_LOG_LEVEL,
  TOPOCTL_RETRY_ATTEMPTS, TOPOCTL_TIMEOUT_SECONDS, TOPOCTL_REQUESTS_PER_SECOND

With --hold a successful topology is kept until SIGINT or SIGTERM and then
torn down.`,
	RunE: runApply,
}

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVarP(&blueprintPath, "file", "f", "",
		"Path to the topology blueprint (YAML)")
	applyCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to the configuration file (default ./topoctl.json if present)")
	applyCmd.Flags().BoolVar(&hold, "hold", false,
		"Keep the topology until interrupted, then roll it back")
	applyCmd.Flags().StringVar(&metricsFile, "metrics-file", "",
		"Write metrics in Prometheus text format to this file")
	applyCmd.MarkFlagRequired("file")
}

func runApply(cmd *cobra.Command, args []string) error {
	cfg, err := runner.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := initLogger(devMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("topoctl starting",
		zap.String("version", Version),
		zap.String("commit", Commit),
		zap.String("api_url", cfg.APIURL))

	client, err := runner.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	r, err := runner.New(client, logger)
	if err != nil {
		return err
	}

	res, err := r.Run(cmd.Context(), runner.Options{
		BlueprintPath: blueprintPath,
		Hold:          hold,
		MetricsFile:   metricsFile,
	})
	if err != nil {
		logger.Error("Apply failed", zap.Error(err))
		return err
	}

	logger.Info("Apply finished",
		zap.Int("created", res.Created),
		zap.Bool("rolled_back", res.RolledBack))
	return nil
}
