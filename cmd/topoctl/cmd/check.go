package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/cmd/topoctl/runner"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a blueprint against the controller",
	Long: `Validate the blueprint, check that the controller answers, and resolve
every tenant and host the blueprint names. Nothing is created.

Prints the realization steps and the number of resources an apply would
create.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVarP(&blueprintPath, "file", "f", "",
		"Path to the topology blueprint (YAML)")
	checkCmd.Flags().StringVarP(&configPath, "config", "c", "",
		"Path to the configuration file (default ./topoctl.json if present)")
	checkCmd.MarkFlagRequired("file")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := runner.LoadConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := initLogger(devMode, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	client, err := runner.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Health(cmd.Context()); err != nil {
		logger.Error("Controller is not healthy", zap.String("api_url", cfg.APIURL), zap.Error(err))
		return err
	}

	r, err := runner.New(client, logger)
	if err != nil {
		return err
	}

	report, err := r.Check(cmd.Context(), blueprintPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Controller: %s\n", cfg.APIURL)
	for name, id := range report.TenantIDs {
		fmt.Fprintf(out, "Tenant %s: %s\n", name, id)
	}
	for _, id := range report.DeadHosts {
		fmt.Fprintf(out, "Warning: host %s agent is not alive\n", id)
	}
	for i, step := range report.Steps {
		fmt.Fprintf(out, "%3d. %s\n", i+1, step)
	}
	fmt.Fprintf(out, "Resources to create: %d\n", report.Resources)
	return nil
}
