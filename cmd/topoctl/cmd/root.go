package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yaroslav/topoctl/internal/logging"
)

var (
	// Version information (set at build time via ldflags)
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var devMode bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "topoctl",
	Short: "topoctl - transactional virtual network topology builder",
	Long: `topoctl realizes virtual network topologies on an SDN controller.

A topology is described in a YAML blueprint: tunnel zones, tenant bridges,
routers, NAT rules and BGP uplinks. topoctl creates every resource in
dependency order and, if any creation fails, deletes everything it created
in reverse order so the controller is left as it was.

It also ships an in-process controller emulator for offline runs.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false,
		"Enable development mode (console logging instead of JSON)")
}

// versionString returns formatted version information
func versionString() string {
	return fmt.Sprintf("topoctl %s (commit: %s, built: %s)",
		Version, Commit, BuildDate)
}

func initLogger(devMode bool, level string) (*zap.Logger, error) {
	if devMode {
		cfg := logging.DefaultConfig()
		cfg.Level = level
		return logging.NewLogger(cfg)
	}
	return logging.NewProductionLogger(level)
}
