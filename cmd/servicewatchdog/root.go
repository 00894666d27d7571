package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "servicewatchdog",
	Short: "Keep a single OS service running",
	Long: `servicewatchdog polls the platform service manager for one target
service and starts it again whenever it is found stopped.

Restarts are rate limited: once the configured number of successful
restarts happened inside the restart window, the watchdog waits out a
cooldown instead. A maintenance marker file suppresses all restarts while
it exists.

Running without a subcommand is the same as "servicewatchdog run".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatchdog,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml",
		"Path to configuration file (YAML, or TOML when it ends in .toml)")
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
