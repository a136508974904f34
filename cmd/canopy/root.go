package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "canopy runs scene-graph simulations",
	Long: `canopy drives the demo scene of the canopy runtime: headless with
optional tick scripts and a Prometheus endpoint, as a tree listing, or in a
window.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML config file (CANOPY_* environment variables override it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file named by --config and applies flag
// overrides.
func loadConfig(cmd *cobra.Command) (canopy.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := canopy.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newLogger returns the logger for cfg writing to w.
func newLogger(cfg canopy.Config, w io.Writer) (*slog.Logger, error) {
	level, err := canopy.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return canopy.NewLogger(level, w), nil
}
