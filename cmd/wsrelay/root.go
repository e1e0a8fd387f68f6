package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/wsrelay/pkg/config"
)

var (
	// Global flags
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "wsrelay",
	Short: "wsrelay - authenticated WebSocket relay",
	Long: `wsrelay terminates TLS for WebSocket clients, authenticates them with a
pre-shared token and relays their frames to a target WebSocket server.

Configuration is read from a YAML or TOML file. Environment variables
prefixed with WSRELAY_ override file values, and the user list can be
reloaded without interrupting live sessions.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		return config.LoadEnvFile(envFile)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file loaded before the configuration")
}

// loadConfig loads cfgFile with environment overrides applied.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
