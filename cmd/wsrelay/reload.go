package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/wsrelay/pkg/cli"
)

var reloadFlags struct {
	pidFile string
}

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the configuration of a running server",
	Long: `Send SIGHUP to the server recorded in the PID file.

The running server re-reads its configuration file and swaps it in without
interrupting live sessions. If the new file is invalid the server keeps the
previous configuration and logs the error.

The PID file is taken from --pid-file, or from server.pid_file in the
configuration. A missing PID file or a process that cannot be signalled is
reported as an error.

Examples:
  # Reload using the PID file named in the config
  wsrelay reload --config /etc/wsrelay/config.yaml

  # Reload a specific process
  wsrelay reload --pid-file /run/wsrelay.pid`,
	RunE: reloadServer,
}

func init() {
	rootCmd.AddCommand(reloadCmd)

	reloadCmd.Flags().StringVar(&reloadFlags.pidFile, "pid-file", "", "PID file of the running server (overrides config)")
}

func reloadServer(cmd *cobra.Command, args []string) error {
	pidFile, err := resolvePIDFile(reloadFlags.pidFile)
	if err != nil {
		return err
	}

	if err := cli.SignalReload(pidFile); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Reload signal sent (pid file %s)\n", pidFile)
	return nil
}

// resolvePIDFile returns the flag value, or the PID file named in the
// configuration when the flag is empty.
func resolvePIDFile(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", cli.NewConfigError(cfgFile, fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg.Server.PIDFile, nil
}
