/*
Package cli provides command-line helpers shared by the wsrelay commands.

Output Formatting:

Command results are printed as text, JSON or CSV:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Tabular results implement Table so the text and CSV formatters can lay
them out by column.

Process Control:

The run command records its PID so that the reload command can find it:

	remove, err := cli.WritePIDFile(cfg.Server.PIDFile)
	if err != nil {
		return err
	}
	defer remove()

	// elsewhere
	if err := cli.SignalReload(cfg.Server.PIDFile); err != nil {
		return err // a *cli.ReloadError
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
