/*
Package cli provides command-line helpers shared by the dietapi commands.

Errors:

Commands return *ConfigError for configuration problems and *CommandError
for runtime failures. ExitCode maps them to the process exit status:

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitCode(err))
	}

Output Formatting:

Results that implement Table can be written as aligned text, JSON or CSV:

	format, err := cli.ParseOutputFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(os.Stdout, report)

Progress Reporting:

	progress := cli.NewProgressReporter(nil)
	progress.Start(int64(total))
	// workers call progress.Update(n)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()
*/
package cli
