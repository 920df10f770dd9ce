/*
Package cli provides command-line interface utilities for Floodgate.

The cli package includes output formatters, typed command errors, and signal
handling helpers used by the floodgate command.

Output Formatting:

Commands support multiple output formats (text, JSON) for displaying results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx := cli.SetupSignalHandler()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
