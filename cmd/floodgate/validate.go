package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"floodgate-hq/floodgate/pkg/cli"
	"floodgate-hq/floodgate/pkg/config"
)

var validateFlags struct {
	format string
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a Floodgate configuration file without starting the server.

The command loads the file, applies defaults and environment overrides, and
runs the full validation pass. Every invalid field is reported, not just the
first one.

Examples:
  # Validate the default config
  floodgate validate

  # Validate a specific file
  floodgate validate --config /etc/floodgate/config.yaml

  # Machine-readable output
  floodgate validate --format json`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateFlags.format, "format", "text", "output format (text, json)")
}

// validationResult is the machine-readable output of the validate command.
type validationResult struct {
	Path   string   `json:"path"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	formatter := cli.NewFormatter(cli.OutputFormat(validateFlags.format))

	result := validationResult{Path: cfgFile, Valid: true}

	_, loadErr := config.LoadConfigWithEnvOverrides(cfgFile)
	if loadErr != nil {
		result.Valid = false

		var verr config.ValidationError
		if errors.As(loadErr, &verr) {
			for _, fe := range verr.Errors {
				result.Errors = append(result.Errors, fe.Error())
			}
		} else {
			result.Errors = append(result.Errors, loadErr.Error())
		}
	}

	if validateFlags.format == "json" {
		if err := formatter.FormatTo(os.Stdout, result); err != nil {
			return cli.NewCommandError("validate", err)
		}
	} else {
		if result.Valid {
			fmt.Printf("✓ %s is valid\n", cfgFile)
		} else {
			fmt.Printf("✗ %s is invalid:\n", cfgFile)
			for _, msg := range result.Errors {
				fmt.Printf("  - %s\n", msg)
			}
		}
	}

	if !result.Valid {
		return cli.NewConfigError(cfgFile, "configuration is invalid")
	}
	return nil
}
