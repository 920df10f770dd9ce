package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"floodgate-hq/floodgate/pkg/cli"
	"floodgate-hq/floodgate/pkg/config"
	"floodgate-hq/floodgate/pkg/ratelimit"
	"floodgate-hq/floodgate/pkg/store"
)

var checkFlags struct {
	scope      string
	identifier string
	count      int
	format     string
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a quota against the configured store",
	Long: `Evaluate a rate limit check directly against the configured counter
store, without going through the HTTP server. Each invocation consumes quota
like a real request, which makes the command useful for probing shared Redis
or SQLite state.

Examples:
  # Single check
  floodgate check --scope api_key --identifier key-123

  # Consume five units at once
  floodgate check --scope ip --identifier 10.0.0.1 --count 5

  # Machine-readable output
  floodgate check --scope api_key --identifier key-123 --format json`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkFlags.scope, "scope", "", "rule scope to evaluate")
	checkCmd.Flags().StringVar(&checkFlags.identifier, "identifier", "", "identifier within the scope")
	checkCmd.Flags().IntVar(&checkFlags.count, "count", 1, "number of checks to perform")
	checkCmd.Flags().StringVar(&checkFlags.format, "format", "text", "output format (text, json)")

	_ = checkCmd.MarkFlagRequired("scope")
	_ = checkCmd.MarkFlagRequired("identifier")
}

// checkResult is the machine-readable output of one check.
type checkResult struct {
	Allowed           bool   `json:"allowed"`
	Scope             string `json:"scope"`
	Identifier        string `json:"identifier"`
	Limit             int64  `json:"limit,omitempty"`
	Remaining         int64  `json:"remaining"`
	RetryAfterSeconds int64  `json:"retry_after_seconds,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	backend, err := store.New(cfg.Store)
	if err != nil {
		return cli.NewCommandError("check", fmt.Errorf("failed to create store: %w", err))
	}
	defer backend.Close()

	rules, err := ratelimit.NewRulesetFromConfig(&cfg.RateLimit)
	if err != nil {
		return cli.NewConfigError("rate_limit", err.Error())
	}

	evaluator := ratelimit.NewEvaluator(backend, rules, ratelimit.EvaluatorConfig{
		FailurePolicy: ratelimit.FailurePolicy(cfg.RateLimit.FailurePolicy),
	})

	formatter := cli.NewFormatter(cli.OutputFormat(checkFlags.format))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var lastErr error
	for i := 0; i < checkFlags.count; i++ {
		decision, err := evaluator.Check(ctx, checkFlags.scope, checkFlags.identifier)
		if err != nil {
			return cli.NewCommandError("check", err)
		}

		result := checkResult{
			Allowed:    decision.Allowed,
			Scope:      decision.Scope,
			Identifier: decision.Identifier,
			Limit:      decision.Limit,
			Remaining:  decision.Remaining,
		}
		if !decision.Allowed {
			result.RetryAfterSeconds = int64(decision.RetryAfter.Seconds())
			lastErr = decision.Err()
		}

		if checkFlags.format == "json" {
			if err := formatter.FormatTo(os.Stdout, result); err != nil {
				return cli.NewCommandError("check", err)
			}
		} else if decision.Allowed {
			fmt.Printf("✓ allowed scope=%s identifier=%s remaining=%d\n",
				result.Scope, result.Identifier, result.Remaining)
		} else {
			fmt.Printf("✗ rejected scope=%s identifier=%s retry_after=%s\n",
				result.Scope, result.Identifier, decision.RetryAfter)
		}
	}

	return lastErr
}
