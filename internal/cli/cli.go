// Package cli wires the command line to a collection run.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"ratecollector/internal/config"
)

// Argument errors. Each has its own message; all exit with status 1.
var (
	ErrUsage       = errors.New("usage: ratecollector <number_of_days>")
	ErrInvalidDays = errors.New("invalid number of days")
	ErrNonPositive = errors.New("number of days must be greater than zero")
)

// argumentMessages holds the text printed for each argument error.
var argumentMessages = map[error]string{
	ErrUsage:       "Usage: ratecollector <number_of_days>",
	ErrInvalidDays: "Invalid input. Please provide a valid number of days.",
	ErrNonPositive: "Number of days must be greater than zero.",
}

// userMessage returns the line printed on stderr for err.
func userMessage(err error) string {
	for sentinel, msg := range argumentMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return err.Error()
}

// Runner executes a single collection and prints its result.
type Runner interface {
	Run(ctx context.Context, days int) error
	Close() error
}

// RunnerFactory builds a Runner once arguments and configuration are valid.
type RunnerFactory func(cfg *config.Config, stdout io.Writer) (Runner, error)

// ParseDays validates the single positional argument.
func ParseDays(args []string) (int, error) {
	if len(args) != 1 {
		return 0, ErrUsage
	}
	days, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, ErrInvalidDays
	}
	if days <= 0 {
		return 0, ErrNonPositive
	}
	return days, nil
}

// NewRootCommand creates the ratecollector command.
func NewRootCommand(factory RunnerFactory) *cobra.Command {
	var configFile string
	var days int

	cmd := &cobra.Command{
		Use:   "ratecollector <number_of_days>",
		Short: "Collect NBP buy/sell exchange rates for the last N days",
		Args: func(_ *cobra.Command, args []string) error {
			d, err := ParseDays(args)
			if err != nil {
				return err
			}
			days = d
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := config.LoadConfig(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			runner, err := factory(cfg, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, runner.Close())
			}()

			return runner.Run(cmd.Context(), days)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to config file")
	cmd.Flags().StringSlice("currencies", nil, "Currency codes to collect (default EUR,USD)")
	cmd.Flags().StringSlice("providers", nil, "Rate providers to query (default nbp)")
	cmd.Flags().Int("concurrency", 0, "Maximum concurrent fetches (default 1)")
	cmd.Flags().StringP("output", "o", "", "Output format: json or text (default json)")
	cmd.Flags().String("cache-addr", "", "Redis address for the provider cache")
	cmd.Flags().Bool("debug", false, "Development logging")

	return cmd
}

// Execute runs the command with args and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer, factory RunnerFactory) int {
	cmd := NewRootCommand(factory)
	cmd.SetArgs(positionalNegatives(args))
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}
	return 0
}

// positionalNegatives stops flag parsing before the first negative integer so
// that "-3" reaches ParseDays instead of failing as an unknown shorthand flag.
func positionalNegatives(args []string) []string {
	for i, a := range args {
		if a == "--" {
			return args
		}
		if len(a) > 1 && a[0] == '-' {
			if _, err := strconv.Atoi(a); err == nil {
				out := make([]string, 0, len(args)+1)
				out = append(out, args[:i]...)
				out = append(out, "--")
				return append(out, args[i:]...)
			}
		}
	}
	return args
}
