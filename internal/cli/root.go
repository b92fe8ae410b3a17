// Package cli implements the cobra command tree for runlens.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/config"
	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/logging"
)

// Process exit codes.
const (
	CodeOK         = 0
	CodeError      = 1
	CodeUsage      = 2
	CodeValidation = 3
)

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func usageError(err error) error { return &ExitError{Code: CodeUsage, Err: err} }

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}

	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute runs runlens with ctx and returns the process exit code.
// Cancelling ctx stops long-running commands such as watch.
func Execute(ctx context.Context) int {
	root := NewRootCommand()

	err := root.ExecuteContext(ctx)
	if err == nil {
		return CodeOK
	}

	root.PrintErrln("Error:", err)

	return exitCode(err)
}

// exitCode maps err onto a process exit code. Filter validation errors
// that were not wrapped explicitly still exit with CodeValidation.
func exitCode(err error) int {
	if err == nil {
		return CodeOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	if _, ok := labelfilter.AsValidationError(err); ok {
		return CodeValidation
	}

	return CodeError
}

// filterExit attaches an exit code to err unless it already has one.
func filterExit(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	return &ExitError{Code: exitCode(err), Err: err}
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "runlens",
		Short: "Browse and filter Tekton PipelineRuns from the terminal",
		Long: `runlens renders the PipelineRuns page of a Tekton dashboard in the
terminal. Runs are read from PipelineRun manifests on disk and filtered
by labels kept in the page URL (?labelSelector=...), so every view can
be shared as a link.

Filters use the dashboard's input syntax, key:value[,key:value...].`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return usageError(err)
			}

			logger := logging.Setup(cfg)

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("logLevel", cfg.LogLevel),
				slog.String("source", cfg.Source),
				slog.String("mergePolicy", cfg.MergePolicy),
				slog.String("configFile", cfg.ConfigFile),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .runlens.yaml)")
	pf.String("log-level", config.LogLevelInfo, choiceUsage("log level", "log-level"))
	pf.String("log-format", config.LogFormatText, choiceUsage("log format", "log-format"))
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringP("source", "s", config.DefaultSource, "PipelineRun manifest file or directory")
	pf.StringP("namespace", "n", "", "namespace used when the location names none")
	pf.String("merge-policy", labelfilter.LastWins.String(), choiceUsage("repeated labelSelector handling", "merge-policy"))
	pf.Bool("strict-labels", false, "apply Kubernetes label rules to new filters")
	pf.StringP("output", "o", config.OutputTable, choiceUsage("output format", "output"))

	registerGlobalCompletions(cmd)

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	cmd.AddCommand(
		newVersionCommand(),
		newListCommand(),
		newFilterCommand(),
		newCreateCommand(),
		newCancelCommand(),
		newWatchCommand(),
		newCompletionCommand(),
	)

	return cmd
}

func choiceUsage(what, key string) string {
	return what + ": " + strings.Join(config.Choices(key), ", ")
}
