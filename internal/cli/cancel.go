package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/source"
	"github.com/hupe1980/runlens/internal/view"
)

type cancelOptions struct {
	locationOptions

	outFile string
}

func newCancelCommand() *cobra.Command {
	opts := &cancelOptions{}

	cmd := &cobra.Command{
		Use:   "cancel <run>",
		Short: "Cancel a PipelineRun shown on the page",
		Long: `Cancel sets spec.status to Cancelled on the stored manifest of a run
and shows the refreshed PipelineRuns page.

The run must be listed at the chosen location. When the same name exists
in several namespaces, narrow the location with --namespace. Runs that
already succeeded or failed cannot be cancelled.`,
		Example: `  runlens cancel -n ci -p build build-run-x7k2p
  runlens cancel --url /namespaces/ci/pipelineruns build-run-x7k2p -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCancel(cmd, opts, args[0])
		},
	}

	registerLocationFlags(cmd, &opts.locationOptions)
	cmd.Flags().StringVar(&opts.outFile, "out-file", "", "write output to a file instead of stdout")

	return cmd
}

func runCancel(cmd *cobra.Command, opts *cancelOptions, name string) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, &opts.locationOptions)
	if err != nil {
		return err
	}

	if _, err := s.page.CancelRun(ctx, s.store, name); err != nil {
		if errors.Is(err, source.ErrNotFound) || errors.Is(err, view.ErrAmbiguousRun) {
			return usageError(err)
		}

		return &ExitError{Code: CodeError, Err: err}
	}

	return s.render(cmd, opts.outFile)
}
