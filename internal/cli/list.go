package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

type listOptions struct {
	locationOptions

	release string
	outFile string
}

func newListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the PipelineRuns page",
		Long: `List renders the PipelineRuns page for a location: notifications,
the active label filters, and the matching runs (not-started runs first,
then newest first).

The location comes from --url, a named --view from the config file, or
--namespace/--pipeline. Each --filter is added the way the filter input
would add it, so invalid or duplicate filters fail with exit code 3.`,
		Example: `  runlens list -n ci -p build -l app:web
  runlens list --url '/namespaces/ci/pipelineruns?labelSelector=env%3Dprod'
  runlens list --view failing-frontend -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	registerLocationFlags(cmd, &opts.locationOptions)

	f := cmd.Flags()
	f.StringVar(&opts.release, "release", "", "only runs whose Tekton release satisfies a semver constraint, e.g. '>=0.50'")
	f.StringVar(&opts.outFile, "out-file", "", "write output to a file instead of stdout")

	return cmd
}

func runList(cmd *cobra.Command, opts *listOptions) error {
	ctx := cmd.Context()

	var constraint *pipelinerun.ReleaseConstraint

	if opts.release != "" {
		c, err := pipelinerun.ParseReleaseConstraint(opts.release)
		if err != nil {
			return usageError(err)
		}

		constraint = c
	}

	s, err := openSession(ctx, &opts.locationOptions)
	if err != nil {
		return err
	}

	state := s.page.Snapshot()

	if constraint != nil {
		kept := make([]*pipelinerun.Run, 0, len(state.Runs))

		for _, r := range state.Runs {
			if constraint.Satisfied(r) {
				kept = append(kept, r)
			}
		}

		s.logger.Debug("applied release constraint",
			slog.String("constraint", constraint.String()),
			slog.Int("before", len(state.Runs)),
			slog.Int("after", len(kept)),
		)

		state.Runs = kept
	}

	return renderState(cmd, s.cfg, opts.outFile, state)
}
