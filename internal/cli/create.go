package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/config"
	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/render"
)

type createOptions struct {
	pipeline       string
	name           string
	serviceAccount string
	params         map[string]string
	labels         map[string]string
	dryRun         bool
	outFile        string
}

func newCreateCommand() *cobra.Command {
	opts := &createOptions{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a PipelineRun for a pipeline",
		Long: `Create builds a new PipelineRun for --pipeline in --namespace and stores
it in the source. In a source directory each run gets its own file; a
single source file gets the run appended as a new document.

The PipelineRuns page is then shown with a link to the new run. Use
--dry-run to print the manifest without storing it.`,
		Example: `  runlens create -n ci -p build --param revision=main
  runlens create -n ci -p build --service-account builder --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.pipeline, "pipeline", "p", "", "pipeline name (required)")
	f.StringVar(&opts.name, "name", "", "run name (default: <pipeline>-run-<random>)")
	f.StringVar(&opts.serviceAccount, "service-account", "", "service account for the run's tasks")
	f.StringToStringVar(&opts.params, "param", nil, "pipeline parameter (key=value), repeatable")
	f.StringToStringVar(&opts.labels, "label", nil, "extra label (key=value), repeatable")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the manifest without storing it")
	f.StringVar(&opts.outFile, "out-file", "", "write output to a file instead of stdout")

	_ = cmd.MarkFlagRequired("pipeline")

	return cmd
}

func runCreate(cmd *cobra.Command, opts *createOptions) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)

	if cfg.Namespace == "" {
		return usageError(fmt.Errorf("--namespace is required for create"))
	}

	newOpts := pipelinerun.NewOptions{
		Namespace:          cfg.Namespace,
		PipelineName:       opts.pipeline,
		ServiceAccountName: opts.serviceAccount,
		Params:             opts.params,
		Labels:             opts.labels,
		Name:               opts.name,
	}

	if opts.dryRun {
		run, err := pipelinerun.New(newOpts)
		if err != nil {
			return usageError(err)
		}

		data, err := render.Manifest(run)
		if err != nil {
			return &ExitError{Code: CodeError, Err: err}
		}

		return render.NewWriter(opts.outFile, cmd.OutOrStdout(), nil).Write(data)
	}

	if _, err := os.Stat(cfg.Source); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(cfg.Source, 0o750); err != nil {
			return &ExitError{Code: CodeError, Err: fmt.Errorf("creating source directory: %w", err)}
		}
	}

	s, err := openSession(ctx, &locationOptions{pipeline: opts.pipeline})
	if err != nil {
		return err
	}

	s.page.OpenCreate()

	if _, err := s.page.CreateRun(ctx, s.store, newOpts); err != nil {
		s.page.CloseCreate()
		return &ExitError{Code: CodeError, Err: err}
	}

	return s.render(cmd, opts.outFile)
}
