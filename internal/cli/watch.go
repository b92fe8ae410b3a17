package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/runlens/internal/config"
	"github.com/hupe1980/runlens/internal/logging"
	"github.com/hupe1980/runlens/internal/render"
	"github.com/hupe1980/runlens/internal/watch"
)

type watchOptions struct {
	locationOptions

	debounce time.Duration
	outFile  string
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the PipelineRuns page up to date as manifests change",
		Long: `Watch renders the PipelineRuns page and re-renders it whenever a
manifest under the source changes.

File changes are debounced to avoid rapid re-renders. Each reload
reports how many runs match and which runs were added, removed or
changed status since the previous reload.

The config file is watched as well. Edits to it, such as a new
namespace or a changed view, apply on the next reload. The log setup
and the watched source path stay as they were at start.`,
		Example: `  runlens watch -s ./runs -n ci -p build
  runlens watch -s ./runs --url '/pipelineruns?labelSelector=env%3Dprod' --out-file page.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, opts)
		},
	}

	registerLocationFlags(cmd, &opts.locationOptions)

	f := cmd.Flags()
	f.DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "quiet period before a burst of file changes triggers a reload")
	f.StringVar(&opts.outFile, "out-file", "", "write each render to a file instead of stdout")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *watchOptions) error {
	s, err := openSession(ctx, &opts.locationOptions)
	if err != nil {
		return err
	}

	if _, err := newFormatter(s.cfg); err != nil {
		return usageError(err)
	}

	w := render.NewWriter(opts.outFile, cmd.OutOrStdout(), s.logger)

	var tracker watch.Tracker

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		next, rebuilt, err := reloadSession(fnCtx, cmd, s, &opts.locationOptions)
		if err != nil {
			return nil, err
		}

		s = next

		if !rebuilt {
			if err := s.page.Refresh(fnCtx); err != nil {
				return nil, err
			}
		}

		formatter, err := newFormatter(s.cfg)
		if err != nil {
			return nil, err
		}

		state := s.page.Snapshot()
		changes := tracker.Update(state.Runs)

		if err := render.Page(w, formatter, state); err != nil {
			return nil, err
		}

		return &watch.RunResult{RunCount: len(state.Runs), Changes: changes}, nil
	}

	watchOpts := watch.DefaultOptions()
	watchOpts.Path = s.cfg.Source
	watchOpts.Logger = logging.Component(ctx, "watch")
	watchOpts.Out = cmd.ErrOrStderr()

	if opts.debounce > 0 {
		watchOpts.Debounce = opts.debounce
	}

	if s.cfg.ConfigFile != "" {
		watchOpts.ExtraFiles = []string{s.cfg.ConfigFile}
	}

	return watch.Run(ctx, watchOpts, runFn)
}

func newFormatter(cfg *config.Config) (render.Formatter, error) {
	return render.NewFormatter(cfg.Output, render.Options{NoColor: cfg.NoColor})
}

// reloadSession re-reads the config file and opens a fresh session when
// the configuration changed. Views live in the same file, so a session
// built from a view is always reopened. rebuilt reports whether the
// returned session was just loaded.
func reloadSession(ctx context.Context, cmd *cobra.Command, cur *session, opts *locationOptions) (*session, bool, error) {
	if cur.cfg.ConfigFile == "" {
		return cur, false, nil
	}

	cfg, err := config.Load(cmd, cur.cfg.ConfigFile)
	if err != nil {
		return nil, false, err
	}

	if *cfg == *cur.cfg && opts.view == "" {
		return cur, false, nil
	}

	next, err := openSession(config.NewContext(ctx, cfg), opts)
	if err != nil {
		return nil, false, err
	}

	cur.logger.Info("configuration reloaded",
		slog.String("configFile", cfg.ConfigFile),
		slog.String("namespace", cfg.Namespace),
		slog.String("location", next.history.Current()),
	)

	return next, true, nil
}
