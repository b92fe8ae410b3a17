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
	"github.com/hupe1980/runlens/internal/render"
	"github.com/hupe1980/runlens/internal/source"
	"github.com/hupe1980/runlens/internal/urls"
	"github.com/hupe1980/runlens/internal/view"
)

// locationOptions select the page a command works on.
type locationOptions struct {
	url      string
	view     string
	pipeline string
	filters  []string
}

// registerLocationFlags adds the page selection flags to a cobra command.
func registerLocationFlags(cmd *cobra.Command, opts *locationOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.url, "url", "", "PipelineRuns location, e.g. /namespaces/ci/pipelines/build/pipelineruns?labelSelector=app%3Dweb")
	f.StringVar(&opts.view, "view", "", "named view from the config file")
	f.StringVarP(&opts.pipeline, "pipeline", "p", "", "pipeline name")
	f.StringArrayVarP(&opts.filters, "filter", "l", nil, "add a label filter (key:value[,key:value...])")

	_ = cmd.RegisterFlagCompletionFunc("view", completeViews)

	cmd.MarkFlagsMutuallyExclusive("url", "view")
	cmd.MarkFlagsMutuallyExclusive("url", "pipeline")
	cmd.MarkFlagsMutuallyExclusive("view", "pipeline")
}

// location resolves the starting URL from --url, --view or --pipeline
// and the configured namespace. --filter values are applied separately
// by the page so they pass through the same validation as typed input.
func (o *locationOptions) location(cfg *config.Config) (string, error) {
	switch {
	case o.url != "":
		return o.url, nil
	case o.view != "":
		views, err := config.LoadViews(cfg.ConfigFile)
		if err != nil {
			return "", err
		}

		v, ok := views[o.view]
		if !ok {
			return "", usageError(fmt.Errorf("unknown view %q (available: %s)", o.view, strings.Join(views.Names(), ", ")))
		}

		return v.URL(cfg.Namespace)
	case o.pipeline != "" && cfg.Namespace == "":
		return "", usageError(fmt.Errorf("--pipeline requires --namespace"))
	default:
		return urls.PipelineRuns(cfg.Namespace, o.pipeline), nil
	}
}

// session is a page wired to a history and a store, ready to render.
type session struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *source.FileSource
	history *view.History
	page    *view.Page
}

// openSession mounts the page at the location selected by opts and
// applies any --filter values.
func openSession(ctx context.Context, opts *locationOptions) (*session, error) {
	cfg := config.FromContext(ctx)
	logger := logging.FromContext(ctx)

	loc, err := opts.location(cfg)
	if err != nil {
		return nil, err
	}

	store := source.NewFileSource(cfg.Source, source.WithLogger(logging.Component(ctx, "source")))
	history := view.NewHistory(loc)

	page := view.NewPage(store, history, view.Options{
		MergePolicy:      cfg.Policy(),
		StrictLabels:     cfg.StrictLabels,
		DefaultNamespace: cfg.Namespace,
		Logger:           logging.Component(ctx, "page"),
	})
	history.Listen(page.Sync)

	parsed, err := urls.Parse(loc)
	if err != nil {
		return nil, usageError(err)
	}

	if err := page.Sync(ctx, parsed); err != nil {
		if errors.Is(err, view.ErrUnknownRoute) {
			return nil, usageError(err)
		}

		return nil, &ExitError{Code: CodeError, Err: err}
	}

	for _, f := range opts.filters {
		page.SetInput(f)

		if err := page.Submit(ctx); err != nil {
			return nil, filterExit(fmt.Errorf("--filter %q: %w", f, err))
		}
	}

	logger.Debug("page ready", slog.String("location", history.Current()))

	return &session{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		history: history,
		page:    page,
	}, nil
}

// render writes the current page state to out (or --out-file).
func (s *session) render(cmd *cobra.Command, outFile string) error {
	return renderState(cmd, s.cfg, outFile, s.page.Snapshot())
}

func renderState(cmd *cobra.Command, cfg *config.Config, outFile string, state view.State) error {
	f, err := render.NewFormatter(cfg.Output, render.Options{NoColor: cfg.NoColor})
	if err != nil {
		return usageError(err)
	}

	w := render.NewWriter(outFile, cmd.OutOrStdout(), logging.FromContext(cmd.Context()))

	return render.Page(w, f, state)
}

// parseToken accepts a single filter in either key:value or key=value form.
func parseToken(raw string) (labelfilter.Token, error) {
	tokens, err := labelfilter.ParseInput(strings.Replace(raw, "=", ":", 1))
	if err != nil {
		return "", err
	}

	if len(tokens) != 1 {
		return "", usageError(fmt.Errorf("expected exactly one filter, got %d", len(tokens)))
	}

	return tokens[0], nil
}
