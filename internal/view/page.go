// Package view implements the PipelineRuns page controller. The page owns
// no filter state of its own: it reconstructs the active filters from the
// location on every Sync and changes them only by navigating.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/source"
	"github.com/hupe1980/runlens/internal/urls"
)

// ErrUnknownRoute is returned by Sync for paths that are not a
// PipelineRuns route.
var ErrUnknownRoute = errors.New("not a pipelineruns route")

// Options configures a Page.
type Options struct {
	// MergePolicy decides how repeated labelSelector parameters combine.
	MergePolicy labelfilter.MergePolicy

	// StrictLabels applies the Kubernetes label rules to new filters.
	StrictLabels bool

	// DefaultNamespace is used when the route carries no namespace.
	DefaultNamespace string

	// Logger is used for structured logging.
	Logger *slog.Logger
}

// CreatedRun identifies a run created from the page.
type CreatedRun struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Page is the PipelineRuns page. It is safe for concurrent use.
type Page struct {
	fetcher source.Fetcher
	nav     Navigator
	opts    Options

	mu         sync.Mutex
	mounted    bool
	location   urls.Location
	params     urls.Params
	query      source.Query
	runs       []*pipelinerun.Run
	loading    bool
	fetchSeq   uint64
	loadErr    error
	input      labelfilter.InputBox
	created    *CreatedRun
	createOpen bool
}

// NewPage creates an unmounted page.
func NewPage(fetcher source.Fetcher, nav Navigator, opts Options) *Page {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Page{
		fetcher: fetcher,
		nav:     nav,
		opts:    opts,
		input:   labelfilter.InputBox{Strict: opts.StrictLabels},
	}
}

// Sync handles mount and navigation: it rebuilds the query from loc and
// re-fetches when the query changed (or on first mount). Fetch failures
// are kept on the page and also returned.
func (p *Page) Sync(ctx context.Context, loc urls.Location) error {
	params, ok := urls.Match(loc.Path)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRoute, loc.Path)
	}

	ns := params.Namespace
	if ns == "" {
		ns = p.opts.DefaultNamespace
	}

	next := source.Query{
		Namespace:    ns,
		PipelineName: params.PipelineName,
		Filters:      labelfilter.DeserializeWith(loc.Query, p.opts.MergePolicy),
		Strict:       p.opts.StrictLabels,
	}

	p.mu.Lock()
	refetch := !p.mounted || source.NeedsRefetch(p.query, next)
	p.mounted = true
	p.location = loc
	p.params = params
	p.query = next

	if refetch {
		p.reset()
	}
	p.mu.Unlock()

	if !refetch {
		p.opts.Logger.Debug("query unchanged, skipping fetch", slog.String("location", loc.String()))
		return nil
	}

	return p.Refresh(ctx)
}

// Refresh re-fetches runs for the current query.
func (p *Page) Refresh(ctx context.Context) error {
	p.mu.Lock()
	q := p.query
	p.fetchSeq++
	seq := p.fetchSeq
	p.loading = true
	p.mu.Unlock()

	p.opts.Logger.Debug("fetching pipelineruns",
		slog.String("namespace", q.Namespace),
		slog.String("pipeline", q.PipelineName),
		slog.String("filters", q.Filters.String()),
	)

	runs, err := p.fetcher.Fetch(ctx, q)
	if err == nil {
		pipelinerun.SortByStartTime(runs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Only the latest fetch ends loading.
	if seq == p.fetchSeq {
		p.loading = false
	}

	// A newer Sync may have replaced the query while fetching.
	if source.NeedsRefetch(q, p.query) {
		return nil
	}

	if err != nil {
		p.loadErr = err
		p.runs = nil

		return fmt.Errorf("loading pipelineruns: %w", err)
	}

	p.loadErr = nil
	p.runs = runs

	return nil
}

// SetInput records text typed into the filter field.
func (p *Page) SetInput(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input.SetValue(text)
}

// Submit validates the typed filter and, when valid, navigates to the
// location carrying the extended filter set. Validation failures are
// kept for display and returned as *labelfilter.ValidationError.
func (p *Page) Submit(ctx context.Context) error {
	p.mu.Lock()
	next, err := p.input.Submit(p.query.Filters)
	path := p.location.Path
	p.mu.Unlock()

	if err != nil {
		p.opts.Logger.Debug("filter rejected", slog.String("error", err.Error()))
		return err
	}

	return p.nav.Navigate(ctx, urls.WithFilters(path, next))
}

// RemoveFilter navigates to the location without t. Removing the last
// filter navigates to the bare page path.
func (p *Page) RemoveFilter(ctx context.Context, t labelfilter.Token) error {
	p.mu.Lock()
	next := labelfilter.Remove(p.query.Filters, t)
	path := p.location.Path
	p.mu.Unlock()

	return p.nav.Navigate(ctx, urls.WithFilters(path, next))
}

// DismissError hides the filter error notification.
func (p *Page) DismissError() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.input.Dismiss()
}

// OpenCreate shows the create-run dialog.
func (p *Page) OpenCreate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.createOpen = true
}

// CloseCreate hides the create-run dialog.
func (p *Page) CloseCreate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.createOpen = false
}

// CreateSucceeded closes the dialog and shows a link to run.
func (p *Page) CreateSucceeded(run *pipelinerun.Run) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.createOpen = false
	p.created = &CreatedRun{
		Name: run.Name,
		URL:  urls.PipelineRunByName(run.Namespace, run.PipelineName, run.Name),
	}
}

// CreateRun builds a run for the page's pipeline and namespace (unless
// opts overrides them), stores it with creator, and records the success
// notification. The run list is refreshed afterwards.
func (p *Page) CreateRun(ctx context.Context, creator source.Creator, opts pipelinerun.NewOptions) (*pipelinerun.Run, error) {
	p.mu.Lock()
	if opts.Namespace == "" {
		opts.Namespace = p.query.Namespace
	}

	if opts.PipelineName == "" {
		opts.PipelineName = p.query.PipelineName
	}
	p.mu.Unlock()

	run, err := pipelinerun.New(opts)
	if err != nil {
		return nil, fmt.Errorf("building pipelinerun: %w", err)
	}

	if err := creator.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("creating pipelinerun: %w", err)
	}

	p.CreateSucceeded(run)

	if err := p.Refresh(ctx); err != nil {
		return run, err
	}

	return run, nil
}

// ErrAmbiguousRun is returned by CancelRun when a name matches runs in
// more than one namespace.
var ErrAmbiguousRun = errors.New("pipelinerun name is ambiguous")

// CancelRun cancels the listed run called name and refreshes the page.
// The name must identify exactly one of the runs currently shown.
func (p *Page) CancelRun(ctx context.Context, canceller source.Canceller, name string) (*pipelinerun.Run, error) {
	p.mu.Lock()
	var matches []*pipelinerun.Run

	for _, r := range p.runs {
		if r.Name == name {
			matches = append(matches, r)
		}
	}
	p.mu.Unlock()

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s is not listed on this page", source.ErrNotFound, name)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s exists in %d namespaces", ErrAmbiguousRun, name, len(matches))
	}

	target := matches[0]

	run, err := canceller.Cancel(ctx, target.Namespace, target.Name)
	if err != nil {
		return nil, fmt.Errorf("cancelling pipelinerun: %w", err)
	}

	p.opts.Logger.Info("cancelled pipelinerun", slog.String("run", run.QualifiedName()))

	if err := p.Refresh(ctx); err != nil {
		return run, err
	}

	return run, nil
}

// reset clears the create notification and dialog; callers hold p.mu.
func (p *Page) reset() {
	p.created = nil
	p.createOpen = false
	p.loadErr = nil
}
