// Package runlens provides a public Go API for the PipelineRuns page:
// listing runs from manifests on disk and editing the label filters
// carried in a page URL.
//
// This package exposes the same page logic the CLI uses, allowing
// programmatic use without the command tree.
//
// Basic usage:
//
//	result, err := runlens.List(ctx, "/namespaces/ci/pipelineruns?labelSelector=app%3Dweb",
//	    runlens.WithSource("./runs"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range result.Runs {
//	    fmt.Println(r.Name, r.Status)
//	}
//
// Editing filters:
//
//	next, err := runlens.AddFilters("/pipelineruns", "app:web, env:prod")
//	// next == "/pipelineruns?labelSelector=app%3Dweb%2Cenv%3Dprod"
package runlens

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/logging"
	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/source"
	"github.com/hupe1980/runlens/internal/urls"
	"github.com/hupe1980/runlens/internal/view"
)

// Sentinel errors for rejected filter input. Use errors.Is.
var (
	ErrInvalidSyntax   = labelfilter.ErrInvalidSyntax
	ErrDuplicateFilter = labelfilter.ErrDuplicateFilter
)

// Option configures List. Use the With* functions to create Options.
type Option func(*options)

type options struct {
	source       string
	namespace    string
	mergePolicy  string
	strictLabels bool
	filters      []string
	release      string
	logger       *slog.Logger
}

// WithSource sets the manifest file or directory to read runs from.
func WithSource(path string) Option { return func(o *options) { o.source = path } }

// WithNamespace sets the namespace used when the location names none.
func WithNamespace(ns string) Option { return func(o *options) { o.namespace = ns } }

// WithMergePolicy selects how repeated labelSelector parameters are
// read: "last-wins" (default) or "merge".
func WithMergePolicy(policy string) Option { return func(o *options) { o.mergePolicy = policy } }

// WithStrictLabels applies the Kubernetes label rules to added filters.
func WithStrictLabels() Option { return func(o *options) { o.strictLabels = true } }

// WithFilters adds filter input (key:value[,key:value...]) after the
// location is loaded, the way the filter field would.
func WithFilters(inputs ...string) Option {
	return func(o *options) { o.filters = append(o.filters, inputs...) }
}

// WithRelease keeps only runs whose Tekton release satisfies a semver
// constraint such as ">=0.50".
func WithRelease(constraint string) Option { return func(o *options) { o.release = constraint } }

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// Run is a PipelineRun as shown on the page.
type Run struct {
	Name           string
	Namespace      string
	PipelineName   string
	Status         string
	Reason         string
	StartTime      time.Time
	CompletionTime time.Time
	Release        string
	Labels         map[string]string
}

// Result holds the page after a successful List.
type Result struct {
	// Location is the final page URL, including any added filters.
	Location string

	// Filters are the active filters in canonical key=value form.
	Filters []string

	// Runs match the location, sorted not-started first, then newest first.
	Runs []Run
}

// List loads the PipelineRuns page at location.
//
// The location is a dashboard URL or path such as
// "/namespaces/ci/pipelines/build/pipelineruns?labelSelector=app%3Dweb".
// Filter input that is invalid or duplicates an active filter yields an
// error matching ErrInvalidSyntax or ErrDuplicateFilter.
func List(ctx context.Context, location string, opts ...Option) (*Result, error) {
	if location == "" {
		return nil, errors.New("location must not be empty")
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	o.applyDefaults()

	policy, ok := labelfilter.ParseMergePolicy(o.mergePolicy)
	if !ok {
		return nil, fmt.Errorf("invalid merge policy %q", o.mergePolicy)
	}

	var constraint *pipelinerun.ReleaseConstraint

	if o.release != "" {
		c, err := pipelinerun.ParseReleaseConstraint(o.release)
		if err != nil {
			return nil, err
		}

		constraint = c
	}

	loc, err := urls.Parse(location)
	if err != nil {
		return nil, err
	}

	store := source.NewFileSource(o.source, source.WithLogger(o.logger))
	history := view.NewHistory(loc.String())

	page := view.NewPage(store, history, view.Options{
		MergePolicy:      policy,
		StrictLabels:     o.strictLabels,
		DefaultNamespace: o.namespace,
		Logger:           o.logger,
	})
	history.Listen(page.Sync)

	if err := page.Sync(ctx, loc); err != nil {
		return nil, err
	}

	for _, input := range o.filters {
		page.SetInput(input)

		if err := page.Submit(ctx); err != nil {
			return nil, fmt.Errorf("filter %q: %w", input, err)
		}
	}

	state := page.Snapshot()

	result := &Result{
		Location: state.Location,
		Filters:  state.Filters.Strings(),
		Runs:     make([]Run, 0, len(state.Runs)),
	}

	for _, r := range state.Runs {
		if constraint != nil && !constraint.Satisfied(r) {
			continue
		}

		result.Runs = append(result.Runs, Run{
			Name:           r.Name,
			Namespace:      r.Namespace,
			PipelineName:   r.PipelineName,
			Status:         r.Status,
			Reason:         r.Reason,
			StartTime:      r.StartTime,
			CompletionTime: r.CompletionTime,
			Release:        r.Release(),
			Labels:         r.Labels,
		})
	}

	return result, nil
}

// AddFilters returns location with the filters from input appended.
// The first filter must not already be active; later duplicates are
// skipped.
func AddFilters(location, input string) (string, error) {
	loc, err := urls.Parse(location)
	if err != nil {
		return "", err
	}

	tokens, err := labelfilter.ParseInput(input)
	if err != nil {
		return "", err
	}

	next, err := labelfilter.Add(labelfilter.Deserialize(loc.Query), tokens)
	if err != nil {
		return "", err
	}

	return urls.WithFilters(loc.Path, next), nil
}

// RemoveFilter returns location without filter (key:value or key=value).
// Removing the last filter yields the bare path; removing a filter that
// is not active leaves the filters unchanged.
func RemoveFilter(location, filter string) (string, error) {
	loc, err := urls.Parse(location)
	if err != nil {
		return "", err
	}

	tokens, err := labelfilter.ParseInput(strings.Replace(filter, "=", ":", 1))
	if err != nil {
		return "", err
	}

	if len(tokens) != 1 {
		return "", fmt.Errorf("expected exactly one filter, got %d", len(tokens))
	}

	return urls.WithFilters(loc.Path, labelfilter.Remove(labelfilter.Deserialize(loc.Query), tokens[0])), nil
}

// applyDefaults sets zero-value fields to sensible defaults.
func (o *options) applyDefaults() {
	if o.source == "" {
		o.source = "."
	}

	if o.mergePolicy == "" {
		o.mergePolicy = labelfilter.LastWins.String()
	}

	if o.logger == nil {
		o.logger = logging.Discard()
	}
}
