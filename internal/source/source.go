// Package source provides the "fetch runs" collaborator of the
// PipelineRuns view: a query type, the Fetcher/Creator/Canceller
// interfaces, and file-backed and in-memory stores.
package source

import (
	"context"
	"errors"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// Query selects the runs shown on a page.
type Query struct {
	// Namespace restricts runs to one namespace; empty means all.
	Namespace string `json:"namespace,omitempty"`

	// PipelineName restricts runs to one pipeline; empty means all.
	PipelineName string `json:"pipelineName,omitempty"`

	// Filters are label filters with AND semantics.
	Filters labelfilter.Set `json:"filters,omitempty"`

	// Strict matches filters through a Kubernetes label selector, the
	// way the cluster would.
	Strict bool `json:"-"`
}

// NeedsRefetch reports whether moving from prev to next changes the
// result set, i.e. namespace, pipeline, or filters differ.
func NeedsRefetch(prev, next Query) bool {
	return prev.Namespace != next.Namespace ||
		prev.PipelineName != next.PipelineName ||
		!prev.Filters.Equal(next.Filters)
}

// Fetcher loads the runs matching a query.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]*pipelinerun.Run, error)
}

// Creator stores a new run.
type Creator interface {
	Create(ctx context.Context, run *pipelinerun.Run) error
}

// Canceller requests cancellation of a stored run by setting its
// spec.status. It returns the updated run.
type Canceller interface {
	Cancel(ctx context.Context, namespace, name string) (*pipelinerun.Run, error)
}

// ErrNotFound is returned when a run to act on does not exist.
var ErrNotFound = errors.New("pipelinerun not found")

// Store is a Fetcher that can also create and cancel runs.
type Store interface {
	Fetcher
	Creator
	Canceller
}

// Matches reports whether run satisfies q.
func Matches(q Query, run *pipelinerun.Run) bool {
	return q.matcher()(run)
}

// Select returns the runs satisfying q, keeping their order.
func Select(q Query, runs []*pipelinerun.Run) []*pipelinerun.Run {
	match := q.matcher()
	out := make([]*pipelinerun.Run, 0, len(runs))

	for _, r := range runs {
		if match(r) {
			out = append(out, r)
		}
	}

	return out
}

func (q Query) matcher() func(*pipelinerun.Run) bool {
	matchLabels := q.Filters.Matches

	// Filters Kubernetes cannot parse fall back to literal matching.
	if q.Strict {
		if sel, err := q.Filters.Selector(); err == nil {
			matchLabels = func(lbls map[string]string) bool {
				return sel.Matches(labels.Set(lbls))
			}
		}
	}

	return func(run *pipelinerun.Run) bool {
		if q.Namespace != "" && run.Namespace != q.Namespace {
			return false
		}

		if q.PipelineName != "" && run.PipelineName != q.PipelineName {
			return false
		}

		return matchLabels(run.Labels)
	}
}
