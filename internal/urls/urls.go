// Package urls builds and matches the dashboard routes used by the
// PipelineRuns view.
package urls

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/hupe1980/runlens/internal/labelfilter"
)

// Params are the route parameters of a PipelineRuns page.
type Params struct {
	Namespace       string
	PipelineName    string
	PipelineRunName string
}

// Location is a parsed browser location: a route path plus its raw query.
type Location struct {
	Path  string
	Query string
}

// String reassembles the location.
func (l Location) String() string {
	if l.Query == "" {
		return l.Path
	}

	return l.Path + "?" + l.Query
}

// PipelineRuns returns the list route for a pipeline. An empty pipeline
// lists every run in the namespace; an empty namespace lists all runs.
func PipelineRuns(namespace, pipelineName string) string {
	switch {
	case namespace == "":
		return "/pipelineruns"
	case pipelineName == "":
		return "/namespaces/" + url.PathEscape(namespace) + "/pipelineruns"
	default:
		return "/namespaces/" + url.PathEscape(namespace) +
			"/pipelines/" + url.PathEscape(pipelineName) + "/pipelineruns"
	}
}

// PipelineRunByName returns the detail route of a single run.
func PipelineRunByName(namespace, pipelineName, runName string) string {
	return PipelineRuns(namespace, pipelineName) + "/" + url.PathEscape(runName)
}

// WithFilters appends the serialized filters to base. An empty set
// returns base unchanged so the parameter is omitted entirely.
func WithFilters(base string, filters labelfilter.Set) string {
	q := labelfilter.Serialize(filters)
	if q == "" {
		return base
	}

	return base + "?" + q
}

// Parse splits a raw URL or path into a Location. Scheme and host are
// dropped; fragments are ignored.
func Parse(raw string) (Location, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Location{}, fmt.Errorf("parsing url %q: %w", raw, err)
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	return Location{Path: path, Query: u.RawQuery}, nil
}

// Match extracts route parameters from a PipelineRuns path. It accepts
// the list routes and the run detail route.
func Match(path string) (Params, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")

	for i, s := range segs {
		v, err := url.PathUnescape(s)
		if err != nil {
			return Params{}, false
		}

		segs[i] = v
	}

	switch {
	case len(segs) == 1 && segs[0] == "pipelineruns":
		return Params{}, true
	case len(segs) == 3 && segs[0] == "namespaces" && segs[2] == "pipelineruns":
		return Params{Namespace: segs[1]}, segs[1] != ""
	case len(segs) == 5 && segs[0] == "namespaces" && segs[2] == "pipelines" && segs[4] == "pipelineruns":
		return Params{Namespace: segs[1], PipelineName: segs[3]}, segs[1] != "" && segs[3] != ""
	case len(segs) == 6 && segs[0] == "namespaces" && segs[2] == "pipelines" && segs[4] == "pipelineruns":
		p := Params{Namespace: segs[1], PipelineName: segs[3], PipelineRunName: segs[5]}
		return p, p.Namespace != "" && p.PipelineName != "" && p.PipelineRunName != ""
	}

	return Params{}, false
}
