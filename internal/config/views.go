package config

import (
	"fmt"
	"os"
	"sort"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/urls"
)

// View is a named PipelineRuns location stored in the config file:
//
//	views:
//	  failing-frontend:
//	    namespace: ci
//	    pipeline: build
//	    filters: "app:frontend, env:prod"
type View struct {
	// Namespace of the view; empty uses the configured default.
	Namespace string `json:"namespace,omitempty"`

	// Pipeline restricts the view to one pipeline.
	Pipeline string `json:"pipeline,omitempty"`

	// Filters uses the same key:value syntax as the filter input.
	Filters string `json:"filters,omitempty"`
}

// Views maps preset names to views.
type Views map[string]View

// ParseViews parses the views section from raw config file bytes and
// validates every preset's filters.
func ParseViews(data []byte) (Views, error) {
	var raw struct {
		Views Views `json:"views,omitempty"`
	}

	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing views: %w", err)
	}

	if raw.Views == nil {
		raw.Views = Views{}
	}

	if err := raw.Views.Validate(); err != nil {
		return nil, err
	}

	return raw.Views, nil
}

// LoadViews reads the views section of the config file at path. A missing
// path yields no views.
func LoadViews(path string) (Views, error) {
	if path == "" {
		return Views{}, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // user-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}

	return ParseViews(data)
}

// Validate checks every view, in name order.
func (vs Views) Validate() error {
	for _, name := range vs.Names() {
		if _, err := vs[name].FilterSet(); err != nil {
			return fmt.Errorf("views[%s]: %w", name, err)
		}

		if vs[name].Pipeline != "" && vs[name].Namespace == "" {
			return fmt.Errorf("views[%s]: pipeline requires a namespace", name)
		}
	}

	return nil
}

// Names returns the preset names sorted.
func (vs Views) Names() []string {
	names := make([]string, 0, len(vs))
	for name := range vs {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// FilterSet parses the view's filters. An empty string yields an empty set.
func (v View) FilterSet() (labelfilter.Set, error) {
	if v.Filters == "" {
		return labelfilter.Set{}, nil
	}

	tokens, err := labelfilter.ParseInput(v.Filters)
	if err != nil {
		return nil, err
	}

	return labelfilter.NewSet(tokens...), nil
}

// URL returns the view's location. defaultNamespace is used when the view
// names none.
func (v View) URL(defaultNamespace string) (string, error) {
	set, err := v.FilterSet()
	if err != nil {
		return "", err
	}

	ns := v.Namespace
	if ns == "" {
		ns = defaultNamespace
	}

	return urls.WithFilters(urls.PipelineRuns(ns, v.Pipeline), set), nil
}
