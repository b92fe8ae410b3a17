// Package diff compares the filters of two PipelineRuns locations.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/render"
)

// contextLines is the number of unchanged filters shown around a change.
const contextLines = 3

// Side is one of the two compared locations.
type Side struct {
	Label   string
	Filters labelfilter.Set
}

// Result is a comparison of two filter sets.
type Result struct {
	From, To string

	// Unified is empty when both sets list the same filters in the same
	// order.
	Unified string

	// Change ignores order.
	Change labelfilter.Change
}

// Changed reports whether the unified diff has any hunks.
func (r *Result) Changed() bool { return r.Unified != "" }

// Filters diffs two filter sets, one filter per line in set order.
func Filters(from, to Side) (*Result, error) {
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        asLines(from.Filters),
		B:        asLines(to.Filters),
		FromFile: from.Label,
		ToFile:   to.Label,
		Context:  contextLines,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	return &Result{
		From:    from.Label,
		To:      to.Label,
		Unified: unified,
		Change:  labelfilter.Diff(from.Filters, to.Filters),
	}, nil
}

func asLines(s labelfilter.Set) []string {
	out := make([]string, 0, len(s))
	for _, t := range s {
		out = append(out, string(t)+"\n")
	}

	return out
}

// Write prints r line by line, styling headers, hunks, removals and
// additions.
func Write(w io.Writer, r *Result, st render.Styles) error {
	if !r.Changed() {
		_, err := fmt.Fprintln(w, "No differences found.")
		return err
	}

	for line := range strings.Lines(r.Unified) {
		line = strings.TrimSuffix(line, "\n")

		style := st.Muted
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
			style = st.Title
		case strings.HasPrefix(line, "@@"):
			style = st.Header
		case strings.HasPrefix(line, "-"):
			style = st.Error
		case strings.HasPrefix(line, "+"):
			style = st.Success
		}

		if _, err := fmt.Fprintln(w, style.Render(line)); err != nil {
			return err
		}
	}

	return nil
}
