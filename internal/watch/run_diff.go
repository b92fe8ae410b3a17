package watch

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// Change kinds.
const (
	ChangeAdded         = "added"
	ChangeRemoved       = "removed"
	ChangeStatusChanged = "status-changed"
)

// RunChange describes how a single run differs between two reloads.
type RunChange struct {
	// Kind is one of the Change* constants.
	Kind string
	// Name is the namespace-qualified run name.
	Name string
	// Detail carries the old and new status for status changes.
	Detail string
}

// RunDiff compares two run lists by qualified name. Changes are sorted
// by name.
func RunDiff(prev, curr []*pipelinerun.Run) []RunChange {
	prevMap := index(prev)
	currMap := index(curr)

	var changes []RunChange

	for name, p := range prevMap {
		if _, ok := currMap[name]; !ok {
			changes = append(changes, RunChange{Kind: ChangeRemoved, Name: name, Detail: p.Status})
		}
	}

	for name, c := range currMap {
		p, existed := prevMap[name]
		if !existed {
			changes = append(changes, RunChange{Kind: ChangeAdded, Name: name, Detail: c.Status})
			continue
		}

		if p.Status != c.Status {
			changes = append(changes, RunChange{
				Kind:   ChangeStatusChanged,
				Name:   name,
				Detail: fmt.Sprintf("%s -> %s", p.Status, c.Status),
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Name < changes[j].Name
	})

	return changes
}

// RunDiffSummary returns a human-readable one-line summary.
func RunDiffSummary(changes []RunChange) string {
	var added, removed, changed int

	for _, c := range changes {
		switch c.Kind {
		case ChangeAdded:
			added++
		case ChangeRemoved:
			removed++
		case ChangeStatusChanged:
			changed++
		}
	}

	if added == 0 && removed == 0 && changed == 0 {
		return "no changes"
	}

	parts := make([]string, 0, 3)

	if added > 0 {
		parts = append(parts, fmt.Sprintf("+%d added", added))
	}

	if removed > 0 {
		parts = append(parts, fmt.Sprintf("-%d removed", removed))
	}

	if changed > 0 {
		parts = append(parts, fmt.Sprintf("~%d status changed", changed))
	}

	return strings.Join(parts, ", ")
}

// Tracker remembers the runs of the previous reload. The first Update
// reports no changes.
type Tracker struct {
	mu   sync.Mutex
	prev []*pipelinerun.Run
	seen bool
}

// Update records runs and returns the changes since the last call.
func (t *Tracker) Update(runs []*pipelinerun.Run) []RunChange {
	t.mu.Lock()
	defer t.mu.Unlock()

	var changes []RunChange
	if t.seen {
		changes = RunDiff(t.prev, runs)
	}

	t.prev = append([]*pipelinerun.Run(nil), runs...)
	t.seen = true

	return changes
}

func index(runs []*pipelinerun.Run) map[string]*pipelinerun.Run {
	out := make(map[string]*pipelinerun.Run, len(runs))
	for _, r := range runs {
		out[r.QualifiedName()] = r
	}

	return out
}
