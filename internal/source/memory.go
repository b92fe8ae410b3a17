package source

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

// compile-time interface conformance check.
var _ Store = (*MemorySource)(nil)

// MemorySource keeps runs in memory. It is safe for concurrent use.
type MemorySource struct {
	mu   sync.RWMutex
	runs []*pipelinerun.Run

	// fetches counts Fetch calls.
	fetches int
}

// NewMemorySource creates a store seeded with runs.
func NewMemorySource(runs ...*pipelinerun.Run) *MemorySource {
	return &MemorySource{runs: append([]*pipelinerun.Run(nil), runs...)}
}

// Fetch returns the stored runs matching q.
func (m *MemorySource) Fetch(ctx context.Context, q Query) ([]*pipelinerun.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.fetches++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	return Select(q, m.runs), nil
}

// Create stores run. Names must be unique within a namespace.
func (m *MemorySource) Create(ctx context.Context, run *pipelinerun.Run) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.runs {
		if r.Namespace == run.Namespace && r.Name == run.Name {
			return fmt.Errorf("pipelinerun %s already exists", run.QualifiedName())
		}
	}

	m.runs = append(m.runs, run)

	return nil
}

// Cancel marks the stored run namespace/name as cancelled. The stored
// run is replaced by an updated copy so runs already handed out stay
// unchanged.
func (m *MemorySource) Cancel(ctx context.Context, namespace, name string) (*pipelinerun.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.runs {
		if r.Namespace != namespace || r.Name != name {
			continue
		}

		updated := *r
		if r.Object != nil {
			updated.Object = r.Object.DeepCopy()
		}

		if err := pipelinerun.Cancel(&updated); err != nil {
			return nil, err
		}

		m.runs[i] = &updated

		return &updated, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, qualified(namespace, name))
}

// Fetches returns how many times Fetch was called.
func (m *MemorySource) Fetches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.fetches
}
