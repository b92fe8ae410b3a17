package view

import (
	"context"
	"sync"

	"github.com/hupe1980/runlens/internal/urls"
)

// Navigator is the routing collaborator: it changes the current location.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// ListenFunc is called after every successful navigation.
type ListenFunc func(ctx context.Context, loc urls.Location) error

// compile-time interface conformance check.
var _ Navigator = (*History)(nil)

// History is an in-memory router. It records visited URLs and notifies a
// listener, which is how a Page learns about navigation it triggered.
type History struct {
	mu       sync.Mutex
	entries  []string
	listener ListenFunc
}

// NewHistory creates a history positioned at initial (if non-empty).
func NewHistory(initial string) *History {
	h := &History{}
	if initial != "" {
		h.entries = append(h.entries, initial)
	}

	return h
}

// Listen registers fn as the navigation listener, replacing any previous.
func (h *History) Listen(fn ListenFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.listener = fn
}

// Navigate pushes url and notifies the listener. The listener runs
// outside the history lock.
func (h *History) Navigate(ctx context.Context, url string) error {
	loc, err := urls.Parse(url)
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.entries = append(h.entries, loc.String())
	fn := h.listener
	h.mu.Unlock()

	if fn == nil {
		return nil
	}

	return fn(ctx, loc)
}

// Current returns the latest entry, or "" when empty.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return ""
	}

	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of all visited URLs in order.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.entries...)
}
