package labelfilter

// Change describes how the active filters moved between two sets.
type Change struct {
	Added   []Token `json:"added,omitempty"`
	Removed []Token `json:"removed,omitempty"`
}

// Empty reports whether nothing was added or removed.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Diff compares prev and next. Order-only changes are not reported.
func Diff(prev, next Set) Change {
	var c Change

	for _, t := range next {
		if !prev.Contains(t) {
			c.Added = append(c.Added, t)
		}
	}

	for _, t := range prev {
		if !next.Contains(t) {
			c.Removed = append(c.Removed, t)
		}
	}

	return c
}
