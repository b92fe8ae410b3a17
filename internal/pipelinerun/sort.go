package pipelinerun

import "sort"

// SortByStartTime orders runs in place: runs that have not started come
// first, then the most recently started. Ties keep their input order.
func SortByStartTime(runs []*Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		a, b := runs[i], runs[j]

		switch {
		case !a.Started():
			return b.Started()
		case !b.Started():
			return false
		default:
			return a.StartTime.After(b.StartTime)
		}
	})
}
