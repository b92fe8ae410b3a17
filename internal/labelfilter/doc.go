// Package labelfilter implements the label-filter codec behind the
// PipelineRuns view. It parses user-entered `key:value` text into
// canonical `key=value` tokens, keeps the active filters as an ordered,
// duplicate-free [Set], and converts that set to and from the
// `labelSelector` URL query parameter.
//
// All operations are pure: callers pass the current [Set] in and receive
// a new one back. Navigation and re-fetching are the caller's job.
package labelfilter
