// Package watch keeps a PipelineRuns view live. It monitors the run
// source on disk, debounces rapid events, and re-runs the fetch and
// render step, reporting which runs appeared, disappeared or changed
// status.
package watch
