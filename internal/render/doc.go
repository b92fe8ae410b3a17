// Package render turns a PipelineRuns page snapshot into terminal, JSON
// or YAML output and writes it to stdout or a file.
package render
