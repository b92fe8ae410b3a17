// Package pipelinerun models Tekton PipelineRun records as read from
// manifests and as created by the create-run flow.
package pipelinerun

import (
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
)

// Tekton identifiers.
const (
	Group             = "tekton.dev"
	Kind              = "PipelineRun"
	DefaultAPIVersion = "tekton.dev/v1"

	// PipelineLabel is set by the Tekton controller on every run.
	PipelineLabel = "tekton.dev/pipeline"

	// ReleaseAnnotation records the Tekton Pipelines release that ran it.
	ReleaseAnnotation = "pipeline.tekton.dev/release"
)

// Status values derived from the Succeeded condition.
const (
	StatusUnknown   = "Unknown"
	StatusRunning   = "Running"
	StatusSucceeded = "Succeeded"
	StatusFailed    = "Failed"
	StatusPending   = "Pending"

	// StatusCancelled marks an unfinished run whose spec asks for
	// cancellation.
	StatusCancelled = "Cancelled"
)

// Run is a single PipelineRun record.
type Run struct {
	// GVK of the record (tekton.dev/v1 or v1beta1).
	GVK schema.GroupVersionKind

	Name      string
	Namespace string

	// PipelineName is spec.pipelineRef.name, falling back to the
	// tekton.dev/pipeline label.
	PipelineName string

	Labels      map[string]string
	Annotations map[string]string

	// StartTime is status.startTime; zero when the run has not started.
	StartTime time.Time

	// CompletionTime is status.completionTime; zero while running.
	CompletionTime time.Time

	// Status is one of the Status* constants; Reason is the raw
	// condition reason (e.g. "Cancelled").
	Status string
	Reason string

	// Object is the full unstructured representation.
	Object *unstructured.Unstructured
}

// QualifiedName returns "namespace/name".
func (r *Run) QualifiedName() string {
	if r.Namespace == "" {
		return r.Name
	}

	return r.Namespace + "/" + r.Name
}

// Release returns the Tekton release annotation, if present.
func (r *Run) Release() string {
	return r.Annotations[ReleaseAnnotation]
}

// Started reports whether the run has a start time.
func (r *Run) Started() bool {
	return !r.StartTime.IsZero()
}

// Duration returns how long the run took, or has been running as of now.
// Runs that have not started report zero.
func (r *Run) Duration(now time.Time) time.Duration {
	if !r.Started() {
		return 0
	}

	end := r.CompletionTime
	if end.IsZero() {
		end = now
	}

	return end.Sub(r.StartTime)
}

// FromUnstructured builds a Run from a decoded PipelineRun object.
func FromUnstructured(u *unstructured.Unstructured) *Run {
	r := &Run{
		GVK:         u.GroupVersionKind(),
		Name:        u.GetName(),
		Namespace:   u.GetNamespace(),
		Labels:      u.GetLabels(),
		Annotations: u.GetAnnotations(),
		Object:      u,
	}

	if r.Labels == nil {
		r.Labels = map[string]string{}
	}

	if r.Annotations == nil {
		r.Annotations = map[string]string{}
	}

	r.PipelineName, _, _ = unstructured.NestedString(u.Object, "spec", "pipelineRef", "name")
	if r.PipelineName == "" {
		r.PipelineName = r.Labels[PipelineLabel]
	}

	r.StartTime = nestedTime(u, "status", "startTime")
	r.CompletionTime = nestedTime(u, "status", "completionTime")
	r.Status, r.Reason = succeededCondition(u)

	return r
}

func nestedTime(u *unstructured.Unstructured, fields ...string) time.Time {
	s, found, err := unstructured.NestedString(u.Object, fields...)
	if err != nil || !found || s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}

	return t
}

// succeededCondition maps the Succeeded condition onto a display status.
// Until the condition is terminal, a cancellation request in spec.status
// wins.
func succeededCondition(u *unstructured.Unstructured) (status, reason string) {
	status, reason = conditionStatus(u)

	if status == StatusSucceeded || status == StatusFailed {
		return status, reason
	}

	if IsCancelRequested(u) {
		return StatusCancelled, SpecStatusCancelled
	}

	return status, reason
}

func conditionStatus(u *unstructured.Unstructured) (status, reason string) {
	conds, found, err := unstructured.NestedSlice(u.Object, "status", "conditions")
	if err != nil || !found {
		if spec, _, _ := unstructured.NestedString(u.Object, "spec", "status"); spec == "PipelineRunPending" {
			return StatusPending, "PipelineRunPending"
		}

		return StatusUnknown, ""
	}

	for _, c := range conds {
		cond, ok := c.(map[string]interface{})
		if !ok || cond["type"] != "Succeeded" {
			continue
		}

		reason, _ = cond["reason"].(string)

		switch cond["status"] {
		case "True":
			return StatusSucceeded, reason
		case "False":
			return StatusFailed, reason
		default:
			return StatusRunning, reason
		}
	}

	return StatusUnknown, ""
}
