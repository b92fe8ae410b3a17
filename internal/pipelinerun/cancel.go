package pipelinerun

import (
	"errors"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	sigsyaml "sigs.k8s.io/yaml"
)

// Cancellation values of spec.status. Older v1beta1 runs used the
// PipelineRun prefix.
const (
	SpecStatusCancelled       = "Cancelled"
	specStatusCancelledLegacy = "PipelineRunCancelled"
)

// ErrCompleted is returned when cancelling a run that already finished.
var ErrCompleted = errors.New("pipelinerun already completed")

// IsCancelRequested reports whether spec.status asks for cancellation.
func IsCancelRequested(u *unstructured.Unstructured) bool {
	s, _, _ := unstructured.NestedString(u.Object, "spec", "status")
	return s == SpecStatusCancelled || s == specStatusCancelledLegacy
}

// Cancel asks for r to be cancelled by setting spec.status on its object.
// Cancelling a cancelled run is a no-op; finished runs return
// ErrCompleted.
func Cancel(r *Run) error {
	switch r.Status {
	case StatusCancelled:
		return nil
	case StatusSucceeded, StatusFailed:
		return fmt.Errorf("%w: %s is %s", ErrCompleted, r.QualifiedName(), r.Status)
	}

	if r.Object != nil {
		if err := unstructured.SetNestedField(r.Object.Object, SpecStatusCancelled, "spec", "status"); err != nil {
			return fmt.Errorf("cancelling %s: %w", r.QualifiedName(), err)
		}
	}

	r.Status, r.Reason = StatusCancelled, SpecStatusCancelled

	return nil
}

// CancelInDocument cancels the run namespace/name inside one manifest
// document, which may be a PipelineRun or a List holding it, and returns
// the re-encoded document. found is false when the document does not
// hold the run.
func CancelInDocument(doc []byte, namespace, name string) (run *Run, out []byte, found bool, err error) {
	var obj map[string]interface{}
	if err := sigsyaml.Unmarshal(doc, &obj); err != nil {
		return nil, nil, false, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	u := &unstructured.Unstructured{Object: obj}

	var target *unstructured.Unstructured

	if IsPipelineRun(u.GetAPIVersion(), u.GetKind()) {
		if u.GetNamespace() == namespace && u.GetName() == name {
			target = u
		}
	} else if items, ok := obj["items"].([]interface{}); ok {
		for _, item := range items {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}

			iu := &unstructured.Unstructured{Object: m}
			if iu.GetNamespace() == namespace && iu.GetName() == name {
				target = iu
				break
			}
		}
	}

	if target == nil {
		return nil, nil, false, nil
	}

	run = FromUnstructured(target)
	if err := Cancel(run); err != nil {
		return nil, nil, true, err
	}

	out, err = sigsyaml.Marshal(obj)
	if err != nil {
		return nil, nil, true, fmt.Errorf("serializing YAML: %w", err)
	}

	return run, out, true, nil
}
