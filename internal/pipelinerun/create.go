package pipelinerun

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
	"k8s.io/apimachinery/pkg/util/validation"
)

// NewOptions describes a run to create.
type NewOptions struct {
	Namespace          string
	PipelineName       string
	ServiceAccountName string

	// Params are passed as spec.params in sorted key order.
	Params map[string]string

	// Labels are added to the run. The tekton.dev/pipeline label is
	// always set.
	Labels map[string]string

	// Name overrides the generated name.
	Name string
}

// New builds a PipelineRun object ready to be stored. The name follows
// the dashboard's "<pipeline>-run-<suffix>" convention unless set.
func New(opts NewOptions) (*Run, error) {
	if opts.PipelineName == "" {
		return nil, fmt.Errorf("pipeline name is required")
	}

	if opts.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}

	name := opts.Name
	if name == "" {
		name = GenerateName(opts.PipelineName)
	}

	if errs := validation.IsDNS1123Subdomain(name); len(errs) > 0 {
		return nil, fmt.Errorf("invalid run name %q: %s", name, strings.Join(errs, "; "))
	}

	labels := map[string]string{}
	for k, v := range opts.Labels {
		labels[k] = v
	}

	labels[PipelineLabel] = opts.PipelineName

	u := &unstructured.Unstructured{Object: map[string]interface{}{}}
	u.SetAPIVersion(DefaultAPIVersion)
	u.SetKind(Kind)
	u.SetName(name)
	u.SetNamespace(opts.Namespace)
	u.SetLabels(labels)

	spec := map[string]interface{}{
		"pipelineRef": map[string]interface{}{"name": opts.PipelineName},
	}

	if len(opts.Params) > 0 {
		spec["params"] = paramList(opts.Params)
	}

	if opts.ServiceAccountName != "" {
		spec["taskRunTemplate"] = map[string]interface{}{
			"serviceAccountName": opts.ServiceAccountName,
		}
	}

	u.Object["spec"] = spec

	return FromUnstructured(u), nil
}

// GenerateName returns "<pipeline>-run-<5 random chars>", trimmed so the
// result stays a valid object name.
func GenerateName(pipelineName string) string {
	const maxPrefix = validation.DNS1123SubdomainMaxLength - 5 - len("-run-")

	prefix := pipelineName
	if len(prefix) > maxPrefix {
		prefix = strings.TrimRight(prefix[:maxPrefix], "-.")
	}

	return prefix + "-run-" + utilrand.String(5)
}

func paramList(params map[string]string) []interface{} {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	out := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]interface{}{"name": k, "value": params[k]})
	}

	return out
}
