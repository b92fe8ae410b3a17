package pipelinerun

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

func runAt(name string, start string) *Run {
	r := &Run{Name: name}
	if start != "" {
		r.StartTime, _ = time.Parse(time.RFC3339, start)
	}

	return r
}

func names(runs []*Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Name
	}

	return out
}

func TestSortByStartTime(t *testing.T) {
	runs := []*Run{
		runAt("old", "2024-01-01T00:00:00Z"),
		runAt("pending-a", ""),
		runAt("new", "2024-03-01T00:00:00Z"),
		runAt("mid", "2024-02-01T00:00:00Z"),
		runAt("pending-b", ""),
	}

	SortByStartTime(runs)
	assert.Equal(t, []string{"pending-a", "pending-b", "new", "mid", "old"}, names(runs))
}

func TestSortByStartTime_Empty(t *testing.T) {
	assert.NotPanics(t, func() { SortByStartTime(nil) })
}

func TestQualifiedName_ClusterWide(t *testing.T) {
	assert.Equal(t, "r", (&Run{Name: "r"}).QualifiedName())
}

func TestFromUnstructured_NilMaps(t *testing.T) {
	u := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "tekton.dev/v1",
		"kind":       "PipelineRun",
		"metadata":   map[string]interface{}{"name": "bare"},
		"status":     map[string]interface{}{"startTime": "not-a-time"},
	}}

	r := FromUnstructured(u)
	assert.NotNil(t, r.Labels)
	assert.NotNil(t, r.Annotations)
	assert.False(t, r.Started())
	assert.Empty(t, r.Release())
}

func TestNew(t *testing.T) {
	r, err := New(NewOptions{
		Namespace:          "ci",
		PipelineName:       "build",
		ServiceAccountName: "builder",
		Params:             map[string]string{"b": "2", "a": "1"},
		Labels:             map[string]string{"app": "foo"},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(r.Name, "build-run-"))
	assert.Len(t, r.Name, len("build-run-")+5)
	assert.Equal(t, "ci", r.Namespace)
	assert.Equal(t, "build", r.PipelineName)
	assert.Equal(t, "foo", r.Labels["app"])
	assert.Equal(t, "build", r.Labels[PipelineLabel])
	assert.Equal(t, DefaultAPIVersion, r.Object.GetAPIVersion())
	assert.Equal(t, Kind, r.Object.GetKind())

	params, found, err := unstructured.NestedSlice(r.Object.Object, "spec", "params")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, params, 2)
	assert.Equal(t, "a", params[0].(map[string]interface{})["name"])

	sa, _, _ := unstructured.NestedString(r.Object.Object, "spec", "taskRunTemplate", "serviceAccountName")
	assert.Equal(t, "builder", sa)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(NewOptions{Namespace: "ci"})
	assert.ErrorContains(t, err, "pipeline name is required")

	_, err = New(NewOptions{PipelineName: "build"})
	assert.ErrorContains(t, err, "namespace is required")

	_, err = New(NewOptions{Namespace: "ci", PipelineName: "build", Name: "Not_Valid"})
	assert.ErrorContains(t, err, "invalid run name")
}

func TestNew_ExplicitName(t *testing.T) {
	r, err := New(NewOptions{Namespace: "ci", PipelineName: "build", Name: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", r.Name)
}

func TestGenerateName_LongPipeline(t *testing.T) {
	name := GenerateName(strings.Repeat("p", 300))
	assert.LessOrEqual(t, len(name), 253)
	assert.Contains(t, name, "-run-")
}

func TestReleaseConstraint(t *testing.T) {
	rc, err := ParseReleaseConstraint(">=0.50")
	require.NoError(t, err)
	assert.Equal(t, ">=0.50", rc.String())

	withRelease := func(v string) *Run {
		return &Run{Annotations: map[string]string{ReleaseAnnotation: v}}
	}

	assert.True(t, rc.Satisfied(withRelease("v0.59.2")))
	assert.True(t, rc.Satisfied(withRelease("0.50.0")))
	assert.False(t, rc.Satisfied(withRelease("v0.44.0")))
	assert.False(t, rc.Satisfied(withRelease("devel")))
	assert.False(t, rc.Satisfied(&Run{Annotations: map[string]string{}}))
}

func TestParseReleaseConstraint_Invalid(t *testing.T) {
	_, err := ParseReleaseConstraint(">>nope")
	assert.ErrorContains(t, err, "parsing release constraint")
}
