package pipelinerun_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/runlens/internal/pipelinerun"
)

const succeededRun = `apiVersion: tekton.dev/v1
kind: PipelineRun
metadata:
  name: build-run-abcde
  namespace: ci
  labels:
    app: foo
    tekton.dev/pipeline: build
  annotations:
    pipeline.tekton.dev/release: v0.59.2
spec:
  pipelineRef:
    name: build
status:
  startTime: "2024-05-01T10:00:00Z"
  completionTime: "2024-05-01T10:05:00Z"
  conditions:
  - type: Succeeded
    status: "True"
    reason: Succeeded
`

func TestSplitDocuments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"single document", "kind: PipelineRun", 1},
		{"two documents", "kind: A\n---\nkind: B", 2},
		{"leading separator", "---\nkind: A", 1},
		{"only separators", "---\n---\n", 0},
		{"empty input", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, pipelinerun.SplitDocuments([]byte(tt.input)), tt.want)
		})
	}
}

func TestParser_SingleRun(t *testing.T) {
	runs, err := pipelinerun.NewParser(nil).Parse(context.Background(), []byte(succeededRun))
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, "build-run-abcde", r.Name)
	assert.Equal(t, "ci", r.Namespace)
	assert.Equal(t, "ci/build-run-abcde", r.QualifiedName())
	assert.Equal(t, "build", r.PipelineName)
	assert.Equal(t, "foo", r.Labels["app"])
	assert.Equal(t, "v0.59.2", r.Release())
	assert.Equal(t, pipelinerun.StatusSucceeded, r.Status)
	assert.Equal(t, "Succeeded", r.Reason)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), r.StartTime)
	assert.Equal(t, 5*time.Minute, r.Duration(time.Now()))
	assert.Equal(t, "tekton.dev", r.GVK.Group)
	assert.NotNil(t, r.Object)
}

func TestParser_SkipsOtherKinds(t *testing.T) {
	manifest := []byte(`apiVersion: v1
kind: ConfigMap
metadata:
  name: cm
---
apiVersion: tekton.dev/v1
kind: TaskRun
metadata:
  name: tr
---
apiVersion: example.com/v1
kind: PipelineRun
metadata:
  name: impostor
---
` + succeededRun)

	runs, err := pipelinerun.NewParser(nil).Parse(context.Background(), manifest)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "build-run-abcde", runs[0].Name)
}

func TestParser_ExpandsLists(t *testing.T) {
	manifest := []byte(`apiVersion: tekton.dev/v1beta1
kind: PipelineRunList
items:
- metadata:
    name: one
    namespace: ci
    labels:
      tekton.dev/pipeline: build
- metadata:
    name: two
    namespace: ci
---
apiVersion: v1
kind: List
items:
- apiVersion: tekton.dev/v1
  kind: PipelineRun
  metadata:
    name: three
- apiVersion: v1
  kind: Pod
  metadata:
    name: not-a-run
`)

	runs, err := pipelinerun.NewParser(nil).Parse(context.Background(), manifest)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "one", runs[0].Name)
	assert.Equal(t, "build", runs[0].PipelineName, "falls back to the pipeline label")
	assert.Equal(t, "v1beta1", runs[0].GVK.Version)
	assert.Equal(t, "two", runs[1].Name)
	assert.Equal(t, "three", runs[2].Name)
}

func TestParser_JSON(t *testing.T) {
	manifest := []byte(`{"apiVersion":"tekton.dev/v1","kind":"PipelineRun","metadata":{"name":"j","namespace":"ci"}}`)

	runs, err := pipelinerun.NewParser(nil).Parse(context.Background(), manifest)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "j", runs[0].Name)
	assert.Equal(t, pipelinerun.StatusUnknown, runs[0].Status)
	assert.False(t, runs[0].Started())
	assert.Zero(t, runs[0].Duration(time.Now()))
}

func TestParser_MalformedYAML(t *testing.T) {
	_, err := pipelinerun.NewParser(nil).Parse(context.Background(), []byte("kind: PipelineRun\n  bad indent: ["))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing document 0")
}

func TestParser_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipelinerun.NewParser(nil).Parse(ctx, []byte(succeededRun))
	require.ErrorIs(t, err, context.Canceled)
}

func TestParser_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   string
	}{
		{"failed", `status:
  conditions:
  - type: Succeeded
    status: "False"
    reason: Cancelled`, pipelinerun.StatusFailed},
		{"running", `status:
  conditions:
  - type: Succeeded
    status: Unknown
    reason: Running`, pipelinerun.StatusRunning},
		{"pending", `spec:
  status: PipelineRunPending`, pipelinerun.StatusPending},
		{"no conditions", `status: {}`, pipelinerun.StatusUnknown},
		{"cancel requested", `spec:
  status: Cancelled
status:
  conditions:
  - type: Succeeded
    status: Unknown
    reason: Running`, pipelinerun.StatusCancelled},
		{"legacy cancel requested", `spec:
  status: PipelineRunCancelled`, pipelinerun.StatusCancelled},
		{"cancel after success", `spec:
  status: Cancelled
status:
  conditions:
  - type: Succeeded
    status: "True"`, pipelinerun.StatusSucceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "apiVersion: tekton.dev/v1\nkind: PipelineRun\nmetadata:\n  name: r\n" + tt.status + "\n"

			runs, err := pipelinerun.NewParser(nil).Parse(context.Background(), []byte(doc))
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, tt.want, runs[0].Status)
		})
	}
}

func TestIsPipelineRun(t *testing.T) {
	assert.True(t, pipelinerun.IsPipelineRun("tekton.dev/v1", "PipelineRun"))
	assert.True(t, pipelinerun.IsPipelineRun("tekton.dev/v1beta1", "PipelineRun"))
	assert.False(t, pipelinerun.IsPipelineRun("tekton.dev/v1", "TaskRun"))
	assert.False(t, pipelinerun.IsPipelineRun("v1", "PipelineRun"))
	assert.False(t, pipelinerun.IsPipelineRun("a/b/c", "PipelineRun"))
}
