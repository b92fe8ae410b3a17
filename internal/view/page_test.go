package view

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/pipelinerun"
	"github.com/hupe1980/runlens/internal/source"
	"github.com/hupe1980/runlens/internal/urls"
)

const buildPath = "/namespaces/ci/pipelines/build/pipelineruns"

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func run(name string, labels map[string]string, started time.Time) *pipelinerun.Run {
	return &pipelinerun.Run{
		Namespace:    "ci",
		PipelineName: "build",
		Name:         name,
		Labels:       labels,
		StartTime:    started,
	}
}

func names(runs []*pipelinerun.Run) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Name
	}

	return out
}

// mount wires a page to a history and syncs it to initial.
func mount(t *testing.T, initial string, runs ...*pipelinerun.Run) (*Page, *History, *source.MemorySource) {
	t.Helper()

	store := source.NewMemorySource(runs...)
	h := NewHistory(initial)
	p := NewPage(store, h, Options{})
	h.Listen(p.Sync)

	loc, err := urls.Parse(initial)
	require.NoError(t, err)
	require.NoError(t, p.Sync(context.Background(), loc))

	return p, h, store
}

type failingFetcher struct{ err error }

func (f failingFetcher) Fetch(context.Context, source.Query) ([]*pipelinerun.Run, error) {
	return nil, f.err
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

func TestPage_SyncMountFetches(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p, _, store := mount(t, buildPath,
		run("old", map[string]string{"app": "foo"}, now.Add(-time.Hour)),
		run("new", map[string]string{"app": "bar"}, now),
	)

	s := p.Snapshot()
	assert.Equal(t, 1, store.Fetches())
	assert.Equal(t, "ci", s.Namespace)
	assert.Equal(t, "build", s.PipelineName)
	assert.Empty(t, s.Filters)
	assert.Equal(t, []string{"new", "old"}, names(s.Runs))
	assert.False(t, s.Loading)
	assert.Empty(t, s.Error)
}

func TestPage_SyncFiltersFromURL(t *testing.T) {
	p, _, _ := mount(t, buildPath+"?labelSelector=app%3Dfoo",
		run("a", map[string]string{"app": "foo"}, time.Time{}),
		run("b", map[string]string{"app": "bar"}, time.Time{}),
	)

	s := p.Snapshot()
	assert.Equal(t, labelfilter.Set{"app=foo"}, s.Filters)
	assert.Equal(t, []string{"a"}, names(s.Runs))
}

func TestPage_SyncSkipsFetchWhenQueryUnchanged(t *testing.T) {
	p, _, store := mount(t, buildPath+"?labelSelector=app%3Dfoo")

	loc, err := urls.Parse(buildPath + "?labelSelector=app%3Dfoo&other=1")
	require.NoError(t, err)
	require.NoError(t, p.Sync(context.Background(), loc))

	assert.Equal(t, 1, store.Fetches())
}

func TestPage_SyncUnknownRoute(t *testing.T) {
	p := NewPage(source.NewMemorySource(), NewHistory(""), Options{})

	err := p.Sync(context.Background(), urls.Location{Path: "/pipelines"})
	require.ErrorIs(t, err, ErrUnknownRoute)
}

func TestPage_SyncDefaultNamespace(t *testing.T) {
	store := source.NewMemorySource()
	p := NewPage(store, NewHistory(""), Options{DefaultNamespace: "ci"})

	require.NoError(t, p.Sync(context.Background(), urls.Location{Path: "/pipelineruns"}))
	assert.Equal(t, "ci", p.Snapshot().Namespace)
}

func TestPage_SyncMergePolicy(t *testing.T) {
	loc := urls.Location{Path: buildPath, Query: "labelSelector=a%3D1&labelSelector=b%3D2"}

	lastWins := NewPage(source.NewMemorySource(), NewHistory(""), Options{})
	require.NoError(t, lastWins.Sync(context.Background(), loc))
	assert.Equal(t, labelfilter.Set{"b=2"}, lastWins.Snapshot().Filters)

	merged := NewPage(source.NewMemorySource(), NewHistory(""), Options{MergePolicy: labelfilter.Merge})
	require.NoError(t, merged.Sync(context.Background(), loc))
	assert.Equal(t, labelfilter.Set{"a=1", "b=2"}, merged.Snapshot().Filters)
}

func TestPage_FetchError(t *testing.T) {
	boom := errors.New("boom")
	p := NewPage(failingFetcher{err: boom}, NewHistory(""), Options{})

	err := p.Sync(context.Background(), urls.Location{Path: buildPath})
	require.ErrorIs(t, err, boom)

	s := p.Snapshot()
	assert.Contains(t, s.Error, "boom")
	assert.Empty(t, s.Runs)
}

// ---------------------------------------------------------------------------
// Submit / RemoveFilter
// ---------------------------------------------------------------------------

func TestPage_SubmitNavigates(t *testing.T) {
	p, h, store := mount(t, buildPath,
		run("a", map[string]string{"app": "foo"}, time.Time{}),
		run("b", map[string]string{"app": "bar"}, time.Time{}),
	)

	p.SetInput("app:foo")
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, buildPath+"?labelSelector=app%3Dfoo", h.Current())
	assert.Equal(t, 2, store.Fetches())

	s := p.Snapshot()
	assert.Equal(t, labelfilter.Set{"app=foo"}, s.Filters)
	assert.Equal(t, []string{"a"}, names(s.Runs))
	assert.Empty(t, s.Input)
	assert.Equal(t, labelfilter.InputIdle, s.InputState)
}

func TestPage_SubmitAppendsToExisting(t *testing.T) {
	p, h, _ := mount(t, buildPath+"?labelSelector=app%3Dfoo")

	p.SetInput("env:prod, tier:web")
	require.NoError(t, p.Submit(context.Background()))

	assert.Equal(t, buildPath+"?labelSelector=app%3Dfoo%2Cenv%3Dprod%2Ctier%3Dweb", h.Current())
	assert.Equal(t, labelfilter.Set{"app=foo", "env=prod", "tier=web"}, p.Snapshot().Filters)
}

func TestPage_SubmitRejected(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "invalid syntax", input: "app=foo", want: labelfilter.ErrInvalidSyntax},
		{name: "duplicate", input: "app:foo", want: labelfilter.ErrDuplicateFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, h, store := mount(t, buildPath+"?labelSelector=app%3Dfoo")

			p.SetInput(tt.input)
			err := p.Submit(context.Background())
			require.ErrorIs(t, err, tt.want)

			assert.Len(t, h.Entries(), 1)
			assert.Equal(t, 1, store.Fetches())

			s := p.Snapshot()
			assert.Equal(t, labelfilter.InputInvalid, s.InputState)
			require.NotNil(t, s.FilterError)
			assert.Equal(t, tt.input, s.Input)

			notes := s.Notifications()
			require.Len(t, notes, 1)
			assert.Equal(t, NotificationError, notes[0].Kind)
		})
	}
}

func TestPage_DismissError(t *testing.T) {
	p, _, _ := mount(t, buildPath)

	p.SetInput("nope")
	require.Error(t, p.Submit(context.Background()))
	require.NotNil(t, p.Snapshot().FilterError)

	p.DismissError()

	s := p.Snapshot()
	assert.Nil(t, s.FilterError)
	assert.Equal(t, labelfilter.InputIdle, s.InputState)
	assert.Empty(t, s.Notifications())
}

func TestPage_ErrorClearedBySuccessfulSubmit(t *testing.T) {
	p, _, _ := mount(t, buildPath)

	p.SetInput("nope")
	require.Error(t, p.Submit(context.Background()))

	p.SetInput("app:foo")
	require.NoError(t, p.Submit(context.Background()))

	assert.Nil(t, p.Snapshot().FilterError)
}

func TestPage_RemoveFilter(t *testing.T) {
	p, h, _ := mount(t, buildPath+"?labelSelector=app%3Dfoo%2Cenv%3Dprod")

	require.NoError(t, p.RemoveFilter(context.Background(), "app=foo"))
	assert.Equal(t, buildPath+"?labelSelector=env%3Dprod", h.Current())
	assert.Equal(t, labelfilter.Set{"env=prod"}, p.Snapshot().Filters)

	require.NoError(t, p.RemoveFilter(context.Background(), "env=prod"))
	assert.Equal(t, buildPath, h.Current())
	assert.Empty(t, p.Snapshot().Filters)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestPage_CreateDialog(t *testing.T) {
	p, _, _ := mount(t, buildPath)

	p.OpenCreate()
	assert.True(t, p.Snapshot().CreateOpen)

	p.CloseCreate()
	assert.False(t, p.Snapshot().CreateOpen)
}

func TestPage_CreateRun(t *testing.T) {
	p, _, store := mount(t, buildPath)
	p.OpenCreate()

	created, err := p.CreateRun(context.Background(), store, pipelinerun.NewOptions{Name: "build-run-abcde"})
	require.NoError(t, err)
	assert.Equal(t, "ci", created.Namespace)
	assert.Equal(t, "build", created.PipelineName)

	s := p.Snapshot()
	assert.False(t, s.CreateOpen)
	require.NotNil(t, s.Created)
	assert.Equal(t, "build-run-abcde", s.Created.Name)
	assert.Equal(t, buildPath+"/build-run-abcde", s.Created.URL)
	assert.Equal(t, []string{"build-run-abcde"}, names(s.Runs))

	notes := s.Notifications()
	require.Len(t, notes, 1)
	assert.Equal(t, NotificationSuccess, notes[0].Kind)
	assert.Equal(t, s.Created.URL, notes[0].Link.URL)
}

func TestPage_CreateRunDuplicate(t *testing.T) {
	p, _, store := mount(t, buildPath, run("build-run-abcde", nil, time.Time{}))

	_, err := p.CreateRun(context.Background(), store, pipelinerun.NewOptions{Name: "build-run-abcde"})
	require.Error(t, err)
	assert.Nil(t, p.Snapshot().Created)
}

func TestPage_NavigationClearsCreated(t *testing.T) {
	p, h, store := mount(t, buildPath)

	_, err := p.CreateRun(context.Background(), store, pipelinerun.NewOptions{Name: "build-run-abcde"})
	require.NoError(t, err)

	require.NoError(t, h.Navigate(context.Background(), "/namespaces/ci/pipelineruns"))
	assert.Nil(t, p.Snapshot().Created)
}

// ---------------------------------------------------------------------------
// Cancel
// ---------------------------------------------------------------------------

func TestPage_CancelRun(t *testing.T) {
	now := time.Now()
	p, _, store := mount(t, buildPath,
		run("build-run-1", nil, now),
		run("build-run-2", nil, now.Add(-time.Minute)),
	)

	cancelled, err := p.CancelRun(context.Background(), store, "build-run-2")
	require.NoError(t, err)
	assert.Equal(t, "ci/build-run-2", cancelled.QualifiedName())
	assert.Equal(t, 2, store.Fetches(), "cancel refreshes the page")

	s := p.Snapshot()
	require.Equal(t, []string{"build-run-1", "build-run-2"}, names(s.Runs))
	assert.NotEqual(t, pipelinerun.StatusCancelled, s.Runs[0].Status)
	assert.Equal(t, pipelinerun.StatusCancelled, s.Runs[1].Status)
}

func TestPage_CancelRunNotListed(t *testing.T) {
	p, _, store := mount(t, buildPath, run("build-run-1", nil, time.Time{}))

	_, err := p.CancelRun(context.Background(), store, "deploy-run-1")
	require.ErrorIs(t, err, source.ErrNotFound)
	assert.Equal(t, 1, store.Fetches())
}

func TestPage_CancelRunAmbiguous(t *testing.T) {
	other := run("build-run-1", nil, time.Time{})
	other.Namespace = "staging"

	p, _, store := mount(t, "/pipelineruns", run("build-run-1", nil, time.Time{}), other)

	_, err := p.CancelRun(context.Background(), store, "build-run-1")
	require.ErrorIs(t, err, ErrAmbiguousRun)
	assert.ErrorContains(t, err, "2 namespaces")
}

func TestPage_CancelRunCompleted(t *testing.T) {
	done := run("build-run-1", nil, time.Time{})
	done.Status = pipelinerun.StatusSucceeded

	p, _, store := mount(t, buildPath, done)

	_, err := p.CancelRun(context.Background(), store, "build-run-1")
	require.ErrorIs(t, err, pipelinerun.ErrCompleted)
	assert.Equal(t, pipelinerun.StatusSucceeded, p.Snapshot().Runs[0].Status)
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// gatedFetcher blocks each fetch until its filter set is released.
type gatedFetcher struct {
	started chan string
	release map[string]chan struct{}
}

func (g *gatedFetcher) Fetch(ctx context.Context, q source.Query) ([]*pipelinerun.Run, error) {
	key := q.Filters.String()
	g.started <- key

	select {
	case <-g.release[key]:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestPage_StaleFetchKeepsLoading(t *testing.T) {
	fetcher := &gatedFetcher{
		started: make(chan string),
		release: map[string]chan struct{}{
			"":        make(chan struct{}),
			"app=foo": make(chan struct{}),
		},
	}

	p := NewPage(fetcher, NewHistory(buildPath), Options{})
	ctx := context.Background()

	first, err := urls.Parse(buildPath)
	require.NoError(t, err)

	second, err := urls.Parse(buildPath + "?labelSelector=app%3Dfoo")
	require.NoError(t, err)

	firstDone := make(chan error, 1)
	go func() { firstDone <- p.Sync(ctx, first) }()
	assert.Equal(t, "", <-fetcher.started)

	secondDone := make(chan error, 1)
	go func() { secondDone <- p.Sync(ctx, second) }()
	assert.Equal(t, "app=foo", <-fetcher.started)

	close(fetcher.release[""])
	require.NoError(t, <-firstDone)
	assert.True(t, p.Snapshot().Loading, "the newer fetch is still running")

	close(fetcher.release["app=foo"])
	require.NoError(t, <-secondDone)
	assert.False(t, p.Snapshot().Loading)
}

type recordingFetcher struct{ last source.Query }

func (r *recordingFetcher) Fetch(_ context.Context, q source.Query) ([]*pipelinerun.Run, error) {
	r.last = q
	return nil, nil
}

func TestPage_StrictLabelsSelectThroughKubernetes(t *testing.T) {
	fetcher := &recordingFetcher{}
	p := NewPage(fetcher, NewHistory(buildPath), Options{StrictLabels: true})

	loc, err := urls.Parse(buildPath + "?labelSelector=app%3Dfoo")
	require.NoError(t, err)
	require.NoError(t, p.Sync(context.Background(), loc))

	assert.True(t, fetcher.last.Strict)
	assert.Equal(t, labelfilter.Set{"app=foo"}, fetcher.last.Filters)
}
