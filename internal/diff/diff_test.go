package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/runlens/internal/labelfilter"
	"github.com/hupe1980/runlens/internal/render"
)

func side(label string, tokens ...labelfilter.Token) Side {
	return Side{Label: label, Filters: labelfilter.Set(tokens)}
}

func TestFilters(t *testing.T) {
	result, err := Filters(
		side("current", "app=foo", "env=prod"),
		side("proposed", "env=prod", "tier=web"),
	)
	require.NoError(t, err)

	assert.True(t, result.Changed())
	assert.Equal(t, "current", result.From)
	assert.Equal(t, "proposed", result.To)
	assert.Contains(t, result.Unified, "--- current\n+++ proposed\n")
	assert.Contains(t, result.Unified, "-app=foo\n")
	assert.Contains(t, result.Unified, " env=prod\n")
	assert.Contains(t, result.Unified, "+tier=web\n")
	assert.Equal(t, []labelfilter.Token{"tier=web"}, result.Change.Added)
	assert.Equal(t, []labelfilter.Token{"app=foo"}, result.Change.Removed)
}

func TestFilters_Identical(t *testing.T) {
	result, err := Filters(side("a", "app=foo"), side("b", "app=foo"))
	require.NoError(t, err)

	assert.False(t, result.Changed())
	assert.True(t, result.Change.Empty())
}

func TestFilters_Reordered(t *testing.T) {
	result, err := Filters(side("a", "app=foo", "env=prod"), side("b", "env=prod", "app=foo"))
	require.NoError(t, err)

	assert.True(t, result.Changed())
	assert.True(t, result.Change.Empty(), "order does not change the filter set")
}

func TestFilters_FromEmpty(t *testing.T) {
	result, err := Filters(side("a"), side("b", "app=foo"))
	require.NoError(t, err)

	assert.Contains(t, result.Unified, "+app=foo\n")
	assert.Equal(t, []labelfilter.Token{"app=foo"}, result.Change.Added)
}

func TestWrite(t *testing.T) {
	result, err := Filters(side("a", "app=foo"), side("b", "app=bar"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, result, render.PlainStyles()))

	assert.Equal(t, "--- a\n+++ b\n@@ -1 +1 @@\n-app=foo\n+app=bar\n", buf.String())
}

func TestWrite_NoDifferences(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Write(&buf, &Result{}, render.PlainStyles()))
	assert.Equal(t, "No differences found.\n", buf.String())
}
