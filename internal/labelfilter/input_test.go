package labelfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputBox_ValidSubmissionClears(t *testing.T) {
	var box InputBox
	assert.Equal(t, InputIdle, box.State())

	box.SetValue("app:foo")
	assert.Equal(t, InputEditing, box.State())

	next, err := box.Submit(Set{})
	require.NoError(t, err)
	assert.Equal(t, Set{"app=foo"}, next)
	assert.Equal(t, InputIdle, box.State())
	assert.Empty(t, box.Value())
	assert.Nil(t, box.Err())
}

func TestInputBox_InvalidKeepsErrorUntilDismissed(t *testing.T) {
	var box InputBox

	box.SetValue("bad filter!!")
	active := Set{"a=1"}

	got, err := box.Submit(active)
	require.ErrorIs(t, err, ErrInvalidSyntax)
	assert.Equal(t, active, got)
	assert.Equal(t, InputInvalid, box.State())
	require.NotNil(t, box.Err())
	assert.Equal(t, KindInvalidSyntax, box.Err().Kind)

	// Typing does not clear the error.
	box.SetValue("bad filter!")
	assert.Equal(t, InputInvalid, box.State())
	assert.NotNil(t, box.Err())

	box.Dismiss()
	assert.Equal(t, InputIdle, box.State())
	assert.Nil(t, box.Err())
	assert.Equal(t, "bad filter!", box.Value(), "dismissal keeps the typed text")
}

func TestInputBox_DuplicateThenSuccessClearsError(t *testing.T) {
	var box InputBox

	box.SetValue("a:1")
	_, err := box.Submit(Set{"a=1"})
	require.ErrorIs(t, err, ErrDuplicateFilter)
	assert.Equal(t, KindDuplicateFilter, box.Err().Kind)

	box.SetValue("b:2")
	next, err := box.Submit(Set{"a=1"})
	require.NoError(t, err)
	assert.Equal(t, Set{"a=1", "b=2"}, next)
	assert.Nil(t, box.Err())
	assert.Equal(t, InputIdle, box.State())
}

func TestInputState_String(t *testing.T) {
	assert.Equal(t, "idle", InputIdle.String())
	assert.Equal(t, "editing", InputEditing.String())
	assert.Equal(t, "invalid", InputInvalid.String())
}

func TestInputBox_Strict(t *testing.T) {
	box := InputBox{Strict: true}

	box.SetValue("a/b/c:d")
	_, err := box.Submit(Set{})
	require.ErrorIs(t, err, ErrInvalidSyntax)
	assert.Equal(t, InputInvalid, box.State())

	lenient := InputBox{}
	lenient.SetValue("a/b/c:d")
	next, err := lenient.Submit(Set{})
	require.NoError(t, err)
	assert.Equal(t, Set{"a/b/c=d"}, next)
}
