package coroutine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoroutine_RunToCompletion_NoYields(t *testing.T) {
	c := New(func(yield Yield) (any, error) {
		return "done", nil
	})

	out, finished, err := c.Resume(nil)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, "done", out)
	assert.Equal(t, StateDone, c.State())
}

func TestCoroutine_ThreeYields(t *testing.T) {
	c := New(func(yield Yield) (any, error) {
		a := yield(1)
		b := yield(a.(int) + 1)
		yield(b.(int) + 1)
		return "complete", nil
	})

	out, finished, err := c.Resume(nil)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, 1, out)
	assert.Equal(t, StateSuspended, c.State())

	out, finished, err = c.Resume(10)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, 11, out)

	out, finished, err = c.Resume(20)
	require.NoError(t, err)
	assert.False(t, finished)
	assert.Equal(t, 21, out)

	out, finished, err = c.Resume(nil)
	require.NoError(t, err)
	assert.True(t, finished)
	assert.Equal(t, "complete", out)
}

func TestCoroutine_ReturnsError(t *testing.T) {
	wantErr := errors.New("boom")
	c := New(func(yield Yield) (any, error) {
		return nil, wantErr
	})

	_, finished, err := c.Resume(nil)
	assert.True(t, finished)
	assert.ErrorIs(t, err, wantErr)
}

func TestCoroutine_Panic_SurfacesAsError(t *testing.T) {
	c := New(func(yield Yield) (any, error) {
		panic("kaboom")
	})

	_, finished, err := c.Resume(nil)
	assert.True(t, finished)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
	assert.Equal(t, StateDone, c.State())
}

func TestCoroutine_ResumeAfterDone(t *testing.T) {
	c := New(func(yield Yield) (any, error) { return nil, nil })

	_, finished, err := c.Resume(nil)
	require.NoError(t, err)
	require.True(t, finished)

	_, finished, err = c.Resume(nil)
	assert.True(t, finished)
	assert.ErrorIs(t, err, ErrAlreadyDone)
}

func TestCoroutine_HasUniqueID(t *testing.T) {
	a := New(func(yield Yield) (any, error) { return nil, nil })
	b := New(func(yield Yield) (any, error) { return nil, nil })

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateReady, "ready"},
		{StateRunning, "running"},
		{StateSuspended, "suspended"},
		{StateDone, "done"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestCoroutine_InitialState(t *testing.T) {
	c := New(func(yield Yield) (any, error) { return nil, nil })
	assert.Equal(t, StateReady, c.State())
}
