package queue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_PushPop_FIFO(t *testing.T) {
	q := New[int](0)

	require.NoError(t, q.Push(1))
	require.NoError(t, q.Push(2))
	require.NoError(t, q.Push(3))

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestQueue_TryPop_Empty(t *testing.T) {
	q := New[string](0)

	_, ok := q.TryPop()
	assert.False(t, ok)
}

func TestQueue_TryPop_Available(t *testing.T) {
	q := New[string](0)
	require.NoError(t, q.Push("a"))

	got, ok := q.TryPop()
	require.True(t, ok)
	assert.Equal(t, "a", got)
}

func TestQueue_Len(t *testing.T) {
	q := New[int](0)
	assert.Equal(t, 0, q.Len())

	q.Push(1)
	q.Push(2)
	assert.Equal(t, 2, q.Len())

	q.Pop()
	assert.Equal(t, 1, q.Len())
}

func TestQueue_BoundedPush_Blocks(t *testing.T) {
	q := New[int](1)
	require.NoError(t, q.Push(1))

	pushed := make(chan struct{})
	go func() {
		q.Push(2)
		close(pushed)
	}()

	select {
	case <-pushed:
		t.Fatal("push should have blocked while queue is at capacity")
	case <-time.After(50 * time.Millisecond):
	}

	_, ok := q.Pop()
	require.True(t, ok)

	select {
	case <-pushed:
	case <-time.After(time.Second):
		t.Fatal("push should have unblocked after a slot freed up")
	}
}

func TestQueue_Pop_BlocksUntilPush(t *testing.T) {
	q := New[int](0)

	type result struct {
		val int
		ok  bool
	}
	resCh := make(chan result, 1)
	go func() {
		v, ok := q.Pop()
		resCh <- result{v, ok}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Push(42))

	select {
	case r := <-resCh:
		assert.True(t, r.ok)
		assert.Equal(t, 42, r.val)
	case <-time.After(time.Second):
		t.Fatal("pop never returned")
	}
}

func TestQueue_Close_WakesBlockedPop(t *testing.T) {
	q := New[int](0)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("pop never woke up after close")
	}
}

func TestQueue_Close_RejectsPush(t *testing.T) {
	q := New[int](0)
	q.Close()

	err := q.Push(1)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestQueue_Close_Idempotent(t *testing.T) {
	q := New[int](0)
	q.Close()
	q.Close()
}

func TestQueue_Close_DoesNotDropPending(t *testing.T) {
	q := New[int](0)
	require.NoError(t, q.Push(1))
	q.Close()

	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestQueue_Drain(t *testing.T) {
	q := New[int](0)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	items := q.Drain()
	assert.Equal(t, []int{1, 2, 3}, items)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ConcurrentPushPop(t *testing.T) {
	q := New[int](4)
	const n = 200

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			require.NoError(t, q.Push(i))
		}
	}()

	sum := 0
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			sum += v
		}
	}()

	wg.Wait()
	assert.Equal(t, n*(n-1)/2, sum)
}
