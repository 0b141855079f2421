package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWheel_Add_FiresInDeadlineOrder(t *testing.T) {
	w := New()
	now := Now()

	var mu sync.Mutex
	var order []int64

	w.Add(KindRTClose, now+3000, nil, func(id int64, kind Kind, arg any) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	})
	w.Add(KindRTClose, now+1000, nil, func(id int64, kind Kind, arg any) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	})
	w.Add(KindRTClose, now+2000, nil, func(id int64, kind Kind, arg any) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	})

	for _, cb := range w.Expired(now + 5000) {
		cb()
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, []int64{2, 3, 1}, order)
}

func TestWheel_Expired_AppliesKindBias(t *testing.T) {
	w := New()
	now := Now()

	var fired int32
	w.Add(KindRTSchedule, now+1000, nil, func(id int64, kind Kind, arg any) {
		atomic.AddInt32(&fired, 1)
	})

	// biasMicros[KindRTSchedule] == 1000, so the effective deadline is now.
	cbs := w.Expired(now)
	assert.Len(t, cbs, 1)
}

func TestWheel_Expired_NotYetDue(t *testing.T) {
	w := New()
	now := Now()

	w.Add(KindRTClose, now+10_000_000, nil, func(id int64, kind Kind, arg any) {})

	cbs := w.Expired(now)
	assert.Empty(t, cbs)
	assert.Equal(t, 1, w.Len())
}

func TestWheel_Cancel(t *testing.T) {
	w := New()
	now := Now()

	id := w.Add(KindBeginSleep, now+1000, nil, func(int64, Kind, any) {})
	assert.True(t, w.Cancel(id))
	assert.Equal(t, 0, w.Len())

	cbs := w.Expired(now + 10_000)
	assert.Empty(t, cbs)
}

func TestWheel_Cancel_Idempotent(t *testing.T) {
	w := New()
	id := w.Add(KindBeginSleep, Now()+1000, nil, func(int64, Kind, any) {})

	assert.True(t, w.Cancel(id))
	assert.False(t, w.Cancel(id))
	assert.False(t, w.Cancel(999))
}

func TestWheel_NextDeadline(t *testing.T) {
	w := New()

	_, ok := w.NextDeadline()
	assert.False(t, ok)

	now := Now()
	w.Add(KindRTClose, now+5000, nil, func(int64, Kind, any) {})
	w.Add(KindRTClose, now+1000, nil, func(int64, Kind, any) {})

	deadline, ok := w.NextDeadline()
	require.True(t, ok)
	assert.Equal(t, now+1000, deadline)
}

func TestWheel_Run_FiresOnTick(t *testing.T) {
	w := New()
	stop := make(chan struct{})
	defer close(stop)

	fired := make(chan int64, 1)
	w.Add(KindBeginSleep, Now()+1000, "payload", func(id int64, kind Kind, arg any) {
		fired <- id
	})

	go w.Run(stop)

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
}

func TestWheel_Len(t *testing.T) {
	w := New()
	assert.Equal(t, 0, w.Len())

	now := Now()
	w.Add(KindRTClose, now+1000, nil, func(int64, Kind, any) {})
	w.Add(KindRTClose, now+2000, nil, func(int64, Kind, any) {})
	assert.Equal(t, 2, w.Len())
}
