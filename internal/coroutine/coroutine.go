// Package coroutine implements the task board's cooperative, stackful-style
// coroutine: a unit of execution that can only ever be suspended at a
// yield call it makes itself, and can only ever be resumed by the single
// worker that is driving it. There is no arbitrary suspension point and no
// way for a second goroutine to observe a coroutine as runnable while its
// owning worker still holds it.
package coroutine

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Yield is handed to a coroutine's Body. Calling it suspends the
// coroutine and hands val to whichever worker is waiting on Resume; the
// call does not return until that same worker calls Resume again, at
// which point it returns the worker's resume value.
type Yield func(val any) any

// Body is the function a coroutine runs. It receives its Yield handle and
// returns a final result (or error) when it completes.
type Body func(yield Yield) (any, error)

// State is a coroutine's lifecycle state.
type State int

const (
	StateReady State = iota
	StateRunning
	StateSuspended
	StateDone
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ErrAlreadyDone is returned by Resume once the coroutine has finished.
var ErrAlreadyDone = errors.New("coroutine: already done")

type yieldMsg struct {
	val      any
	err      error
	finished bool
}

// Coroutine is one instance of a running Body. A zero-value Coroutine is
// not usable; construct with New.
type Coroutine struct {
	ID string

	mu    sync.Mutex
	state State

	resumeCh chan any
	yieldCh  chan yieldMsg
	started  bool
	body     Body
}

// New constructs a Coroutine around body. The coroutine does not begin
// running until the first call to Resume.
func New(body Body) *Coroutine {
	return &Coroutine{
		ID:       uuid.NewString(),
		state:    StateReady,
		resumeCh: make(chan any),
		yieldCh:  make(chan yieldMsg),
		body:     body,
	}
}

func (c *Coroutine) run() {
	defer func() {
		if r := recover(); r != nil {
			c.yieldCh <- yieldMsg{err: fmt.Errorf("coroutine: panic: %v", r), finished: true}
		}
	}()
	result, err := c.body(func(val any) any {
		c.yieldCh <- yieldMsg{val: val}
		return <-c.resumeCh
	})
	c.yieldCh <- yieldMsg{val: result, err: err, finished: true}
}

// Resume starts the coroutine (on the first call) or hands resumeVal to a
// coroutine blocked in Yield, then blocks until the coroutine yields again
// or finishes. finished is true once the coroutine's Body has returned;
// after that, further calls to Resume return ErrAlreadyDone.
func (c *Coroutine) Resume(resumeVal any) (out any, finished bool, err error) {
	c.mu.Lock()
	if c.state == StateDone {
		c.mu.Unlock()
		return nil, true, ErrAlreadyDone
	}
	first := !c.started
	c.started = true
	c.state = StateRunning
	c.mu.Unlock()

	if first {
		go c.run()
	} else {
		c.resumeCh <- resumeVal
	}

	msg := <-c.yieldCh

	c.mu.Lock()
	if msg.finished {
		c.state = StateDone
	} else {
		c.state = StateSuspended
	}
	c.mu.Unlock()

	return msg.val, msg.finished, msg.err
}

// State returns the coroutine's current lifecycle state.
func (c *Coroutine) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
