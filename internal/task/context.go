package task

import (
	"context"
	"fmt"
	"time"

	"github.com/brightfield/tboard/internal/coroutine"
)

// SuspendKind distinguishes what a coroutine's yield is asking its
// driving worker for, so the worker knows whether to hand the task
// straight back to its origin queue or park it until an external event
// wakes it.
type SuspendKind int

const (
	// SuspendNone is a plain cooperative yield: re-enqueue the task onto
	// its origin queue immediately so another task queued behind it gets
	// a turn, then resume this one (with a nil resume value) the next
	// time a worker pops it.
	SuspendNone SuspendKind = iota
	// SuspendAwaitCall parks the task in the pending remote-call table
	// instead of re-enqueueing it; the call's own terminal transition is
	// what re-enqueues the task, carrying the resolved RemoteTask as the
	// resume value.
	SuspendAwaitCall
	// SuspendSleep parks the task until WakeAtMicros passes on the timer
	// wheel, which then re-enqueues it.
	SuspendSleep
)

// SuspendRequest is the value a coroutine body yields through its
// TaskContext to ask for anything beyond a plain cooperative hand-off.
type SuspendRequest struct {
	Kind         SuspendKind
	CallID       string // set when Kind == SuspendAwaitCall
	WakeAtMicros int64  // set when Kind == SuspendSleep
}

// RemoteCaller is the subset of the task board a TaskContext needs to
// dispatch a blocking remote call on behalf of the task it belongs to.
type RemoteCaller interface {
	CallRemote(ctx context.Context, parentTaskID int64, funcName string, args any, sideEffect bool, quorum int, timeout time.Duration) (*RemoteTask, error)
}

// TaskContext is handed to a registered coroutine-yielding function in
// place of a raw coroutine.Yield: it carries the task's identity and the
// board's remote-call surface so the function body can cooperatively
// yield, sleep, or block on a remote call without ever tying up the
// worker goroutine driving it.
type TaskContext struct {
	Yield  coroutine.Yield
	TaskID int64
	Caller RemoteCaller
}

// CooperativeYield hands control back to the driving worker so another
// task queued behind this one can run, then resumes once the worker gets
// back around to it.
func (c *TaskContext) CooperativeYield() {
	c.Yield(&SuspendRequest{Kind: SuspendNone})
}

// Sleep suspends the task for d without blocking the worker driving it:
// the board installs a timer-wheel entry that re-enqueues the task once d
// elapses.
func (c *TaskContext) Sleep(d time.Duration) {
	wake := time.Now().UnixMicro() + d.Microseconds()
	c.Yield(&SuspendRequest{Kind: SuspendSleep, WakeAtMicros: wake})
}

// Call issues a blocking remote call: it dispatches the request through
// the context's RemoteCaller, then suspends the task until the call
// reaches a terminal state, returning the call's result. A call that ends
// nak'd, timed out, or failed surfaces as an error rather than a result.
func (c *TaskContext) Call(ctx context.Context, funcName string, args any, sideEffect bool, quorum int, timeout time.Duration) (any, error) {
	rt, err := c.Caller.CallRemote(ctx, c.TaskID, funcName, args, sideEffect, quorum, timeout)
	if err != nil {
		return nil, err
	}
	resumed := c.Yield(&SuspendRequest{Kind: SuspendAwaitCall, CallID: rt.CallID})
	result, ok := resumed.(*RemoteTask)
	if !ok || result == nil {
		return nil, fmt.Errorf("task: call %s: no result on resume", rt.CallID)
	}
	if result.State != CallCompleted {
		return nil, fmt.Errorf("task: call %s ended in state %s: %s", result.CallID, result.State, result.Reason)
	}
	return result.Result, nil
}
