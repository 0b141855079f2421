package board

import (
	"runtime/debug"
	"strconv"
	"time"

	"github.com/brightfield/tboard/internal/coroutine"
	"github.com/brightfield/tboard/internal/history"
	"github.com/brightfield/tboard/internal/queue"
	"github.com/brightfield/tboard/internal/registry"
	"github.com/brightfield/tboard/internal/task"
	"github.com/brightfield/tboard/internal/timer"
)

// suspendedRun is a coroutine parked mid-execution: its task has left the
// run queue but has not finished, and is waiting on one external event
// (a sleep deadline, a remote call's terminal transition) before the
// wake-up path below re-enqueues it.
type suspendedRun struct {
	task *task.Task
	co   *coroutine.Coroutine
}

// resumableRun is a live coroutine that has already been re-enqueued onto
// its origin queue and is waiting for some worker to pop it and continue
// driving it with resumeVal.
type resumableRun struct {
	co        *coroutine.Coroutine
	resumeVal any
}

// runWorker is the executor worker loop for one queue (the primary queue
// when secIdx is -1, a secondary queue otherwise). It runs until the
// queue is closed and fully drained, at which point Pop returns
// ok=false and the loop exits, letting Board.Destroy's WaitGroup
// complete.
func (b *Board) runWorker(kind string, secIdx int, q *queue.Queue[*task.Task]) {
	for {
		t, ok := q.Pop()
		if !ok {
			return
		}
		b.runTask(secIdx, t)
	}
}

// runTask drives one pass of t: either a fresh coroutine run or the
// continuation of one this same task left suspended earlier. A task that
// yields without finishing is parked (not driven further by this
// goroutine) so the worker can go back to popping its queue immediately;
// only a task that runs to completion is recorded to history here.
func (b *Board) runTask(secIdx int, t *task.Task) {
	if _, accepted := b.TryAddConcurrent(); !accepted {
		// Board is at its concurrency ceiling; push back to the tail of
		// the same lane rather than blocking this worker indefinitely.
		_ = b.enqueue(t)
		time.Sleep(time.Millisecond)
		return
	}
	defer func() {
		if _, err := b.ReleaseConcurrent(); err != nil {
			b.log.Error().Err(err).Msg("board: concurrency invariant violated on release")
		}
	}()

	resume, resuming := b.takeResumable(t.ID)

	var co *coroutine.Coroutine
	var resumeVal any
	if resuming {
		co = resume.co
		resumeVal = resume.resumeVal
	} else {
		t.OriginQueue = secIdx
		t.MarkStarted()
		entry, findErr := b.registry.Find(t.FuncName)
		if findErr != nil {
			t.MarkFinished(nil, findErr)
			b.recordTaskOutcome(t, findErr)
			return
		}
		co = coroutine.New(bodyFor(b, entry, t))
	}

	out, finished, suspendReq, err := b.step(co, resumeVal)
	if !finished {
		b.suspend(t, co, suspendReq)
		return
	}

	t.MarkFinished(out, err)
	b.recordTaskOutcome(t, err)
}

func (b *Board) recordTaskOutcome(t *task.Task, err error) {
	b.history.Record(history.Entry{
		Kind:     "task",
		ID:       strconv.FormatInt(t.ID, 10),
		FuncName: t.FuncName,
		Success:  err == nil,
		Detail:   t.Error,
		AtMicros: timer.Now(),
	})
}

// step drives co through exactly one leg: either to completion/failure or
// to its next yield, recovering from panics the way the reference
// executor recovers via a captured stack trace. A value yielded that
// isn't a *task.SuspendRequest (for example, a coroutine reporting
// progress with a plain value) is treated as an ordinary cooperative
// yield.
func (b *Board) step(co *coroutine.Coroutine, resumeVal any) (out any, finished bool, suspendReq *task.SuspendRequest, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r, stack: string(debug.Stack())}
			finished = true
		}
	}()

	yielded, done, resumeErr := co.Resume(resumeVal)
	if done {
		return yielded, true, nil, resumeErr
	}
	if resumeErr != nil {
		return nil, true, nil, resumeErr
	}
	req, ok := yielded.(*task.SuspendRequest)
	if !ok || req == nil {
		req = &task.SuspendRequest{Kind: task.SuspendNone}
	}
	return nil, false, req, nil
}

// suspend parks t according to what its coroutine asked for:
//   - SuspendNone: re-enqueue onto the origin queue right away so another
//     task queued behind it can run (spec step 6).
//   - SuspendSleep: install a timer-wheel entry that re-enqueues t once
//     the deadline passes.
//   - SuspendAwaitCall: park t in the pending remote-call wait table; the
//     call's own terminal transition re-enqueues it (spec step 8) — this
//     is the only path that ever wakes it, so a task can never be
//     re-enqueued twice for the same suspend.
func (b *Board) suspend(t *task.Task, co *coroutine.Coroutine, req *task.SuspendRequest) {
	switch req.Kind {
	case task.SuspendAwaitCall:
		b.runMu.Lock()
		b.callWaiters[req.CallID] = &suspendedRun{task: t, co: co}
		b.runMu.Unlock()

	case task.SuspendSleep:
		b.runMu.Lock()
		b.sleeping[t.ID] = &suspendedRun{task: t, co: co}
		b.runMu.Unlock()
		b.wheel.Add(timer.KindBeginSleep, req.WakeAtMicros, t.ID, func(_ int64, _ timer.Kind, arg any) {
			b.wakeSleeper(arg.(int64))
		})

	default: // task.SuspendNone
		b.runMu.Lock()
		b.resumable[t.ID] = &resumableRun{co: co, resumeVal: nil}
		b.runMu.Unlock()
		_ = b.enqueueOrigin(t)
	}
}

// takeResumable removes and returns the resumable entry for taskID, if
// any. It is consulted the moment a worker pops a task, so a
// re-enqueued-but-already-running coroutine is continued rather than
// restarted.
func (b *Board) takeResumable(taskID int64) (*resumableRun, bool) {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	r, ok := b.resumable[taskID]
	if ok {
		delete(b.resumable, taskID)
	}
	return r, ok
}

// wakeSleeper fires when a SuspendSleep deadline passes: it moves the
// parked task from the sleeping table into resumable and re-enqueues it
// onto its origin queue.
func (b *Board) wakeSleeper(taskID int64) {
	b.runMu.Lock()
	run, ok := b.sleeping[taskID]
	if ok {
		delete(b.sleeping, taskID)
	}
	b.runMu.Unlock()
	if !ok {
		return
	}
	b.runMu.Lock()
	b.resumable[taskID] = &resumableRun{co: run.co, resumeVal: nil}
	b.runMu.Unlock()
	_ = b.enqueueOrigin(run.task)
}

// wakeCallWaiter fires from Board.finalize once a remote call reaches a
// terminal state: it moves the parked task out of callWaiters into
// resumable, handing it the terminal RemoteTask as its resume value, and
// re-enqueues it onto its origin queue. A call issued with no parent task
// (ParentTaskID == 0, or one the admin API drove directly) has no
// waiter registered and this is a no-op.
func (b *Board) wakeCallWaiter(rt *task.RemoteTask) {
	b.runMu.Lock()
	run, ok := b.callWaiters[rt.CallID]
	if ok {
		delete(b.callWaiters, rt.CallID)
	}
	b.runMu.Unlock()
	if !ok {
		return
	}
	b.runMu.Lock()
	b.resumable[run.task.ID] = &resumableRun{co: run.co, resumeVal: rt}
	b.runMu.Unlock()
	_ = b.enqueueOrigin(run.task)
}

// enqueueOrigin re-enqueues t onto the queue it was first picked up from
// (OriginQueue == -1 meaning the primary queue), rather than letting
// Board.enqueue round-robin it onto a different secondary queue.
func (b *Board) enqueueOrigin(t *task.Task) error {
	if t.OriginQueue < 0 || t.OriginQueue >= len(b.secondaries) {
		return b.primary.Push(t)
	}
	return b.secondaries[t.OriginQueue].Push(t)
}

// bodyFor builds the coroutine.Body for a registry entry. A plain Func
// ignores yielding entirely; a CoroutineFunc gets a TaskContext bundling
// the raw yield with this task's id and the board's RemoteCaller surface.
func bodyFor(b *Board, e *registry.Entry, t *task.Task) coroutine.Body {
	if e.CoroutineFn != nil {
		fn := e.CoroutineFn
		return func(yield coroutine.Yield) (any, error) {
			ctx := &task.TaskContext{Yield: yield, TaskID: t.ID, Caller: b}
			return fn(t.Args, ctx)
		}
	}
	fn := e.Fn
	return func(coroutine.Yield) (any, error) {
		return fn(t.Args)
	}
}

type panicError struct {
	value any
	stack string
}

func (p *panicError) Error() string {
	return "board: task panicked: " + toString(p.value)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if e, ok := v.(error); ok {
		return e.Error()
	}
	return "unknown panic"
}
