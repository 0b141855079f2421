// Package board implements the task board: the component that owns a
// primary and N secondary FIFO queues, one worker per queue, the timer
// wheel, the function registry, the pending remote-task table, and the
// bounded history log, and drives them all through a single create,
// start, kill, destroy lifecycle.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/brightfield/tboard/internal/bridge"
	"github.com/brightfield/tboard/internal/history"
	"github.com/brightfield/tboard/internal/queue"
	"github.com/brightfield/tboard/internal/registry"
	"github.com/brightfield/tboard/internal/task"
	"github.com/brightfield/tboard/internal/timer"
)

// MaxSecondaries bounds the number of secondary queues a board may own,
// matching the reference implementation's compile-time ceiling.
const MaxSecondaries = 32

// ErrTooManySecondaries is returned by New when cfg.Secondaries exceeds
// MaxSecondaries.
var ErrTooManySecondaries = errors.New("board: secondaries exceeds MaxSecondaries")

// ErrConcurrencyInvariant is returned when the board's concurrency
// counter would go negative. The reference implementation only logs this
// case in debug builds and continues; this port treats it as the
// invariant violation it is.
var ErrConcurrencyInvariant = errors.New("board: concurrency counter invariant violated")

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("board: already started")

// Config configures a new Board.
type Config struct {
	Secondaries    int
	MaxTasks       int
	HistorySize    int
	QueueCapacity  int // 0 means unbounded
	Log            zerolog.Logger
}

// Board is the task board. A zero-value Board is not usable; construct
// with New.
type Board struct {
	cfg Config

	primary     *queue.Queue[*task.Task]
	secondaries []*queue.Queue[*task.Task]
	nextSecIdx  uint64

	wheel    *timer.Wheel
	registry *registry.Registry
	history  *history.Log

	concMu     sync.Mutex
	concurrent int

	pendingMu       sync.Mutex
	pendingByCallID map[string]*task.RemoteTask
	pendingByActArg map[string]*task.RemoteTask

	// runMu guards the three suspension tables a yielding task's coroutine
	// passes through: sleeping/callWaiters hold a parked task+coroutine
	// pair until something external wakes it, and resumable holds the
	// live coroutine + resume value for a task that has already been
	// re-enqueued and is waiting for a worker to pop it again.
	runMu       sync.Mutex
	sleeping    map[int64]*suspendedRun
	callWaiters map[string]*suspendedRun
	resumable   map[int64]*resumableRun

	nextTaskID atomic.Int64

	bridge *bridge.Bridge

	status    atomic.Int32 // 0 created, 1 started
	shutdown  atomic.Bool
	wg        sync.WaitGroup
	stopCh    chan struct{}
	wheelStop chan struct{}

	// destroyOnce guards the teardown sequence so Destroy is idempotent.
	destroyOnce sync.Once
	// killCh is closed by the first Kill call and awaited by Destroy.
	killCh chan struct{}
	killed atomic.Bool

	log zerolog.Logger
}

// New constructs a Board in the "created" state (not yet started).
func New(cfg Config) (*Board, error) {
	if cfg.Secondaries > MaxSecondaries {
		return nil, ErrTooManySecondaries
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 256
	}
	b := &Board{
		cfg:             cfg,
		primary:         queue.New[*task.Task](cfg.QueueCapacity),
		wheel:           timer.New(),
		registry:        registry.New(),
		history:         history.New(cfg.HistorySize),
		pendingByCallID: make(map[string]*task.RemoteTask),
		pendingByActArg: make(map[string]*task.RemoteTask),
		sleeping:        make(map[int64]*suspendedRun),
		callWaiters:     make(map[string]*suspendedRun),
		resumable:       make(map[int64]*resumableRun),
		stopCh:          make(chan struct{}),
		wheelStop:       make(chan struct{}),
		killCh:          make(chan struct{}),
		log:             cfg.Log,
	}
	for i := 0; i < cfg.Secondaries; i++ {
		b.secondaries = append(b.secondaries, queue.New[*task.Task](cfg.QueueCapacity))
	}
	return b, nil
}

// Registry exposes the board's function registry for registration at
// startup.
func (b *Board) Registry() *registry.Registry { return b.registry }

// History exposes the board's bounded execution log for diagnostics.
func (b *Board) History() *history.Log { return b.history }

// AttachBridge wires a bridge.Bridge to this board's local-enqueue and
// pending-resolve surfaces. It must be called before Start.
func (b *Board) AttachBridge(br *bridge.Bridge) { b.bridge = br }

// Start spawns the primary worker, one worker per secondary queue, and
// the timer wheel's maintenance goroutine. It returns ErrAlreadyStarted
// if called more than once, matching the reference implementation's
// status-guarded tboard_start.
func (b *Board) Start(ctx context.Context) error {
	if !b.status.CompareAndSwap(0, 1) {
		return ErrAlreadyStarted
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.runWorker("primary", -1, b.primary)
	}()

	for i, q := range b.secondaries {
		i, q := i, q
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.runWorker("secondary", i, q)
		}()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.wheel.Run(b.wheelStop)
	}()

	if b.bridge != nil {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.bridge.Run(ctx)
		}()
	}

	return nil
}

// Kill signals every worker and the timer wheel to stop, closing each
// queue so blocked Pop calls wake with ok=false. It is idempotent: only
// the first call has any effect, matching tboard_kill's
// already-shutting-down check.
func (b *Board) Kill() bool {
	if !b.killed.CompareAndSwap(false, true) {
		return false
	}
	b.shutdown.Store(true)
	b.primary.Close()
	for _, q := range b.secondaries {
		q.Close()
	}
	close(b.wheelStop)
	close(b.killCh)
	return true
}

// Destroy waits for every worker to exit, then drains and discards
// whatever remained queued. It is idempotent and safe to call without a
// prior Kill (it kills first). Destroy follows the reference
// implementation's lock ordering conceptually: queues are drained before
// history. The registry is left as it is.
func (b *Board) Destroy() {
	b.destroyOnce.Do(func() {
		b.Kill()
		b.wg.Wait()
		b.primary.Drain()
		for _, q := range b.secondaries {
			q.Drain()
		}
		b.history.Drain()
	})
}

// Wait blocks until Kill has been called.
func (b *Board) Wait() {
	<-b.killCh
}

// nextID allocates a monotonically increasing task id.
func (b *Board) nextID() int64 {
	return b.nextTaskID.Add(1)
}

// Submit resolves funcName in the registry and pushes a new Task onto the
// primary queue (priority == PriorityPrimary) or a round-robin secondary
// queue (priority == PrioritySecondary; the primary queue when the board
// has no secondary queues).
func (b *Board) Submit(funcName string, args any, priority task.Priority) (*task.Task, error) {
	if _, err := b.registry.Find(funcName); err != nil {
		return nil, err
	}
	t := task.New(b.nextID(), funcName, args, priority)
	if err := b.enqueue(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (b *Board) enqueue(t *task.Task) error {
	if t.Priority == task.PriorityPrimary || len(b.secondaries) == 0 {
		return b.primary.Push(t)
	}
	idx := atomic.AddUint64(&b.nextSecIdx, 1) % uint64(len(b.secondaries))
	return b.secondaries[idx].Push(t)
}

// EnqueueRemote implements bridge.LocalEnqueuer: inbound requests from
// the messaging fabric land on a round-robin secondary queue, so
// locally-submitted work on the primary queue is not starved by remote
// traffic. A board with no secondary queues puts them on the primary
// queue instead.
func (b *Board) EnqueueRemote(t *task.Task) error {
	t.ID = b.nextID()
	t.Priority = task.PrioritySecondary
	return b.enqueue(t)
}

// TryAddConcurrent attempts to reserve one unit of the board's
// concurrency budget. It refuses (returns false) without blocking if
// MaxTasks is already reached; MaxTasks <= 0 means unbounded.
func (b *Board) TryAddConcurrent() (int, bool) {
	b.concMu.Lock()
	defer b.concMu.Unlock()
	if b.cfg.MaxTasks > 0 && b.concurrent >= b.cfg.MaxTasks {
		return b.concurrent, false
	}
	b.concurrent++
	return b.concurrent, true
}

// ReleaseConcurrent releases one unit of the board's concurrency budget.
// It returns ErrConcurrencyInvariant if the counter would go negative,
// the condition the reference implementation only logged in debug
// builds.
func (b *Board) ReleaseConcurrent() (int, error) {
	b.concMu.Lock()
	defer b.concMu.Unlock()
	if b.concurrent <= 0 {
		return b.concurrent, ErrConcurrencyInvariant
	}
	b.concurrent--
	return b.concurrent, nil
}

// ConcurrentCount returns the current concurrency counter value.
func (b *Board) ConcurrentCount() int {
	b.concMu.Lock()
	defer b.concMu.Unlock()
	return b.concurrent
}

// QueueDepths returns the current length of the primary queue and each
// secondary queue, for diagnostics.
func (b *Board) QueueDepths() (primary int, secondaries []int) {
	primary = b.primary.Len()
	for _, q := range b.secondaries {
		secondaries = append(secondaries, q.Len())
	}
	return primary, secondaries
}

// PendingCalls returns a snapshot of every remote call still tracked in
// the pending table, for diagnostics.
func (b *Board) PendingCalls() []*task.RemoteTask {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	out := make([]*task.RemoteTask, 0, len(b.pendingByCallID))
	for _, rt := range b.pendingByCallID {
		out = append(out, rt)
	}
	return out
}

// CallRemote issues a remote call: it publishes a request command via the
// attached bridge and registers a RemoteTask in the pending table keyed
// by callID, installing a timeout entry on the timer wheel. parentTaskID
// is the id of the local Task the call was issued on behalf of, or 0 if
// issued with no parent task (for example, from the admin API); it
// implements task.RemoteCaller so a TaskContext can drive it directly.
func (b *Board) CallRemote(ctx context.Context, parentTaskID int64, funcName string, args any, sideEffect bool, quorum int, timeout time.Duration) (*task.RemoteTask, error) {
	if b.bridge == nil {
		return nil, fmt.Errorf("board: no bridge attached")
	}
	callID := task.NewCallID()
	rt := task.NewRemoteTask(callID, funcName, args, sideEffect, quorum)
	rt.ParentTaskID = parentTaskID

	b.pendingMu.Lock()
	b.pendingByCallID[callID] = rt
	b.pendingByActArg[callID] = rt
	b.pendingMu.Unlock()

	cmd := &bridge.Command{Cmd: bridge.CmdRexecAsy, ActID: callID, ActArg: callID, ActName: funcName, Payload: args}
	if quorum > 1 {
		cmd.Cmd = bridge.CmdRexecSyn
	}
	if err := b.bridge.Dispatch(ctx, cmd); err != nil {
		b.pendingMu.Lock()
		delete(b.pendingByCallID, callID)
		delete(b.pendingByActArg, callID)
		b.pendingMu.Unlock()
		return nil, err
	}

	if timeout > 0 {
		deadline := timer.Now() + timeout.Microseconds()
		rt.TimerID = b.wheel.Add(timer.KindRexecTimeout, deadline, callID, func(_ int64, _ timer.Kind, arg any) {
			id := arg.(string)
			_ = b.timeoutCall(id)
		})
	}

	return rt, nil
}

func (b *Board) timeoutCall(callID string) error {
	b.pendingMu.Lock()
	rt, ok := b.pendingByCallID[callID]
	b.pendingMu.Unlock()
	if !ok {
		return nil
	}
	if rt.State.IsTerminal() {
		return nil
	}
	sm := task.NewCallStateMachine(rt)
	if err := sm.TimeOut(); err != nil {
		return err
	}
	return b.finalize(rt, sm.Fail("REXEC_TIMEOUT"))
}

// ResolveByCallID implements bridge.PendingResolver.
func (b *Board) ResolveByCallID(callID string) (*task.RemoteTask, bool) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	rt, ok := b.pendingByCallID[callID]
	return rt, ok
}

// ResolveByActArg implements bridge.PendingResolver.
func (b *Board) ResolveByActArg(actarg string) (*task.RemoteTask, bool) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	rt, ok := b.pendingByActArg[actarg]
	return rt, ok
}

// Ack implements bridge.PendingResolver. A duplicate ack arriving for a
// call already in a terminal state is a no-op, not an error surfaced to
// the caller beyond the returned error value for logging.
func (b *Board) Ack(callID string) error {
	rt, ok := b.lookupActive(callID)
	if !ok {
		return fmt.Errorf("board: no active call %q", callID)
	}
	rt.AckedBy++
	if !rt.QuorumSatisfied() {
		return nil
	}
	return task.NewCallStateMachine(rt).Ack()
}

// Nak implements bridge.PendingResolver.
func (b *Board) Nak(callID, reason string) error {
	rt, ok := b.lookupActive(callID)
	if !ok {
		return fmt.Errorf("board: no active call %q", callID)
	}
	if err := task.NewCallStateMachine(rt).Nak(reason); err != nil {
		return err
	}
	return b.finalize(rt, task.NewCallStateMachine(rt).Fail(reason))
}

// Complete implements bridge.PendingResolver.
func (b *Board) Complete(callID string, result any) error {
	rt, ok := b.lookupActive(callID)
	if !ok {
		return fmt.Errorf("board: no active call %q", callID)
	}
	err := task.NewCallStateMachine(rt).Complete(result)
	return b.finalize(rt, err)
}

// Fail implements bridge.PendingResolver.
func (b *Board) Fail(callID, reason string) error {
	rt, ok := b.lookupActive(callID)
	if !ok {
		return fmt.Errorf("board: no active call %q", callID)
	}
	return b.finalize(rt, task.NewCallStateMachine(rt).Fail(reason))
}

func (b *Board) lookupActive(callID string) (*task.RemoteTask, bool) {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	rt, ok := b.pendingByCallID[callID]
	if !ok || rt.State.IsTerminal() {
		return nil, false
	}
	return rt, true
}

func (b *Board) finalize(rt *task.RemoteTask, transitionErr error) error {
	if transitionErr != nil {
		return transitionErr
	}
	if !rt.State.IsTerminal() {
		return nil
	}
	if rt.TimerID != 0 {
		b.wheel.Cancel(rt.TimerID)
	}
	b.pendingMu.Lock()
	delete(b.pendingByCallID, rt.CallID)
	delete(b.pendingByActArg, rt.CallID)
	b.pendingMu.Unlock()
	b.history.Record(history.Entry{
		Kind:     "remote_call",
		ID:       rt.CallID,
		FuncName: rt.FuncName,
		Success:  rt.State == task.CallCompleted,
		Detail:   rt.Reason,
		AtMicros: timer.Now(),
	})
	b.wakeCallWaiter(rt)
	return nil
}
