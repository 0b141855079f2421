package task

import (
	"errors"
	"time"
)

// CallState is the delivery state of an outstanding remote call, tracked
// by the pending remote-task table that the bridge ingress thread
// consults whenever a reply arrives.
type CallState int

const (
	CallSent CallState = iota
	CallAcked
	CallNak
	CallTimedOut
	CallFailed
	CallCompleted
)

func (s CallState) String() string {
	switch s {
	case CallSent:
		return "sent"
	case CallAcked:
		return "acked"
	case CallNak:
		return "nak"
	case CallTimedOut:
		return "timed_out"
	case CallFailed:
		return "failed"
	case CallCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether s is one from which no further transition is
// possible. A message arriving for a call already in a terminal state is
// a duplicate and must be treated as a no-op, not re-applied.
func (s CallState) IsTerminal() bool {
	return s == CallCompleted || s == CallFailed
}

// ErrInvalidTransition is returned when a transition is not permitted
// from the call's current state.
var ErrInvalidTransition = errors.New("task: invalid call state transition")

// ValidCallTransitions enumerates the remote-call delivery state machine:
// sent -> {acked, nak, timed_out, failed} -> completed. Once in a
// terminal state (completed, failed) no further transition is valid;
// arrival of a duplicate terminal message must be ignored by the caller,
// not routed through Transition again.
var ValidCallTransitions = map[CallState][]CallState{
	CallSent:      {CallAcked, CallNak, CallTimedOut, CallFailed},
	CallAcked:     {CallCompleted, CallFailed, CallTimedOut},
	CallNak:       {CallFailed},
	CallTimedOut:  {CallFailed},
	CallFailed:    {},
	CallCompleted: {},
}

// CanTransitionTo reports whether s may transition to target.
func (s CallState) CanTransitionTo(target CallState) bool {
	for _, v := range ValidCallTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// CallStateMachine drives one RemoteTask's CallState through
// ValidCallTransitions, stamping timestamps the way the local-task state
// machine this is adapted from stamps StartedAt/CompletedAt.
type CallStateMachine struct {
	rt *RemoteTask
}

// NewCallStateMachine constructs a state machine bound to rt.
func NewCallStateMachine(rt *RemoteTask) *CallStateMachine {
	return &CallStateMachine{rt: rt}
}

// Transition attempts to move the call to target, returning
// ErrInvalidTransition if the move is not permitted. Calling Transition
// with the call already in a terminal state is always invalid, whether or
// not target equals the current state — duplicate terminal messages must
// be detected by the caller via IsTerminal before calling Transition.
func (sm *CallStateMachine) Transition(target CallState) error {
	if !sm.rt.State.CanTransitionTo(target) {
		return ErrInvalidTransition
	}
	sm.rt.State = target
	sm.rt.UpdatedAt = time.Now().UTC()
	if target.IsTerminal() {
		now := time.Now().UTC()
		sm.rt.CompletedAt = &now
	}
	return nil
}

// Ack transitions the call to acked. Ack counting is the caller's job
// (RemoteTask.AckedBy).
func (sm *CallStateMachine) Ack() error {
	return sm.Transition(CallAcked)
}

// Nak transitions the call to nak, recording the reason.
func (sm *CallStateMachine) Nak(reason string) error {
	if err := sm.Transition(CallNak); err != nil {
		return err
	}
	sm.rt.Reason = reason
	return nil
}

// TimeOut transitions the call to timed_out, fired by the timer wheel
// when no reply arrives before the call's deadline.
func (sm *CallStateMachine) TimeOut() error {
	return sm.Transition(CallTimedOut)
}

// Complete transitions the call to completed, recording its result. This
// is the only transition that carries a successful payload.
func (sm *CallStateMachine) Complete(result any) error {
	if err := sm.Transition(CallCompleted); err != nil {
		return err
	}
	sm.rt.Result = result
	return nil
}

// Fail transitions the call to failed, recording the cause. A call may
// reach failed from sent (transport failure), nak, acked (remote error
// after ack), or timed_out (timeout with no late result).
func (sm *CallStateMachine) Fail(reason string) error {
	if err := sm.Transition(CallFailed); err != nil {
		return err
	}
	sm.rt.Reason = reason
	return nil
}
