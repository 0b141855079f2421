package task

import "time"

// RemoteTask is a pending remote call's record: the correlation id a
// reply must carry to resolve it (the wire "actid"), the function and
// arguments sent, and the delivery state tracked by CallStateMachine. The
// task board keeps exactly one RemoteTask per outstanding call in its
// pending table, keyed by CallID, until the call reaches a terminal
// state.
type RemoteTask struct {
	CallID   string `json:"call_id"`
	FuncName string `json:"func_name"`
	Args     any    `json:"args,omitempty"`

	// ParentTaskID is the id of the local Task whose coroutine is parked
	// awaiting this call, or 0 if the call was issued with no parent (for
	// example, from the admin API rather than from inside a running
	// task). Each state transition that reaches a terminal state wakes
	// the parent by re-enqueueing it onto its origin queue.
	ParentTaskID int64 `json:"parent_task_id,omitempty"`

	// Quorum is the number of distinct acks required before the call is
	// considered satisfied, for REXEC-SYN calls guarded by a condition
	// that names multiple peers. Zero or one means no quorum behavior:
	// the first ack (or nak) resolves the call.
	Quorum  int `json:"quorum,omitempty"`
	AckedBy int `json:"acked_by,omitempty"`

	// SideEffect mirrors the registry entry's SideEffect flag at the time
	// the call was issued: a timed-out call to a side-effecting function
	// must not be silently retried, since at-most-once delivery means a
	// retry could double-apply the effect.
	SideEffect bool `json:"side_effect"`

	State  CallState `json:"state"`
	Result any       `json:"result,omitempty"`
	Reason string    `json:"reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// TimerID is the id of the timeout entry installed on the board's
	// timer wheel for this call, so it can be cancelled the moment a
	// terminal reply arrives. Zero means no timer installed.
	TimerID int64 `json:"timer_id,omitempty"`
}

// NewRemoteTask constructs a RemoteTask in the initial "sent" state.
func NewRemoteTask(callID, funcName string, args any, sideEffect bool, quorum int) *RemoteTask {
	now := time.Now().UTC()
	return &RemoteTask{
		CallID:     callID,
		FuncName:   funcName,
		Args:       args,
		Quorum:     quorum,
		SideEffect: sideEffect,
		State:      CallSent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// QuorumSatisfied reports whether enough distinct peers have acked a
// quorum-gated call. Calls with Quorum <= 1 are always satisfied by a
// single ack.
func (rt *RemoteTask) QuorumSatisfied() bool {
	if rt.Quorum <= 1 {
		return rt.AckedBy >= 1
	}
	return rt.AckedBy >= rt.Quorum
}
