// Package task defines the task board's unit-of-work types: the local
// Task bound to a coroutine, and the RemoteTask record tracking an
// outstanding remote call through its delivery state machine.
package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTaskData is returned when a wire payload cannot be decoded
// into a Task.
var ErrInvalidTaskData = errors.New("task: invalid task data")

// Priority selects which of a board's queues a task is pushed onto. The
// board has exactly two lanes: the primary queue and the secondary
// queues, so Priority only distinguishes "must run on the primary queue"
// from "may run on any secondary queue" — which secondary index is a
// board scheduling concern, not a task concern.
type Priority int

const (
	PriorityPrimary Priority = iota
	PrioritySecondary
)

func (p Priority) String() string {
	if p == PriorityPrimary {
		return "primary"
	}
	return "secondary"
}

// ParsePriority parses the wire representation of a Priority, defaulting
// to PrioritySecondary on anything unrecognized.
func ParsePriority(s string) Priority {
	if s == "primary" {
		return PriorityPrimary
	}
	return PrioritySecondary
}

// Task is one unit of local work: a function name to resolve in the
// registry, its argument payload, and the coroutine it runs on once a
// worker picks it up.
type Task struct {
	ID        int64     `json:"id"`
	FuncName  string    `json:"func_name"`
	Args      any       `json:"args,omitempty"`
	Priority  Priority  `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	// OriginQueue is the board queue index this task is bound to once a
	// worker first picks it up: -1 for the primary queue, otherwise a
	// secondary queue index. A task suspended mid-run (cooperative yield,
	// sleep, or a blocking remote call) is re-enqueued here rather than
	// round-robined onto a different secondary queue, preserving the
	// origin-queue ordering the wake-up path relies on.
	OriginQueue int `json:"-"`
}

// New constructs a Task. The board is responsible for allocating
// monotonic ids across its lifetime.
func New(id int64, funcName string, args any, priority Priority) *Task {
	return &Task{
		ID:          id,
		FuncName:    funcName,
		Args:        args,
		Priority:    priority,
		CreatedAt:   time.Now().UTC(),
		OriginQueue: -1,
	}
}

// MarkStarted records the task's start time.
func (t *Task) MarkStarted() {
	now := time.Now().UTC()
	t.StartedAt = &now
}

// MarkFinished records the task's end time and outcome.
func (t *Task) MarkFinished(result any, err error) {
	now := time.Now().UTC()
	t.EndedAt = &now
	t.Result = result
	if err != nil {
		t.Error = err.Error()
	}
}

// ToJSON serializes the task to JSON for wire transport or history
// logging.
func (t *Task) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

// FromJSON deserializes a task previously produced by ToJSON.
func FromJSON(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTaskData, err)
	}
	return &t, nil
}

// NewCallID mints a correlation id for a remote call (the wire "actid").
func NewCallID() string {
	return uuid.NewString()
}
