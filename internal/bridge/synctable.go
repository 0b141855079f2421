package bridge

import "sync"

// SyncTable tracks in-flight REXEC-SYN calls that are gated behind a
// quorum condition (a condition naming more than one peer that must
// agree before the call is scheduled). It is the Go translation of the
// reference implementation's "sync task table": REXEC-SYN requests whose
// condition requires more than one respondent accumulate here instead of
// being enqueued straight away.
//
// The actual condition-evaluation policy (what a condition means, how it
// is checked against board state) is out of scope here — SyncTable only
// provides the accumulation mechanics a caller's ConditionEvaluator needs.
type SyncTable struct {
	mu      sync.Mutex
	pending map[string]int // actarg -> count of syn requests seen
}

// NewSyncTable constructs an empty SyncTable.
func NewSyncTable() *SyncTable {
	return &SyncTable{pending: make(map[string]int)}
}

// Insert records one more REXEC-SYN arrival for actarg and returns the
// new count seen so far.
func (t *SyncTable) Insert(actarg string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[actarg]++
	return t.pending[actarg]
}

// Count returns how many REXEC-SYN arrivals have been recorded for
// actarg.
func (t *SyncTable) Count(actarg string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending[actarg]
}

// Clear removes actarg's accumulated count, once its quorum has been
// satisfied and the call has been scheduled.
func (t *SyncTable) Clear(actarg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, actarg)
}

// ConditionEvaluator decides whether a REXEC-SYN/REXEC-ASY command's
// guard condition currently holds, and whether it additionally requires a
// quorum of peers (quorum <= 1 meaning no quorum behavior). This is the
// policy hook the board-level condition logic plugs into; SyncTable and
// the bridge only provide the mechanics around it.
type ConditionEvaluator interface {
	Evaluate(cmd *Command) (ok bool, quorum int)
}

// AlwaysTrue is a ConditionEvaluator that accepts every command
// unconditionally with no quorum requirement, useful as a default and in
// tests.
type AlwaysTrue struct{}

func (AlwaysTrue) Evaluate(*Command) (bool, int) { return true, 1 }
