package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRemoteTask(t *testing.T) {
	rt := NewRemoteTask("call-1", "echo", map[string]any{"k": "v"}, true, 3)

	assert.Equal(t, "call-1", rt.CallID)
	assert.Equal(t, "echo", rt.FuncName)
	assert.True(t, rt.SideEffect)
	assert.Equal(t, 3, rt.Quorum)
	assert.Equal(t, 0, rt.AckedBy)
	assert.Equal(t, CallSent, rt.State)
	assert.False(t, rt.CreatedAt.IsZero())
}

func TestRemoteTask_QuorumSatisfied(t *testing.T) {
	tests := []struct {
		name    string
		quorum  int
		ackedBy int
		want    bool
	}{
		{"no quorum, zero acks", 0, 0, false},
		{"no quorum, one ack", 1, 1, true},
		{"quorum <=1 resolves on first ack", 0, 1, true},
		{"quorum 3, below threshold", 3, 2, false},
		{"quorum 3, at threshold", 3, 3, true},
		{"quorum 3, above threshold", 3, 4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRemoteTask("call", "f", nil, false, tt.quorum)
			rt.AckedBy = tt.ackedBy
			assert.Equal(t, tt.want, rt.QuorumSatisfied())
		})
	}
}
