package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistration(t *testing.T) {
	assert.NotNil(t, TasksSubmitted)
	assert.NotNil(t, TasksCompleted)
	assert.NotNil(t, TaskDuration)

	assert.NotNil(t, QueueDepth)
	assert.NotNil(t, ConcurrentTasks)

	assert.NotNil(t, RemoteCallsSent)
	assert.NotNil(t, RemoteCallState)

	assert.NotNil(t, TimerFires)
	assert.NotNil(t, TimerPending)

	assert.NotNil(t, BridgePublished)
	assert.NotNil(t, BridgeConsumed)
	assert.NotNil(t, BridgeReconnects)

	assert.NotNil(t, HTTPRequestDuration)
	assert.NotNil(t, HTTPRequestsTotal)

	assert.NotNil(t, WebSocketConnections)
	assert.NotNil(t, WebSocketMessages)
}

func TestRecordTaskSubmission(t *testing.T) {
	TasksSubmitted.Reset()

	RecordTaskSubmission("send_email", "primary")
	RecordTaskSubmission("send_email", "primary")
	RecordTaskSubmission("compute", "secondary")
}

func TestRecordTaskCompletion(t *testing.T) {
	TasksCompleted.Reset()
	TaskDuration.Reset()

	RecordTaskCompletion("send_email", "success", 1.5)
	RecordTaskCompletion("send_email", "failed", 0.5)
}

func TestUpdateQueueDepth(t *testing.T) {
	QueueDepth.Reset()

	UpdateQueueDepth("primary", 100)
	UpdateQueueDepth("secondary.0", 50)
	UpdateQueueDepth("secondary.1", 10)
}

func TestSetConcurrentTasks(t *testing.T) {
	SetConcurrentTasks(5)
	SetConcurrentTasks(10)
	SetConcurrentTasks(0)
}

func TestRecordRemoteCallSent(t *testing.T) {
	RemoteCallsSent.Reset()

	RecordRemoteCallSent("compute")
	RecordRemoteCallSent("compute")
}

func TestRecordRemoteCallState(t *testing.T) {
	RemoteCallState.Reset()

	RecordRemoteCallState("acked")
	RecordRemoteCallState("completed")
	RecordRemoteCallState("timed_out")
}

func TestRecordTimerFire(t *testing.T) {
	TimerFires.Reset()

	RecordTimerFire("alarm")
	RecordTimerFire("retry")
}

func TestSetTimerPending(t *testing.T) {
	SetTimerPending(0)
	SetTimerPending(12)
}

func TestRecordBridgePublished(t *testing.T) {
	BridgePublished.Reset()

	RecordBridgePublished("device", "EXEC")
	RecordBridgePublished("fog", "REPLY")
}

func TestRecordBridgeConsumed(t *testing.T) {
	BridgeConsumed.Reset()

	RecordBridgeConsumed("device", "EXEC")
	RecordBridgeConsumed("cloud", "ACK")
}

func TestRecordBridgeReconnect(t *testing.T) {
	RecordBridgeReconnect()
	RecordBridgeReconnect()
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestDuration.Reset()
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("GET", "/admin/board", "200", 0.05)
	RecordHTTPRequest("POST", "/admin/tasks", "201", 0.1)
	RecordHTTPRequest("GET", "/admin/calls/x", "404", 0.01)
}

func TestSetWebSocketConnections(t *testing.T) {
	SetWebSocketConnections(0)
	SetWebSocketConnections(10)
	SetWebSocketConnections(5)
}

func TestRecordWebSocketMessage(t *testing.T) {
	WebSocketMessages.Reset()

	RecordWebSocketMessage("task.submitted")
	RecordWebSocketMessage("call.completed")
}
