// Package events implements the board lifecycle event bus that feeds the
// admin WebSocket hub: task scheduled/started/finished, remote-call state
// transitions, and timer fires.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Task events
	EventTaskSubmitted EventType = "task.submitted"
	EventTaskStarted   EventType = "task.started"
	EventTaskCompleted EventType = "task.completed"
	EventTaskFailed    EventType = "task.failed"

	// Remote call events
	EventCallSent      EventType = "call.sent"
	EventCallAcked     EventType = "call.acked"
	EventCallNak       EventType = "call.nak"
	EventCallTimedOut  EventType = "call.timed_out"
	EventCallCompleted EventType = "call.completed"
	EventCallFailed    EventType = "call.failed"

	// Board/system events
	EventBoardStarted EventType = "board.started"
	EventBoardKilled  EventType = "board.killed"
	EventQueueDepth   EventType = "queue.depth"
	EventTimerFired   EventType = "timer.fired"
)

// Event represents a system event.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// NewEvent creates a new event.
func NewEvent(eventType EventType, data map[string]interface{}) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ToJSON serializes the event to JSON.
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event from JSON.
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Publisher defines the interface for event publishers.
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Subscribe(ctx context.Context, eventTypes ...EventType) (<-chan *Event, error)
	Close() error
}

// TaskEventData creates event data for task events.
func TaskEventData(taskID, funcName, priority string, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"task_id":  taskID,
		"func":     funcName,
		"priority": priority,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// CallEventData creates event data for remote-call events.
func CallEventData(callID, funcName, state string, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"call_id": callID,
		"func":    funcName,
		"state":   state,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// QueueDepthData creates event data for queue depth events.
func QueueDepthData(depths map[string]int64) map[string]interface{} {
	return map[string]interface{}{
		"depths": depths,
	}
}
