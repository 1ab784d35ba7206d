package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Solve events
	EventSolveSubmitted EventType = "solve.submitted"
	EventSolveCreated   EventType = "solve.created"
	EventSolveCompleted EventType = "solve.completed"
	EventSolveFailed    EventType = "solve.failed"

	// Account events
	EventBalance EventType = "account.balance"
)

// AllEventTypes lists every event type the gateway emits.
var AllEventTypes = []EventType{
	EventSolveSubmitted,
	EventSolveCreated,
	EventSolveCompleted,
	EventSolveFailed,
	EventBalance,
}

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("publisher closed")

// Event represents a solve lifecycle event
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// NewEvent creates a new event
func NewEvent(eventType EventType, data map[string]any) *Event {
	return &Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// ToJSON serializes the event to JSON
func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event from JSON
func FromJSON(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Publisher defines the interface for event publishers
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	SubscribeAll(ctx context.Context) (<-chan *Event, error)
	Close() error
}

// SolveEventData creates event data for solve events
func SolveEventData(jobID, taskType string, extra map[string]any) map[string]any {
	data := map[string]any{
		"job_id": jobID,
		"type":   taskType,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// BalanceEventData creates event data for balance events
func BalanceEventData(balance float64) map[string]any {
	return map[string]any{
		"balance": balance,
	}
}
