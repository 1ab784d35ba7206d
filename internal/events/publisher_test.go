package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Constants(t *testing.T) {
	assert.Equal(t, EventType("solve.submitted"), EventSolveSubmitted)
	assert.Equal(t, EventType("solve.created"), EventSolveCreated)
	assert.Equal(t, EventType("solve.completed"), EventSolveCompleted)
	assert.Equal(t, EventType("solve.failed"), EventSolveFailed)
	assert.Equal(t, EventType("account.balance"), EventBalance)
	assert.Len(t, AllEventTypes, 5)
}

func TestNewEvent(t *testing.T) {
	data := map[string]any{
		"job_id": "job-123",
		"type":   "ImageToTextTask",
	}

	event := NewEvent(EventSolveSubmitted, data)

	assert.Equal(t, EventSolveSubmitted, event.Type)
	assert.Equal(t, data, event.Data)
	assert.WithinDuration(t, time.Now(), event.Timestamp, time.Second)
}

func TestEvent_ToJSON(t *testing.T) {
	event := &Event{
		Type:      EventSolveCompleted,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Data: map[string]any{
			"job_id": "job-456",
			"text":   "deditur",
		},
	}

	data, err := event.ToJSON()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "solve.completed", parsed["type"])
	assert.Equal(t, "2024-01-15T10:30:00Z", parsed["timestamp"])
	assert.NotNil(t, parsed["data"])
}

func TestFromJSON(t *testing.T) {
	jsonData := `{
		"type": "solve.failed",
		"timestamp": "2024-01-15T10:30:00Z",
		"data": {"job_id": "job-789", "error": "resolve captcha timed out"}
	}`

	event, err := FromJSON([]byte(jsonData))
	require.NoError(t, err)

	assert.Equal(t, EventSolveFailed, event.Type)
	assert.Equal(t, "job-789", event.Data["job_id"])
	assert.Equal(t, "resolve captcha timed out", event.Data["error"])
}

func TestFromJSON_Invalid(t *testing.T) {
	_, err := FromJSON([]byte("invalid json"))
	assert.Error(t, err)
}

func TestSolveEventData(t *testing.T) {
	data := SolveEventData("job-123", "ImageToTextTask", map[string]any{
		"task_id": "7654321",
		"outcome": "ready",
	})

	assert.Equal(t, "job-123", data["job_id"])
	assert.Equal(t, "ImageToTextTask", data["type"])
	assert.Equal(t, "7654321", data["task_id"])
	assert.Equal(t, "ready", data["outcome"])
}

func TestSolveEventData_NoExtra(t *testing.T) {
	data := SolveEventData("job-456", "ImageToTextTask", nil)
	assert.Len(t, data, 2)
}

func TestBalanceEventData(t *testing.T) {
	data := BalanceEventData(3.5)
	assert.Equal(t, 3.5, data["balance"])
}
