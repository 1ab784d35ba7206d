package anticaptcha

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Task result statuses reported by the provider.
const (
	StatusProcessing = "processing"
	StatusReady      = "ready"
)

// TaskID is the provider-assigned task identifier. It remembers whether it
// arrived as a JSON number or string and is sent back the same way.
type TaskID struct {
	value   string
	numeric bool
}

// ParseTaskID converts a textual id, e.g. from a URL or command line.
// Integer ids are encoded as JSON numbers.
func ParseTaskID(s string) TaskID {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TaskID{value: s, numeric: true}
	}
	return TaskID{value: s}
}

// IntTaskID returns a numeric task id.
func IntTaskID(id int64) TaskID {
	return TaskID{value: strconv.FormatInt(id, 10), numeric: true}
}

func (id TaskID) String() string { return id.value }

// IsZero reports whether the id was never set.
func (id TaskID) IsZero() bool { return id.value == "" }

func (id TaskID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}

func (id *TaskID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = TaskID{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = TaskID{value: s}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid task id %s: %w", data, err)
	}
	*id = TaskID{value: n.String(), numeric: true}
	return nil
}

// Solution is the solved payload of a task. Text holds the solved value;
// every field the provider sent, text included, is kept in Fields.
type Solution struct {
	Text   string
	Fields map[string]json.RawMessage
}

func (s *Solution) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	s.Fields = fields
	s.Text = ""
	if raw, ok := fields["text"]; ok {
		if err := json.Unmarshal(raw, &s.Text); err != nil {
			return fmt.Errorf("invalid solution text: %w", err)
		}
	}
	return nil
}

func (s Solution) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Fields)+1)
	for k, v := range s.Fields {
		out[k] = v
	}
	if _, ok := out["text"]; !ok || s.Text != "" {
		text, err := json.Marshal(s.Text)
		if err != nil {
			return nil, err
		}
		out["text"] = text
	}
	return json.Marshal(out)
}

// TaskStats is the accounting the provider reports with a task result.
type TaskStats struct {
	Cost       json.Number `json:"cost,omitempty"`
	IP         string      `json:"ip,omitempty"`
	CreateTime int64       `json:"createTime,omitempty"`
	EndTime    int64       `json:"endTime,omitempty"`
	SolveCount int         `json:"solveCount,omitempty"`
}

// TaskResult is the decoded getTaskResult response.
type TaskResult struct {
	Status   string    `json:"status"`
	Solution *Solution `json:"solution,omitempty"`
	TaskStats
}

// CreateTaskResponse is the decoded createTask response. Status and Solution
// are only set when the provider resolved the task synchronously.
type CreateTaskResponse struct {
	TaskID   TaskID    `json:"taskId"`
	Status   string    `json:"status,omitempty"`
	Solution *Solution `json:"solution,omitempty"`
	TaskStats
}

// Ready reports whether the task was already solved at creation.
func (r *CreateTaskResponse) Ready() bool {
	return r.Status == StatusReady
}

// Result views the creation response as a task result so it can go through
// ExtractSolution.
func (r *CreateTaskResponse) Result() *TaskResult {
	return &TaskResult{Status: r.Status, Solution: r.Solution, TaskStats: r.TaskStats}
}

// ResponseRecord is what the request logger sees of a response.
type ResponseRecord struct {
	StatusCode int    `json:"status,omitempty"`
	Text       string `json:"text,omitempty"`
	Error      string `json:"error,omitempty"`
}

// wire envelopes

type envelope struct {
	ErrorID          *int            `json:"errorId"`
	ErrorCode        json.RawMessage `json:"errorCode,omitempty"`
	ErrorDescription *string         `json:"errorDescription,omitempty"`
}

type balanceRequest struct {
	ClientKey string `json:"clientKey"`
}

type balanceResponse struct {
	Balance float64 `json:"balance"`
}

type createTaskRequest struct {
	ClientKey   string `json:"clientKey"`
	Task        any    `json:"task"`
	SoftID      int    `json:"softId"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

type taskResultRequest struct {
	ClientKey string `json:"clientKey"`
	TaskID    TaskID `json:"taskId"`
}
