package solver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/anticaptcha-go/internal/config"
	"github.com/maumercado/anticaptcha-go/internal/events"
	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/metrics"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

func init() {
	logger.Init("error", false)
}

// provider is a scripted anti-captcha API.
type provider struct {
	mu      sync.Mutex
	bodies  map[string][]map[string]any
	results []string
	polls   int
	create  string
	balance string
}

func (p *provider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	method := strings.TrimPrefix(r.URL.Path, "/")

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bodies == nil {
		p.bodies = make(map[string][]map[string]any)
	}
	p.bodies[method] = append(p.bodies[method], body)

	switch method {
	case anticaptcha.MethodGetBalance:
		_, _ = w.Write([]byte(p.balance))
	case anticaptcha.MethodCreateTask:
		_, _ = w.Write([]byte(p.create))
	case anticaptcha.MethodGetTaskResult:
		i := p.polls
		if i >= len(p.results) {
			i = len(p.results) - 1
		}
		p.polls++
		_, _ = w.Write([]byte(p.results[i]))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (p *provider) Bodies(method string) []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bodies[method]
}

func testConfig(url string) *config.Config {
	return &config.Config{
		Client: config.ClientConfig{
			Key:          "test-key",
			SoftID:       847,
			APIURL:       url,
			HTTPTimeout:  5 * time.Second,
			TaskTimeout:  5 * time.Second,
			PollInterval: 5 * time.Millisecond,
		},
		Task: anticaptcha.TaskOptions{Numeric: 1},
	}
}

func newTestSolver(t *testing.T, p *provider) (*Solver, <-chan *events.Event) {
	t.Helper()

	server := httptest.NewServer(p)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	bus := events.NewLocalBus()
	t.Cleanup(func() { _ = bus.Close() })

	ch, err := bus.SubscribeAll(context.Background())
	require.NoError(t, err)

	return New(client, bus), ch
}

func drain(ch <-chan *events.Event) []events.EventType {
	var types []events.EventType
	for {
		select {
		case e := <-ch:
			types = append(types, e.Type)
		default:
			return types
		}
	}
}

func TestSolveImage_WaitsForResult(t *testing.T) {
	p := &provider{
		create: `{"errorId":0,"taskId":7654321}`,
		results: []string{
			`{"errorId":0,"status":"processing"}`,
			`{"errorId":0,"status":"ready","solution":{"text":"deditur","url":"http://example.com/img.jpg"}}`,
		},
	}
	s, ch := newTestSolver(t, p)

	result, err := s.SolveImage(context.Background(), "aW1hZ2U=", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, result.JobID)
	assert.Equal(t, "7654321", result.TaskID.String())
	assert.Equal(t, "deditur", result.Text)
	assert.Contains(t, result.Solution.Fields, "url")
	assert.Equal(t, 2, p.polls)

	created := p.Bodies(anticaptcha.MethodCreateTask)
	require.Len(t, created, 1)
	assert.Equal(t, float64(847), created[0]["softId"])
	task := created[0]["task"].(map[string]any)
	assert.Equal(t, "aW1hZ2U=", task["body"])
	assert.Equal(t, float64(1), task["numeric"])

	assert.Equal(t, []events.EventType{
		events.EventSolveSubmitted,
		events.EventSolveCreated,
		events.EventSolveCompleted,
	}, drain(ch))
}

func TestSolveImage_ReadyOnCreate(t *testing.T) {
	p := &provider{
		create: `{"errorId":0,"taskId":1,"status":"ready","solution":{"text":"now"}}`,
	}
	s, _ := newTestSolver(t, p)

	result, err := s.SolveImage(context.Background(), "aW1hZ2U=", nil)
	require.NoError(t, err)

	assert.Equal(t, "now", result.Text)
	assert.Empty(t, p.Bodies(anticaptcha.MethodGetTaskResult))
}

func TestSolveImage_PerRequestOptions(t *testing.T) {
	p := &provider{
		create: `{"errorId":0,"taskId":1,"status":"ready","solution":{"text":"x"}}`,
	}
	s, _ := newTestSolver(t, p)

	opts := anticaptcha.TaskOptions{Phrase: true, MinLength: 3, Comment: "red letters"}
	_, err := s.SolveImage(context.Background(), "aW1hZ2U=", &opts)
	require.NoError(t, err)

	_, err = s.SolveImage(context.Background(), "aW1hZ2U=", nil)
	require.NoError(t, err)

	created := p.Bodies(anticaptcha.MethodCreateTask)
	require.Len(t, created, 2)

	first := created[0]["task"].(map[string]any)
	assert.Equal(t, true, first["phrase"])
	assert.Equal(t, float64(3), first["minLength"])
	assert.Equal(t, "red letters", first["comment"])
	assert.Equal(t, float64(0), first["numeric"])

	// the shared client keeps its configured options
	second := created[1]["task"].(map[string]any)
	assert.Equal(t, false, second["phrase"])
	assert.Equal(t, float64(1), second["numeric"])
}

func TestSolveImage_APIError(t *testing.T) {
	p := &provider{
		create: `{"errorId":1,"errorCode":"ERROR_KEY_DOES_NOT_EXIST","errorDescription":"Account authorization key not found"}`,
	}
	s, ch := newTestSolver(t, p)

	before := testutil.ToFloat64(metrics.SolvesTotal.WithLabelValues(anticaptcha.TaskTypeImageToText, OutcomeAPIError))

	result, err := s.SolveImage(context.Background(), "aW1hZ2U=", nil)
	assert.Nil(t, result)
	require.Error(t, err)

	var apiErr *anticaptcha.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ERROR_KEY_DOES_NOT_EXIST", apiErr.Code)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SolvesTotal.WithLabelValues(anticaptcha.TaskTypeImageToText, OutcomeAPIError)))
	assert.Equal(t, []events.EventType{events.EventSolveSubmitted, events.EventSolveFailed}, drain(ch))
}

func TestSolveImage_BadStatus(t *testing.T) {
	p := &provider{
		create:  `{"errorId":0,"taskId":5}`,
		results: []string{`{"errorId":0,"status":"failed"}`},
	}
	s, ch := newTestSolver(t, p)

	_, err := s.SolveImage(context.Background(), "aW1hZ2U=", nil)
	assert.ErrorIs(t, err, anticaptcha.ErrBadStatus)
	assert.Equal(t, []events.EventType{
		events.EventSolveSubmitted,
		events.EventSolveCreated,
		events.EventSolveFailed,
	}, drain(ch))
}

func TestSolveImage_NilPublisher(t *testing.T) {
	p := &provider{
		create: `{"errorId":0,"taskId":1,"status":"ready","solution":{"text":"x"}}`,
	}
	server := httptest.NewServer(p)
	defer server.Close()

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)

	result, err := New(client, nil).SolveImage(context.Background(), "aW1hZ2U=", nil)
	require.NoError(t, err)
	assert.Equal(t, "x", result.Text)
}

func TestBalance(t *testing.T) {
	p := &provider{balance: `{"errorId":0,"balance":12.5}`}
	s, ch := newTestSolver(t, p)

	balance, err := s.Balance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12.5, balance)
	assert.Equal(t, 12.5, testutil.ToFloat64(metrics.Balance))
	assert.Equal(t, []events.EventType{events.EventBalance}, drain(ch))
	assert.Equal(t, "test-key", p.Bodies(anticaptcha.MethodGetBalance)[0]["clientKey"])
}

func TestTaskResult(t *testing.T) {
	p := &provider{results: []string{`{"errorId":0,"status":"processing"}`}}
	s, _ := newTestSolver(t, p)

	result, err := s.TaskResult(context.Background(), anticaptcha.ParseTaskID("42"))
	require.NoError(t, err)
	assert.Equal(t, anticaptcha.StatusProcessing, result.Status)
	assert.Nil(t, result.Solution)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil", nil, "ready"},
		{"timeout", &anticaptcha.TimeoutError{}, "timed_out"},
		{"bad status", &anticaptcha.BadStatusError{Status: "failed"}, "bad_status"},
		{"api", &anticaptcha.APIError{Code: "ERROR_ZERO_BALANCE"}, OutcomeAPIError},
		{"no solution", &anticaptcha.NoSolutionError{}, OutcomeNoSolution},
		{"transport", &anticaptcha.TransportError{StatusCode: 500}, OutcomeTransportError},
		{"canceled", &anticaptcha.TransportError{Err: context.Canceled}, OutcomeCanceled},
		{"wrapped", fmt.Errorf("solve: %w", &anticaptcha.TimeoutError{}), "timed_out"},
		{"other", errors.New("boom"), OutcomeError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Outcome(tc.err))
		})
	}
}

func TestNewClient_Errors(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Client.Key = ""
	_, err := NewClient(cfg)
	assert.Error(t, err)

	cfg = testConfig("http://localhost:1")
	cfg.Client.CAFile = filepath.Join(t.TempDir(), "missing.pem")
	_, err = NewClient(cfg)
	assert.ErrorContains(t, err, "failed to read CA file")

	bogus := filepath.Join(t.TempDir(), "bogus.pem")
	require.NoError(t, os.WriteFile(bogus, []byte("not a certificate"), 0644))
	cfg = testConfig("http://localhost:1")
	cfg.Client.CAFile = bogus
	_, err = NewClient(cfg)
	assert.ErrorContains(t, err, "no certificates found")
}

func TestNewClient_UsesConfiguredTaskOptions(t *testing.T) {
	cfg := testConfig("http://localhost:1")
	cfg.Task = anticaptcha.TaskOptions{Case: true, MaxLength: 8}

	client, err := NewClient(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Task, client.TaskOptions())
}
