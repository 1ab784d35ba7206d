package solver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/maumercado/anticaptcha-go/internal/events"
	"github.com/maumercado/anticaptcha-go/internal/logger"
	"github.com/maumercado/anticaptcha-go/internal/metrics"
	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

// Outcome labels that are not wait states.
const (
	OutcomeAPIError       = "api_error"
	OutcomeTransportError = "transport_error"
	OutcomeNoSolution     = "no_solution"
	OutcomeCanceled       = "canceled"
	OutcomeError          = "error"
)

// Result is a finished solve job.
type Result struct {
	JobID    string                `json:"job_id"`
	TaskID   anticaptcha.TaskID    `json:"task_id"`
	Text     string                `json:"text"`
	Solution *anticaptcha.Solution `json:"solution"`
	Duration time.Duration         `json:"-"`
}

// Solver runs image captcha jobs against the provider, publishing lifecycle
// events and recording metrics for each.
type Solver struct {
	client    *anticaptcha.Client
	publisher events.Publisher
	now       func() time.Time
}

// New creates a solver. A nil publisher disables events.
func New(client *anticaptcha.Client, publisher events.Publisher) *Solver {
	return &Solver{
		client:    client,
		publisher: publisher,
		now:       time.Now,
	}
}

// SolveImage solves a base64 encoded image. When opts is non-nil it
// replaces the client's task options for this job only.
func (s *Solver) SolveImage(ctx context.Context, body string, opts *anticaptcha.TaskOptions) (*Result, error) {
	client := s.client
	if opts != nil {
		client = client.WithTaskOptions(*opts)
	}

	jobID := uuid.NewString()
	log := logger.WithJob(jobID)
	taskType := anticaptcha.TaskTypeImageToText
	start := s.now()

	s.publish(ctx, events.EventSolveSubmitted, events.SolveEventData(jobID, taskType, nil))
	log.Debug().Str("type", taskType).Msg("submitting task")

	created, err := client.CreateImageToTextTask(ctx, body)
	if err != nil {
		return nil, s.fail(ctx, jobID, taskType, start, err)
	}

	s.publish(ctx, events.EventSolveCreated, events.SolveEventData(jobID, taskType, map[string]any{
		"task_id": created.TaskID.String(),
		"ready":   created.Ready(),
	}))
	log.Info().Str("task_id", created.TaskID.String()).Bool("ready", created.Ready()).Msg("task created")

	solution, err := client.Resolve(ctx, created, anticaptcha.WaitLogProcessing(true))
	if err != nil {
		return nil, s.fail(ctx, jobID, taskType, start, err)
	}

	duration := s.now().Sub(start)
	metrics.RecordSolve(taskType, anticaptcha.WaitStateReady.String(), duration)
	s.publish(ctx, events.EventSolveCompleted, events.SolveEventData(jobID, taskType, map[string]any{
		"task_id":  created.TaskID.String(),
		"text":     solution.Text,
		"duration": duration.Seconds(),
	}))
	log.Info().Dur("duration", duration).Msg("task solved")

	return &Result{
		JobID:    jobID,
		TaskID:   created.TaskID,
		Text:     solution.Text,
		Solution: solution,
		Duration: duration,
	}, nil
}

// Balance fetches the account balance and updates the balance gauge.
func (s *Solver) Balance(ctx context.Context) (float64, error) {
	balance, err := s.client.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	metrics.SetBalance(balance)
	s.publish(ctx, events.EventBalance, events.BalanceEventData(balance))
	return balance, nil
}

// TaskResult fetches the current result of a task without waiting.
func (s *Solver) TaskResult(ctx context.Context, id anticaptcha.TaskID) (*anticaptcha.TaskResult, error) {
	return s.client.GetTaskResult(ctx, id)
}

func (s *Solver) fail(ctx context.Context, jobID, taskType string, start time.Time, err error) error {
	duration := s.now().Sub(start)
	outcome := Outcome(err)
	metrics.RecordSolve(taskType, outcome, duration)

	s.publish(ctx, events.EventSolveFailed, events.SolveEventData(jobID, taskType, map[string]any{
		"outcome": outcome,
		"error":   err.Error(),
	}))

	log := logger.WithJob(jobID)
	log.Warn().Err(err).Str("outcome", outcome).Dur("duration", duration).Msg("solve failed")
	return err
}

// publish logs publisher errors instead of returning them.
func (s *Solver) publish(ctx context.Context, eventType events.EventType, data map[string]any) {
	if s.publisher == nil {
		return
	}
	// the job context may already be done when reporting its failure
	if err := s.publisher.Publish(context.WithoutCancel(ctx), events.NewEvent(eventType, data)); err != nil {
		logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("failed to publish event")
	}
}

// Outcome classifies a solve error into a metrics label.
func Outcome(err error) string {
	if state, ok := anticaptcha.StateOf(err); ok {
		return state.String()
	}
	switch {
	case errors.Is(err, anticaptcha.ErrAPI):
		return OutcomeAPIError
	case errors.Is(err, anticaptcha.ErrNoSolution):
		return OutcomeNoSolution
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, anticaptcha.ErrTransport):
		return OutcomeTransportError
	default:
		return OutcomeError
	}
}
