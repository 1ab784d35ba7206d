package anticaptcha

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrAntiCaptcha is the base category of every error returned by this package.
// Use errors.Is(err, ErrAntiCaptcha) to handle all client failures uniformly.
var ErrAntiCaptcha = errors.New("anticaptcha")

// Sentinels for the individual failure kinds, usable with errors.Is.
var (
	ErrTransport  = errors.New("anticaptcha: transport failure")
	ErrAPI        = errors.New("anticaptcha: api error")
	ErrBadStatus  = errors.New("anticaptcha: bad task status")
	ErrTimeout    = errors.New("anticaptcha: resolve captcha timed out")
	ErrNoSolution = errors.New("anticaptcha: no solution")
)

// TransportError is returned when the HTTP exchange failed, the provider
// answered with a non-200 status, or the body was not a valid envelope.
type TransportError struct {
	Method     string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 && e.StatusCode != 200 {
		return fmt.Sprintf("request failed: %s: status code %d: %s", e.Method, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("request failed: %s: %v", e.Method, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool {
	return target == ErrAntiCaptcha || target == ErrTransport
}

// APIError is returned when the provider reports errorId != 0.
type APIError struct {
	Method      string
	ID          int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %s: %s", e.Code, e.Description)
}

func (e *APIError) Is(target error) bool {
	return target == ErrAntiCaptcha || target == ErrAPI
}

// BadStatusError is returned by the wait loop when a task result reports a
// status other than processing or ready.
type BadStatusError struct {
	TaskID TaskID
	Status string
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("bad task result status: %s", e.Status)
}

func (e *BadStatusError) Is(target error) bool {
	return target == ErrAntiCaptcha || target == ErrBadStatus
}

// TimeoutError is returned when the wait loop kept seeing processing for
// longer than its timeout.
type TimeoutError struct {
	TaskID  TaskID
	Timeout time.Duration
	Elapsed time.Duration
	Polls   int
}

func (e *TimeoutError) Error() string {
	return "resolve captcha timed out"
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrAntiCaptcha || target == ErrTimeout
}

// NoSolutionError is returned when a result is ready but carries no solution.
type NoSolutionError struct {
	Result *TaskResult
}

func (e *NoSolutionError) Error() string {
	raw, err := json.Marshal(e.Result)
	if err != nil {
		return "no solution"
	}
	return "no solution: " + string(raw)
}

func (e *NoSolutionError) Is(target error) bool {
	return target == ErrAntiCaptcha || target == ErrNoSolution
}
