package anticaptcha

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API method names.
const (
	MethodGetBalance    = "getBalance"
	MethodCreateTask    = "createTask"
	MethodGetTaskResult = "getTaskResult"
)

// Client talks to the anti-captcha API. Everything except the task options
// is fixed at construction, so a Client may be shared between goroutines as
// long as SetTaskOptions is not called concurrently with task creation.
type Client struct {
	clientKey   string
	opts        *options
	taskOptions TaskOptions

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a client for the given account key.
func New(clientKey string, opts ...Option) (*Client, error) {
	if clientKey == "" {
		return nil, errors.New("client key is required")
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	if !strings.HasSuffix(o.apiURL, "/") {
		o.apiURL += "/"
	}
	if _, err := url.ParseRequestURI(o.apiURL); err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}

	return &Client{
		clientKey:   clientKey,
		opts:        o,
		taskOptions: o.taskOptions,
		now:         time.Now,
		sleep:       sleepContext,
	}, nil
}

// TaskOptions returns the current image-to-text task options.
func (c *Client) TaskOptions() TaskOptions {
	return c.taskOptions
}

// SetTaskOptions replaces the image-to-text task options.
func (c *Client) SetTaskOptions(t TaskOptions) {
	c.taskOptions = t
}

// WithTaskOptions returns a copy of the client using different task
// options. Use it when concurrent callers need their own option sets.
func (c *Client) WithTaskOptions(t TaskOptions) *Client {
	clone := *c
	clone.taskOptions = t
	return &clone
}

// GetBalance returns the account balance.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	var resp balanceResponse
	if err := c.do(ctx, MethodGetBalance, balanceRequest{ClientKey: c.clientKey}, &resp); err != nil {
		return 0, err
	}
	return resp.Balance, nil
}

// CreateTask submits a task payload. The response may already be ready;
// check Ready before waiting.
func (c *Client) CreateTask(ctx context.Context, task any) (*CreateTaskResponse, error) {
	req := createTaskRequest{
		ClientKey:   c.clientKey,
		Task:        task,
		SoftID:      c.opts.softID,
		CallbackURL: c.opts.callbackURL,
	}

	var resp CreateTaskResponse
	if err := c.do(ctx, MethodCreateTask, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateImageToTextTask submits a base64 encoded image with the current
// task options.
func (c *Client) CreateImageToTextTask(ctx context.Context, body string) (*CreateTaskResponse, error) {
	return c.CreateTask(ctx, NewImageToTextTask(body, c.taskOptions))
}

// GetTaskResult fetches the current result of a task.
func (c *Client) GetTaskResult(ctx context.Context, id TaskID) (*TaskResult, error) {
	var resp TaskResult
	req := taskResultRequest{ClientKey: c.clientKey, TaskID: id}
	if err := c.do(ctx, MethodGetTaskResult, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExtractSolution returns the solution of a result, or a NoSolutionError
// when none is present.
func ExtractSolution(r *TaskResult) (*Solution, error) {
	if r == nil || r.Solution == nil {
		return nil, &NoSolutionError{Result: r}
	}
	return r.Solution, nil
}

// Resolve turns a creation response into a solution, waiting for the task
// unless the provider already solved it.
func (c *Client) Resolve(ctx context.Context, created *CreateTaskResponse, opts ...WaitOption) (*Solution, error) {
	if created.Ready() {
		return ExtractSolution(created.Result())
	}
	return c.AwaitSolution(ctx, created.TaskID, opts...)
}

// Solve creates a task and waits for its solution.
func (c *Client) Solve(ctx context.Context, task any, opts ...WaitOption) (*Solution, error) {
	created, err := c.CreateTask(ctx, task)
	if err != nil {
		return nil, err
	}
	return c.Resolve(ctx, created, opts...)
}

// SolveBase64 solves a base64 encoded image captcha and returns its text.
func (c *Client) SolveBase64(ctx context.Context, body string, opts ...WaitOption) (string, error) {
	created, err := c.CreateImageToTextTask(ctx, body)
	if err != nil {
		return "", err
	}
	solution, err := c.Resolve(ctx, created, opts...)
	if err != nil {
		return "", err
	}
	return solution.Text, nil
}

// SolveImage solves a raw image captcha and returns its text.
func (c *Client) SolveImage(ctx context.Context, img []byte, opts ...WaitOption) (string, error) {
	return c.SolveBase64(ctx, base64.StdEncoding.EncodeToString(img), opts...)
}

// SolveReader reads an image and solves it.
func (c *Client) SolveReader(ctx context.Context, r io.Reader, opts ...WaitOption) (string, error) {
	img, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return c.SolveImage(ctx, img, opts...)
}

// do performs one API call. On success out holds the decoded response.
func (c *Client) do(ctx context.Context, method string, query any, out any) error {
	payload, err := json.Marshal(query)
	if err != nil {
		return &TransportError{Method: method, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	// A non-positive httpTimeout disables the per-request deadline.
	if c.opts.httpTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.httpTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.apiURL+method, bytes.NewReader(payload))
	if err != nil {
		return &TransportError{Method: method, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	httpClient, release := c.httpClient()
	defer release()

	resp, err := httpClient.Do(req)
	if err != nil {
		c.logRequest(method, query, ResponseRecord{Error: err.Error()})
		return &TransportError{Method: method, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logRequest(method, query, ResponseRecord{StatusCode: resp.StatusCode, Error: err.Error()})
		return &TransportError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	text := string(body)
	c.logRequest(method, query, ResponseRecord{StatusCode: resp.StatusCode, Text: text})

	if resp.StatusCode != http.StatusOK {
		return &TransportError{Method: method, StatusCode: resp.StatusCode, Body: text}
	}

	if err := checkEnvelope(method, body); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &TransportError{Method: method, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}

func checkEnvelope(method string, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &TransportError{Method: method, StatusCode: http.StatusOK, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if env.ErrorID == nil {
		return &TransportError{Method: method, StatusCode: http.StatusOK, Err: errors.New("response has no errorId")}
	}
	if *env.ErrorID == 0 {
		return nil
	}

	apiErr := &APIError{
		Method:      method,
		ID:          *env.ErrorID,
		Code:        "-1",
		Description: "Unknown error. " + string(body),
	}
	if len(env.ErrorCode) > 0 && string(env.ErrorCode) != "null" {
		var code string
		if err := json.Unmarshal(env.ErrorCode, &code); err == nil {
			apiErr.Code = code
		} else {
			apiErr.Code = string(env.ErrorCode)
		}
	}
	if env.ErrorDescription != nil {
		apiErr.Description = *env.ErrorDescription
	}
	return apiErr
}

// httpClient returns the client for one request and a release func that
// tears its transport down.
func (c *Client) httpClient() (*http.Client, func()) {
	if c.opts.httpClient != nil {
		return c.opts.httpClient, func() {}
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		TLSClientConfig:     &tls.Config{RootCAs: c.opts.rootCAs, MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: 10 * time.Second,
		DisableKeepAlives:   true,
	}

	var rt http.RoundTripper = transport
	for _, mw := range c.opts.middleware {
		rt = mw(rt)
	}

	return &http.Client{Transport: rt, Timeout: max(c.opts.httpTimeout, 0)}, transport.CloseIdleConnections
}

func (c *Client) logRequest(method string, query any, resp ResponseRecord) {
	if c.opts.logger == nil {
		return
	}
	c.opts.logger.LogRequest(method, query, resp)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
