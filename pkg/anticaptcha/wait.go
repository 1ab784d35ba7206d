package anticaptcha

import (
	"context"
	"fmt"
)

// WaitForTask polls a task until it is ready and returns the solved text.
//
// The loop sleeps before every check, including the first. A processing
// status fails with TimeoutError once the time since the call started
// reaches the timeout; a ready status is always accepted, even late. Any
// other status fails immediately with BadStatusError. Request errors are
// returned unchanged and nothing is retried.
func (c *Client) WaitForTask(ctx context.Context, id TaskID, opts ...WaitOption) (string, error) {
	solution, err := c.AwaitSolution(ctx, id, opts...)
	if err != nil {
		return "", err
	}
	return solution.Text, nil
}

// AwaitSolution is WaitForTask returning the whole solution.
func (c *Client) AwaitSolution(ctx context.Context, id TaskID, opts ...WaitOption) (*Solution, error) {
	w := waitOptions{}
	for _, opt := range opts {
		opt(&w)
	}

	timeout := w.timeout
	if timeout == 0 {
		timeout = c.opts.taskTimeout
	}
	interval := w.pollInterval
	if interval == 0 {
		interval = c.opts.pollInterval
	}
	if interval <= 0 {
		interval = minPollInterval
	}

	start := c.now()
	state := WaitStateWaiting
	polls := 0

	var result *TaskResult
	for state == WaitStateWaiting {
		if err := c.sleep(ctx, interval); err != nil {
			return nil, err
		}

		r, err := c.GetTaskResult(ctx, id)
		if err != nil {
			return nil, err
		}
		polls++
		result = r

		next := StateForStatus(r.Status)
		if next == WaitStateWaiting {
			elapsed := c.now().Sub(start)
			if w.logProcessing && c.opts.logger != nil {
				c.opts.logger.LogProcessing(id, elapsed)
			}
			if elapsed >= timeout {
				next = WaitStateTimedOut
			}
		}

		if !state.CanTransitionTo(next) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, state, next)
		}

		switch next {
		case WaitStateTimedOut:
			return nil, &TimeoutError{TaskID: id, Timeout: timeout, Elapsed: c.now().Sub(start), Polls: polls}
		case WaitStateBadStatus:
			return nil, &BadStatusError{TaskID: id, Status: r.Status}
		}
		state = next
	}

	return ExtractSolution(result)
}
