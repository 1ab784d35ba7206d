// Package anticaptcha is a client for the anti-captcha task API.
//
// A captcha is solved by creating a task, polling its result until the
// provider reports it ready, and reading the solution.
//
// # Basic Usage
//
//	c, err := anticaptcha.New("your-client-key")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := c.SolveImage(ctx, imageBytes)
//
// # Step by step
//
//	created, err := c.CreateImageToTextTask(ctx, base64Image)
//	if err != nil {
//	    return err
//	}
//	if created.Ready() {
//	    solution, err := anticaptcha.ExtractSolution(created.Result())
//	    ...
//	}
//	text, err := c.WaitForTask(ctx, created.TaskID,
//	    anticaptcha.WaitTimeout(2*time.Minute),
//	    anticaptcha.WaitLogProcessing(true),
//	)
//
// # Errors
//
// Every error wraps ErrAntiCaptcha. Individual kinds are TransportError,
// APIError, BadStatusError, TimeoutError and NoSolutionError, matched with
// errors.As, or with errors.Is against ErrTransport, ErrAPI, ErrBadStatus,
// ErrTimeout and ErrNoSolution. Nothing is retried by the client.
//
// # Configuration
//
//	c, err := anticaptcha.New(key,
//	    anticaptcha.WithSoftID(123),
//	    anticaptcha.WithCallbackURL("https://example.com/hook"),
//	    anticaptcha.WithHTTPTimeout(15*time.Second),
//	    anticaptcha.WithTaskTimeout(2*time.Minute),
//	    anticaptcha.WithPollInterval(5*time.Second),
//	)
package anticaptcha
