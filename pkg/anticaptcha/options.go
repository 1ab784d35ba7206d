package anticaptcha

import (
	"crypto/x509"
	"net/http"
	"time"
)

// DefaultAPIURL is the production endpoint. Method names are appended to it.
const DefaultAPIURL = "https://api.anti-captcha.com/"

const (
	defaultHTTPTimeout  = 15 * time.Second
	defaultTaskTimeout  = 120 * time.Second
	defaultPollInterval = 5 * time.Second

	// minPollInterval replaces a non-positive poll interval inside WaitForTask.
	minPollInterval = 5 * time.Second
)

// Option configures the client.
type Option func(*options)

// TransportMiddleware wraps the round tripper used for each request.
type TransportMiddleware func(http.RoundTripper) http.RoundTripper

type options struct {
	softID       int
	callbackURL  string
	apiURL       string
	httpTimeout  time.Duration
	taskTimeout  time.Duration
	pollInterval time.Duration
	logger       RequestLogger
	rootCAs      *x509.CertPool
	httpClient   *http.Client
	middleware   []TransportMiddleware
	taskOptions  TaskOptions
}

func defaultOptions() *options {
	return &options{
		apiURL:       DefaultAPIURL,
		httpTimeout:  defaultHTTPTimeout,
		taskTimeout:  defaultTaskTimeout,
		pollInterval: defaultPollInterval,
	}
}

// WithSoftID sets the soft-partner id sent with every createTask call.
func WithSoftID(id int) Option {
	return func(o *options) {
		o.softID = id
	}
}

// WithCallbackURL sets the webhook the provider calls when a task completes.
func WithCallbackURL(url string) Option {
	return func(o *options) {
		o.callbackURL = url
	}
}

// WithAPIURL overrides the API base URL.
func WithAPIURL(url string) Option {
	return func(o *options) {
		o.apiURL = url
	}
}

// WithHTTPTimeout sets the total timeout of a single request. Zero or a
// negative value means no timeout.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		o.httpTimeout = d
	}
}

// WithTaskTimeout sets the default wait timeout used by WaitForTask.
func WithTaskTimeout(d time.Duration) Option {
	return func(o *options) {
		o.taskTimeout = d
	}
}

// WithPollInterval sets the default delay between task result checks.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithLogger sets the sink that receives every request/response pair.
func WithLogger(l RequestLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRootCAs sets the trusted certificate roots. nil means the system pool.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *options) {
		o.rootCAs = pool
	}
}

// WithHTTPClient makes the client reuse the given http.Client instead of
// building a fresh transport for every request. Root CAs and transport
// middleware are ignored in that case.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithTransportMiddleware adds a wrapper around the per-request transport.
func WithTransportMiddleware(mw TransportMiddleware) Option {
	return func(o *options) {
		o.middleware = append(o.middleware, mw)
	}
}

// WithTaskOptions sets the initial image-to-text task options.
func WithTaskOptions(t TaskOptions) Option {
	return func(o *options) {
		o.taskOptions = t
	}
}

// WaitOption configures a single WaitForTask call.
type WaitOption func(*waitOptions)

type waitOptions struct {
	timeout       time.Duration
	pollInterval  time.Duration
	logProcessing bool
}

// WaitTimeout overrides the client's task timeout. Zero keeps the default.
func WaitTimeout(d time.Duration) WaitOption {
	return func(w *waitOptions) {
		w.timeout = d
	}
}

// WaitPollInterval overrides the client's poll interval. Zero keeps the default.
func WaitPollInterval(d time.Duration) WaitOption {
	return func(w *waitOptions) {
		w.pollInterval = d
	}
}

// WaitLogProcessing enables a logger event for every processing status.
func WaitLogProcessing(enabled bool) WaitOption {
	return func(w *waitOptions) {
		w.logProcessing = enabled
	}
}
