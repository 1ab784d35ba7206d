package metrics

import (
	"strconv"
	"time"

	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

// Recorder counts anticaptcha API calls. It is plugged into the client as a
// request logger.
type Recorder struct{}

// LogRequest implements anticaptcha.RequestLogger.
func (Recorder) LogRequest(method string, _ any, response anticaptcha.ResponseRecord) {
	status := "error"
	if response.StatusCode != 0 {
		status = strconv.Itoa(response.StatusCode)
	}
	APIRequests.WithLabelValues(method, status).Inc()
}

// LogProcessing implements anticaptcha.RequestLogger.
func (Recorder) LogProcessing(anticaptcha.TaskID, time.Duration) {
	ProcessingPolls.Inc()
}
