package logger

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

const maskedKey = "***"

// RequestSink writes anticaptcha client diagnostics as debug events.
type RequestSink struct {
	log zerolog.Logger
}

// NewRequestSink returns a sink writing to l.
func NewRequestSink(l zerolog.Logger) *RequestSink {
	return &RequestSink{log: l}
}

// LogRequest implements anticaptcha.RequestLogger. The client key is masked.
func (s *RequestSink) LogRequest(method string, request any, response anticaptcha.ResponseRecord) {
	evt := s.log.Debug().
		Str("method", method).
		RawJSON("request", maskClientKey(request))

	if response.StatusCode != 0 {
		evt = evt.Int("status", response.StatusCode)
	}
	if response.Text != "" {
		evt = evt.Str("response", response.Text)
	}
	if response.Error != "" {
		evt = evt.Str("error", response.Error)
	}
	evt.Msg("anticaptcha request")
}

// LogProcessing implements anticaptcha.RequestLogger.
func (s *RequestSink) LogProcessing(taskID anticaptcha.TaskID, elapsed time.Duration) {
	s.log.Debug().
		Str("task_id", taskID.String()).
		Dur("elapsed", elapsed).
		Msg("processing...")
}

func maskClientKey(request any) []byte {
	raw, err := json.Marshal(request)
	if err != nil {
		return []byte(`null`)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return raw
	}
	if _, ok := fields["clientKey"]; !ok {
		return raw
	}
	fields["clientKey"] = json.RawMessage(`"` + maskedKey + `"`)

	masked, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return masked
}
