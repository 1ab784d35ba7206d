package anticaptcha

import "time"

// RequestLogger receives diagnostics from the client. Implementations must
// not block for long; they run inline with the request.
type RequestLogger interface {
	// LogRequest is called once per API call, before any error is returned.
	LogRequest(method string, request any, response ResponseRecord)
	// LogProcessing is called by WaitForTask for each processing status
	// when WaitLogProcessing(true) is set.
	LogProcessing(taskID TaskID, elapsed time.Duration)
}

type multiLogger []RequestLogger

// MultiLogger fans events out to several loggers. nil entries are skipped.
func MultiLogger(loggers ...RequestLogger) RequestLogger {
	var out multiLogger
	for _, l := range loggers {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multiLogger) LogRequest(method string, request any, response ResponseRecord) {
	for _, l := range m {
		l.LogRequest(method, request, response)
	}
}

func (m multiLogger) LogProcessing(taskID TaskID, elapsed time.Duration) {
	for _, l := range m {
		l.LogProcessing(taskID, elapsed)
	}
}
