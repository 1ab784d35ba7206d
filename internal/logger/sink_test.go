package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maumercado/anticaptcha-go/pkg/anticaptcha"
)

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestRequestSink_LogRequest(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	sink := NewRequestSink(zerolog.New(&buf))

	request := map[string]interface{}{"clientKey": "secret", "taskId": 42}
	sink.LogRequest(anticaptcha.MethodGetTaskResult, request, anticaptcha.ResponseRecord{
		StatusCode: 200,
		Text:       `{"errorId":0,"status":"processing"}`,
	})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "getTaskResult", entry["method"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, `{"errorId":0,"status":"processing"}`, entry["response"])
	assert.Equal(t, map[string]interface{}{"clientKey": "***", "taskId": float64(42)}, entry["request"])
	assert.NotContains(t, buf.String(), "secret")
}

func TestRequestSink_LogRequestError(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	sink := NewRequestSink(zerolog.New(&buf))

	sink.LogRequest(anticaptcha.MethodGetBalance, nil, anticaptcha.ResponseRecord{Error: "connection refused"})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "connection refused", entry["error"])
	assert.Nil(t, entry["request"])
	assert.NotContains(t, entry, "status")
}

func TestRequestSink_LogProcessing(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	sink := NewRequestSink(zerolog.New(&buf))

	sink.LogProcessing(anticaptcha.IntTaskID(7), 1500*time.Millisecond)

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "processing...", entry["message"])
	assert.Equal(t, "7", entry["task_id"])
}

func TestRequestSink_FilteredByLevel(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer zerolog.SetGlobalLevel(zerolog.DebugLevel)

	var buf bytes.Buffer
	sink := NewRequestSink(zerolog.New(&buf))

	sink.LogProcessing(anticaptcha.IntTaskID(7), time.Second)
	assert.Empty(t, buf.String())
}

func TestMaskClientKey(t *testing.T) {
	assert.JSONEq(t, `{"a":1}`, string(maskClientKey(map[string]int{"a": 1})))
	assert.JSONEq(t, `[1,2]`, string(maskClientKey([]int{1, 2})))
	assert.JSONEq(t, `{"clientKey":"***"}`, string(maskClientKey(map[string]string{"clientKey": "k"})))
}
