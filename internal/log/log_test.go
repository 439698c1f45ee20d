package log

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "WARN", ParseLevel("warning").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
	assert.Equal(t, "INFO", ParseLevel("unknown").String())
}

func TestRingBufferEviction(t *testing.T) {
	rb := NewRingBuffer(3)
	for i := 1; i <= 5; i++ {
		rb.Add(fmt.Sprintf("line-%d", i))
	}

	assert.Equal(t, 3, rb.Total())
	assert.Equal(t, []string{"line-3", "line-4", "line-5"}, rb.Lines(10))
	assert.Equal(t, []string{"line-5"}, rb.Lines(1))
}

func TestRingBufferEmpty(t *testing.T) {
	rb := NewRingBuffer(3)
	assert.Equal(t, 0, rb.Total())
	assert.Empty(t, rb.Lines(5))
}

func TestInitWithBuffer(t *testing.T) {
	require.NoError(t, Init(&Config{Mode: "console", Level: "debug", BufferLines: 10}))

	Info("hello from test", "key", "value")

	lines := BufferedLines(10)
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[len(lines)-1], "hello from test")
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	require.NoError(t, Init(&Config{Mode: "console", Level: "error", BufferLines: 0}))

	var gotID string
	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/x", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Len(t, gotID, 8)
}
