package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// newConsoleHandler creates a handler writing to w in text or json format.
func newConsoleHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// newFileHandler creates a handler appending to the given file path.
func newFileHandler(path, format string, level slog.Level) (slog.Handler, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return newConsoleHandler(file, format, level), nil
}

// RingBuffer is a thread-safe circular buffer of formatted log lines.
type RingBuffer struct {
	mu       sync.RWMutex
	lines    []string
	capacity int
	head     int
	full     bool
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &RingBuffer{lines: make([]string, capacity), capacity: capacity}
}

// Add appends a line, evicting the oldest when full.
func (rb *RingBuffer) Add(line string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.lines[rb.head] = line
	rb.head = (rb.head + 1) % rb.capacity
	if rb.head == 0 {
		rb.full = true
	}
}

// Total returns the number of lines currently buffered.
func (rb *RingBuffer) Total() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return rb.capacity
	}
	return rb.head
}

// Lines returns the last n lines, oldest first.
func (rb *RingBuffer) Lines(n int) []string {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	total := rb.head
	if rb.full {
		total = rb.capacity
	}
	if n > total {
		n = total
	}
	if n <= 0 {
		return []string{}
	}

	start := 0
	if rb.full {
		start = rb.head
	}

	result := make([]string, n)
	skip := total - n
	for i := 0; i < n; i++ {
		result[i] = rb.lines[(start+skip+i)%rb.capacity]
	}
	return result
}

// bufferHandler forwards records to the wrapped handler and keeps a
// formatted copy in the ring buffer.
type bufferHandler struct {
	wrapped slog.Handler
	buffer  *RingBuffer
}

func newBufferHandler(wrapped slog.Handler, buffer *RingBuffer) *bufferHandler {
	return &bufferHandler{wrapped: wrapped, buffer: buffer}
}

func (h *bufferHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.wrapped.Enabled(ctx, level)
}

func (h *bufferHandler) Handle(ctx context.Context, r slog.Record) error {
	var buf bytes.Buffer
	line := newConsoleHandler(&buf, "text", slog.LevelDebug)
	if err := line.Handle(ctx, r); err == nil {
		h.buffer.Add(string(bytes.TrimRight(buf.Bytes(), "\n")))
	}
	return h.wrapped.Handle(ctx, r)
}

func (h *bufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &bufferHandler{wrapped: h.wrapped.WithAttrs(attrs), buffer: h.buffer}
}

func (h *bufferHandler) WithGroup(name string) slog.Handler {
	return &bufferHandler{wrapped: h.wrapped.WithGroup(name), buffer: h.buffer}
}
