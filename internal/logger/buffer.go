package logger

import "sync"

const defaultBufferLimit = 1000

type eventLevel int

const (
	levelDebug eventLevel = iota
	levelInfo
	levelWarn
	levelError
)

type bufferedEvent struct {
	level  eventLevel
	msg    string
	fields []interface{}
}

// EventBuffer keeps a bounded, ring-buffered history of recent log
// events for a consumer with no streaming log sink of its own — the
// dashboard (internal/tui) reads this to show the most recent pipeline
// errors alongside Engine State.
type EventBuffer struct {
	mu     sync.Mutex
	limit  int
	events []bufferedEvent
}

// NewEventBuffer creates a buffer holding at most limit events (defaults
// to 1000).
func NewEventBuffer(limit int) *EventBuffer {
	if limit <= 0 {
		limit = defaultBufferLimit
	}
	return &EventBuffer{limit: limit, events: make([]bufferedEvent, 0, limit)}
}

func (b *EventBuffer) add(e bufferedEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.events) == b.limit {
		copy(b.events, b.events[1:])
		b.events[len(b.events)-1] = e
		return
	}
	b.events = append(b.events, e)
}

// Recent returns a snapshot of the buffered events, oldest first.
func (b *EventBuffer) Recent() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.msg
	}
	return out
}

// RecentErrors returns only the error-level messages buffered, oldest
// first — the dashboard's "most recent pipeline errors" panel.
func (b *EventBuffer) RecentErrors() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		if e.level == levelError {
			out = append(out, e.msg)
		}
	}
	return out
}

// Sink is an io.Writer-free tee target a Logger can feed in addition to
// its normal output, implemented by BufferedLogger.
type Sink interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// BufferedLogger implements Sink by recording into an EventBuffer.
type BufferedLogger struct {
	buffer *EventBuffer
}

// NewBufferedLogger returns a Sink that stores entries in buffer.
func NewBufferedLogger(buffer *EventBuffer) *BufferedLogger {
	return &BufferedLogger{buffer: buffer}
}

func (l *BufferedLogger) Debug(msg string, fields ...interface{}) {
	l.buffer.add(bufferedEvent{level: levelDebug, msg: msg, fields: fields})
}

func (l *BufferedLogger) Info(msg string, fields ...interface{}) {
	l.buffer.add(bufferedEvent{level: levelInfo, msg: msg, fields: fields})
}

func (l *BufferedLogger) Warn(msg string, fields ...interface{}) {
	l.buffer.add(bufferedEvent{level: levelWarn, msg: msg, fields: fields})
}

func (l *BufferedLogger) Error(msg string, fields ...interface{}) {
	l.buffer.add(bufferedEvent{level: levelError, msg: msg, fields: fields})
}
