// Package eventlog is the structured event logger (§4.9): a bounded queue
// drained by a single writer worker that appends newline-delimited JSON to
// daily per-event-type files, never blocking the caller that logged the
// event.
package eventlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const queueCapacity = 10000

// Event is one structured record appended to
// data/events/{event_type}/YYYY/MM/DD/events.jsonl (§4.9).
type Event struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	TS        time.Time `json:"ts"`
	Payload   any       `json:"payload"`
}

// Logger appends structured events to daily JSONL files, non-blocking.
// Grounded on the teacher's server.EventsStreamHandler subscriber pattern
// (internal/server/events_stream.go): a buffered channel with a
// select/default send that drops and logs a warning instead of blocking,
// here consumed by a single file-writing worker instead of fanned out to
// SSE clients.
type Logger struct {
	baseDir string
	queue   chan Event
	done    chan struct{}

	mu       sync.RWMutex
	enabled  map[string]bool
	globalOn bool

	log zerolog.Logger
}

// New builds a Logger that writes under baseDir (typically data/events).
func New(baseDir string, log zerolog.Logger) *Logger {
	return newWithCapacity(baseDir, queueCapacity, log)
}

func newWithCapacity(baseDir string, capacity int, log zerolog.Logger) *Logger {
	return &Logger{
		baseDir:  baseDir,
		queue:    make(chan Event, capacity),
		done:     make(chan struct{}),
		enabled:  make(map[string]bool),
		globalOn: true,
		log:      log.With().Str("component", "event_logger").Logger(),
	}
}

// Start runs the single writer worker until ctx is cancelled, draining
// whatever is already queued before returning.
func (l *Logger) Start(ctx context.Context) {
	go l.run(ctx)
}

func (l *Logger) run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			l.drain()
			return
		case evt := <-l.queue:
			l.write(evt)
		}
	}
}

func (l *Logger) drain() {
	for {
		select {
		case evt := <-l.queue:
			l.write(evt)
		default:
			return
		}
	}
}

// Wait blocks until the writer worker has exited, for graceful shutdown
// sequencing (§4.3 shutdown order: drain event logger before closing DBs).
func (l *Logger) Wait() {
	<-l.done
}

// SetEnabled toggles one event type on/off. Disabled events are dropped
// before they ever reach the queue.
func (l *Logger) SetEnabled(eventType string, enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled[eventType] = enabled
}

// SetGlobalEnabled is the master on/off switch (§4.9 "global on/off").
func (l *Logger) SetGlobalEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.globalOn = enabled
}

func (l *Logger) isEnabled(eventType string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.globalOn {
		return false
	}
	enabled, ok := l.enabled[eventType]
	return !ok || enabled
}

// QueueDepth reports how many events are currently queued, for /readyz and
// dashboard metrics.
func (l *Logger) QueueDepth() int {
	return len(l.queue)
}

// Log appends an event, non-blocking. A full queue drops the newest event
// and logs a warning rather than blocking the caller (§4.9 "On overflow,
// drop newest with log").
func (l *Logger) Log(eventType, source string, payload any) {
	if !l.isEnabled(eventType) {
		return
	}
	evt := Event{
		ID: uuid.NewString(), EventType: eventType, Source: source,
		TS: time.Now().UTC(), Payload: payload,
	}
	select {
	case l.queue <- evt:
	default:
		l.log.Warn().Str("event_type", eventType).Str("source", source).Msg("event queue full, dropping event")
	}
}

func (l *Logger) write(evt Event) {
	data, err := json.Marshal(evt)
	if err != nil {
		l.log.Warn().Err(err).Str("event_type", evt.EventType).Msg("failed to marshal event")
		return
	}
	path := l.pathFor(evt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("failed to create event log directory")
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("failed to open event log file")
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		l.log.Warn().Err(err).Str("path", path).Msg("failed to write event")
	}
}

func (l *Logger) pathFor(evt Event) string {
	return filepath.Join(l.baseDir, evt.EventType,
		evt.TS.Format("2006"), evt.TS.Format("01"), evt.TS.Format("02"), "events.jsonl")
}
