// Package monitoring implements the engine's monitoring collaborator:
// session telemetry with structured logging, an advisory slow-calculation
// threshold, and a pluggable persistence sink. Every operation is
// fire-and-forget; failures are logged and never surface to the caller.
package monitoring

import "time"

// Session is one completed engine operation.
type Session struct {
	ID        string
	Name      string
	Meta      map[string]any
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string // "ok" or "error"
	CacheHit  bool
	Error     string
}

// ErrorEvent is a single recorded failure with its pipeline stage.
type ErrorEvent struct {
	OccurredAt time.Time
	Context    string
	Message    string
}

// Recorder persists telemetry for later analysis. Implementations must be
// safe for concurrent use.
type Recorder interface {
	RecordSession(s Session) error
	RecordError(e ErrorEvent) error
	Close() error
}

// NopRecorder discards everything. Used when no database is configured.
type NopRecorder struct{}

func NewNopRecorder() *NopRecorder { return &NopRecorder{} }

func (n *NopRecorder) RecordSession(_ Session) error  { return nil }
func (n *NopRecorder) RecordError(_ ErrorEvent) error { return nil }
func (n *NopRecorder) Close() error                   { return nil }
