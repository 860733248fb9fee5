package monitoring

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stats is a point-in-time snapshot of monitoring counters.
type Stats struct {
	Sessions    uint64 `json:"sessions"`
	Failures    uint64 `json:"failures"`
	CacheHits   uint64 `json:"cache_hits"`
	CacheMisses uint64 `json:"cache_misses"`
	Slow        uint64 `json:"slow"`
}

// Monitor tracks engine sessions from start to end and forwards completed
// records to its Recorder. Calls referencing unknown session IDs are ignored.
type Monitor struct {
	logger        *zap.Logger
	recorder      Recorder
	slowThreshold time.Duration
	clock         func() time.Time

	mu     sync.Mutex
	active map[string]*activeSession
	stats  Stats
}

type activeSession struct {
	name     string
	meta     map[string]any
	started  time.Time
	cacheHit bool
}

// Option customizes a Monitor at construction.
type Option func(*Monitor)

// WithRecorder attaches a persistence sink.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithSlowThreshold enables an advisory warning for sessions that were
// computed (not served from cache) slower than d. Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(m *Monitor) { m.slowThreshold = d }
}

// WithClock overrides the time source, for tests.
func WithClock(fn func() time.Time) Option {
	return func(m *Monitor) { m.clock = fn }
}

// New builds a Monitor. A nil logger falls back to zap.NewNop and a missing
// recorder to NopRecorder.
func New(logger *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		logger: logger,
		clock:  time.Now,
		active: make(map[string]*activeSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.recorder == nil {
		m.recorder = NewNopRecorder()
	}
	return m
}

// StartSession opens a session and returns its ID.
func (m *Monitor) StartSession(name string, meta map[string]any) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.active[id] = &activeSession{name: name, meta: meta, started: m.clock()}
	m.mu.Unlock()
	return id
}

// RecordCacheHit marks the session as served from cache.
func (m *Monitor) RecordCacheHit(id string) {
	m.mu.Lock()
	if s, ok := m.active[id]; ok {
		s.cacheHit = true
		m.stats.CacheHits++
	}
	m.mu.Unlock()
}

// RecordCacheMiss counts a cache miss for the session.
func (m *Monitor) RecordCacheMiss(id string) {
	m.mu.Lock()
	if _, ok := m.active[id]; ok {
		m.stats.CacheMisses++
	}
	m.mu.Unlock()
}

// EndSession closes the session and hands the completed record to the
// Recorder. Computed sessions slower than the threshold are logged as a
// warning; recorder failures are logged and swallowed.
func (m *Monitor) EndSession(id string, err error) {
	m.mu.Lock()
	s, ok := m.active[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, id)
	m.stats.Sessions++
	if err != nil {
		m.stats.Failures++
	}
	duration := m.clock().Sub(s.started)
	slow := m.slowThreshold > 0 && duration >= m.slowThreshold && !s.cacheHit && err == nil
	if slow {
		m.stats.Slow++
	}
	m.mu.Unlock()

	record := Session{
		ID:        id,
		Name:      s.name,
		Meta:      s.meta,
		StartedAt: s.started,
		Duration:  duration,
		Outcome:   "ok",
		CacheHit:  s.cacheHit,
	}
	if err != nil {
		record.Outcome = "error"
		record.Error = err.Error()
	}

	if slow {
		m.logger.Warn("slow calculation",
			zap.String("session", id),
			zap.String("name", s.name),
			zap.Duration("duration", duration),
			zap.Duration("threshold", m.slowThreshold),
		)
	}
	if rerr := m.recorder.RecordSession(record); rerr != nil {
		m.logger.Warn("record session", zap.String("session", id), zap.Error(rerr))
	}
	m.logger.Debug("session ended",
		zap.String("session", id),
		zap.String("name", s.name),
		zap.String("outcome", record.Outcome),
		zap.Duration("duration", duration),
		zap.Bool("cache_hit", s.cacheHit),
	)
}

// RecordError persists a failure event with its pipeline stage.
func (m *Monitor) RecordError(context string, err error) {
	if err == nil {
		return
	}
	event := ErrorEvent{
		OccurredAt: m.clock(),
		Context:    context,
		Message:    err.Error(),
	}
	if rerr := m.recorder.RecordError(event); rerr != nil {
		m.logger.Warn("record error event", zap.String("context", context), zap.Error(rerr))
	}
}

// Stats returns a snapshot of the counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// Close flushes the underlying recorder.
func (m *Monitor) Close() error {
	return m.recorder.Close()
}
