package monitoring

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists session telemetry to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *zap.Logger
	mu     sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode keeps reads (dashboards, the status command) cheap while the
	// engine writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Debug("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			outcome     TEXT NOT NULL,
			cache_hit   INTEGER NOT NULL,
			error       TEXT,
			meta        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,

		`CREATE TABLE IF NOT EXISTS session_errors (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			occurred_at INTEGER NOT NULL,
			context     TEXT NOT NULL,
			message     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_errors_occurred ON session_errors(occurred_at)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSession(s Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var meta []byte
	if len(s.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(s.Meta); err != nil {
			return fmt.Errorf("marshal session meta: %w", err)
		}
	}

	cacheHit := 0
	if s.CacheHit {
		cacheHit = 1
	}

	_, err := r.db.Exec(`INSERT OR REPLACE INTO sessions
		(id, name, started_at, duration_ns, outcome, cache_hit, error, meta)
		VALUES (?,?,?,?,?,?,?,?)`,
		s.ID, s.Name, s.StartedAt.Unix(), int64(s.Duration),
		s.Outcome, cacheHit, s.Error, string(meta),
	)
	return err
}

func (r *SQLiteRecorder) RecordError(e ErrorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO session_errors
		(occurred_at, context, message)
		VALUES (?,?,?)`,
		e.OccurredAt.Unix(), e.Context, e.Message,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Debug("closing sqlite recorder")
	return r.db.Close()
}

// SessionSummary aggregates the recorded telemetry of a database.
type SessionSummary struct {
	Sessions    int
	CacheHits   int
	Errors      int
	AvgDuration time.Duration
	LastRun     time.Time
	LastOutcome string
}

// ReadSummary aggregates the sessions recorded at dbPath. The database must
// already exist; this never creates one.
func ReadSummary(dbPath string) (SessionSummary, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return SessionSummary{}, fmt.Errorf("stat database: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return SessionSummary{}, fmt.Errorf("open sqlite: %w", err)
	}
	defer db.Close()

	var sum SessionSummary
	var hits sql.NullInt64
	var avgNs sql.NullFloat64
	if err := db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(cache_hit), 0), AVG(duration_ns) FROM sessions`,
	).Scan(&sum.Sessions, &hits, &avgNs); err != nil {
		return SessionSummary{}, fmt.Errorf("aggregate sessions: %w", err)
	}
	sum.CacheHits = int(hits.Int64)
	if avgNs.Valid {
		sum.AvgDuration = time.Duration(avgNs.Float64)
	}

	if err := db.QueryRow(`SELECT COUNT(*) FROM session_errors`).Scan(&sum.Errors); err != nil {
		return SessionSummary{}, fmt.Errorf("count errors: %w", err)
	}

	var started sql.NullInt64
	var outcome sql.NullString
	err = db.QueryRow(`SELECT started_at, outcome FROM sessions ORDER BY started_at DESC LIMIT 1`).
		Scan(&started, &outcome)
	if err != nil && err != sql.ErrNoRows {
		return SessionSummary{}, fmt.Errorf("latest session: %w", err)
	}
	if started.Valid {
		sum.LastRun = time.Unix(started.Int64, 0)
	}
	sum.LastOutcome = outcome.String
	return sum, nil
}
