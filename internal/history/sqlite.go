package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (and if needed creates) the ledger at dbPath.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL,
		source TEXT NOT NULL,
		fingerprint TEXT NOT NULL,
		status TEXT NOT NULL,
		artifact TEXT,
		passes INTEGER NOT NULL DEFAULT 0,
		compile_ok INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_builds_source_fp ON builds(source, fingerprint);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends rec and returns its row ID.
func (s *SQLiteStore) Record(ctx context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := rec.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO builds (job_id, source, fingerprint, status, artifact, passes, compile_ok, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.JobID, rec.Source, rec.Fingerprint, string(rec.Status), rec.Artifact,
		rec.Passes, rec.CompileOK, rec.Error, started.UnixMilli(), rec.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert build: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read build id: %w", err)
	}
	return id, nil
}

const selectColumns = `SELECT id, job_id, source, fingerprint, status, artifact, passes, compile_ok, error, started_at, duration_ms FROM builds`

// LastSuccess returns the newest successful build matching source and fingerprint.
func (s *SQLiteStore) LastSuccess(ctx context.Context, source, fingerprint string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		selectColumns+` WHERE source = ? AND fingerprint = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		source, fingerprint, string(StatusSuccess),
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

// Recent returns up to limit records, newest first. A non-positive limit returns all.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec        Record
		status     string
		artifact   sql.NullString
		errText    sql.NullString
		startedMS  int64
		durationMS int64
	)
	err := sc.Scan(&rec.ID, &rec.JobID, &rec.Source, &rec.Fingerprint, &status, &artifact,
		&rec.Passes, &rec.CompileOK, &errText, &startedMS, &durationMS)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("scan build: %w", err)
	}
	rec.Status = Status(status)
	rec.Artifact = artifact.String
	rec.Error = errText.String
	rec.StartedAt = time.UnixMilli(startedMS)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
