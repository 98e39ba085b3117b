// Package diagnostics records generation failures (model output and the reason
// it was rejected) so they can be inspected without exposing them to users.
package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const maxRawText = 8 << 10

// Failure is one rejected or failed generation.
type Failure struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Stage     string    `json:"stage"` // "generate" or "extract"
	Kind      string    `json:"kind"`
	Reason    string    `json:"reason"`
	RawText   string    `json:"raw_text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder persists failures.
type Recorder interface {
	Record(ctx context.Context, f Failure) error
}

// Nop discards every failure.
type Nop struct{}

func (Nop) Record(context.Context, Failure) error { return nil }

// SQLiteStore keeps failures in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens (and if needed creates) the failure log at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS generation_failures (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		stage TEXT NOT NULL,
		kind TEXT NOT NULL,
		reason TEXT NOT NULL,
		raw_text TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_generation_failures_created ON generation_failures(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Record stores f, filling ID and CreatedAt when unset. Raw text is truncated.
func (s *SQLiteStore) Record(ctx context.Context, f Failure) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = s.now()
	}
	f.RawText = truncate(f.RawText, maxRawText)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_failures (id, mode, stage, kind, reason, raw_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.Mode, f.Stage, f.Kind, f.Reason, f.RawText, f.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert failure: %w", err)
	}
	return nil
}

// Recent returns up to limit failures, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Failure, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mode, stage, kind, reason, raw_text, created_at
		FROM generation_failures
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	out := []Failure{}
	for rows.Next() {
		var f Failure
		var createdAt int64
		if err := rows.Scan(&f.ID, &f.Mode, &f.Stage, &f.Kind, &f.Reason, &f.RawText, &createdAt); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		f.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, f)
	}
	return out, rows.Err()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
