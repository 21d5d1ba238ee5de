// Package audit persists a record of every event that finished its
// listener traversal. The dispatch core itself never touches disk; the
// manager writes here from its processing-done signal.
package audit

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"

	"github.com/mattjoyce/packetline/internal/event"
)

// Log is the processed-event store.
type Log struct {
	db *sql.DB
}

// Entry is one processed-event row.
type Entry struct {
	EventID       string    `json:"event_id"`
	Direction     string    `json:"direction"`
	WorkerID      string    `json:"worker_id"`
	PayloadDigest string    `json:"payload_digest"`
	ProcessedAt   time.Time `json:"processed_at"`
}

// Open opens (and creates if needed) the audit database at path and
// ensures the schema exists.
func Open(ctx context.Context, path string) (*Log, error) {
	if path == "" {
		return nil, fmt.Errorf("audit: sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("audit: create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: set busy_timeout: %w", err)
	}
	if err := bootstrap(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Log{db: db}, nil
}

func bootstrap(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS processed_events (
  event_id       TEXT PRIMARY KEY,
  direction      TEXT NOT NULL,
  worker_id      TEXT,
  payload_digest TEXT NOT NULL,
  processed_at   TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS processed_events_processed_at_idx ON processed_events(processed_at);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("audit: bootstrap sqlite: %w", err)
		}
	}
	return nil
}

// Close releases the database handle.
func (l *Log) Close() error { return l.db.Close() }

// Record inserts one processed-event row. The payload digest is BLAKE3
// over the payload bytes at completion time.
func (l *Log) Record(ctx context.Context, ev *event.Event) error {
	if ev == nil {
		return fmt.Errorf("audit: event is nil")
	}

	digest := blake3.Sum256(ev.Payload())
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := l.db.ExecContext(ctx, `
INSERT OR REPLACE INTO processed_events(event_id, direction, worker_id, payload_digest, processed_at)
VALUES(?, ?, ?, ?, ?);
`, ev.ID(), ev.Direction().String(), ev.WorkerID(), hex.EncodeToString(digest[:]), now)
	if err != nil {
		return fmt.Errorf("audit: record processed event: %w", err)
	}
	return nil
}

// Recent returns up to limit rows, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
SELECT event_id, direction, worker_id, payload_digest, processed_at
FROM processed_events
ORDER BY processed_at DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e           Entry
			workerID    sql.NullString
			processedAt string
		)
		if err := rows.Scan(&e.EventID, &e.Direction, &workerID, &e.PayloadDigest, &processedAt); err != nil {
			return nil, fmt.Errorf("audit: scan recent row: %w", err)
		}
		if workerID.Valid {
			e.WorkerID = workerID.String
		}
		if t, err := time.Parse(time.RFC3339Nano, processedAt); err == nil {
			e.ProcessedAt = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
