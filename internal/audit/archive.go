package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ArchiveSink mirrors the audit trail into a local SQLite database so
// operators can query past entries without replaying the JSONL log. The
// table is append-only; nothing in the engine ever updates or deletes rows.
type ArchiveSink struct {
	db *sql.DB
}

// NewArchiveSink opens (or creates) the archive database at path.
func NewArchiveSink(path string) (*ArchiveSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open archive: %w", err)
	}
	// Single writer: the pipeline's consumer goroutine.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_entries (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		trace_id    TEXT NOT NULL,
		entry_hash  TEXT NOT NULL DEFAULT '',
		recorded_at TEXT NOT NULL,
		entry       TEXT NOT NULL
	)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: create archive table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_entries_trace_id ON audit_entries (trace_id)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: create archive index: %w", err)
	}
	return &ArchiveSink{db: db}, nil
}

func (s *ArchiveSink) Name() string { return "archive" }

func (s *ArchiveSink) Write(e Entry) error {
	raw, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("audit: marshal archive entry %s: %w", e.TraceID, err)
	}
	_, err = s.db.Exec(
		`INSERT INTO audit_entries (trace_id, entry_hash, recorded_at, entry) VALUES (?, ?, ?, ?)`,
		e.TraceID, e.Hash, time.Now().UTC().Format(time.RFC3339Nano), string(raw),
	)
	if err != nil {
		return fmt.Errorf("audit: archive entry %s: %w", e.TraceID, err)
	}
	return nil
}

func (s *ArchiveSink) Close() error { return s.db.Close() }

// CountByTrace returns how many archived entries exist for a trace id.
func (s *ArchiveSink) CountByTrace(traceID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_entries WHERE trace_id = ?`, traceID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("audit: count archive entries: %w", err)
	}
	return n, nil
}
