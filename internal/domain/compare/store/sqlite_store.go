// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/swinglab/internal/persistence/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS compare_sessions (
	session_id TEXT PRIMARY KEY,
	snapshot   TEXT NOT NULL,
	revision   INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_compare_sessions_updated ON compare_sessions(updated_at);
`

// SqliteStore stores snapshots as JSON documents in SQLite.
type SqliteStore struct {
	DB *sql.DB
}

// NewSqliteStore opens (and migrates) the snapshot database at dbPath.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(context.Background(), db, schemaVersion, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot store: migration failed: %w", err)
	}
	return &SqliteStore{DB: db}, nil
}

func (s *SqliteStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateID(rec.SessionID); err != nil {
		return err
	}
	buf, err := json.Marshal(rec.Snapshot)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO compare_sessions (session_id, snapshot, revision, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		snapshot = excluded.snapshot,
		revision = excluded.revision,
		updated_at = excluded.updated_at`,
		rec.SessionID, string(buf), int64(rec.Snapshot.Revision), rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *SqliteStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	var raw, updatedAt string
	err := s.DB.QueryRowContext(ctx,
		`SELECT snapshot, updated_at FROM compare_sessions WHERE session_id = ?`, sessionID,
	).Scan(&raw, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{SessionID: sessionID}
	if err := json.Unmarshal([]byte(raw), &rec.Snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", sessionID, err)
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return rec, nil
}

func (s *SqliteStore) Delete(ctx context.Context, sessionID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM compare_sessions WHERE session_id = ?`, sessionID)
	return err
}

func (s *SqliteStore) Backend() string { return BackendSqlite }

func (s *SqliteStore) Close() error { return s.DB.Close() }
