// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store persists compare session snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/model"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendBadger = "badger"
	BackendFile   = "file"
)

var (
	ErrUnknownBackend = errors.New("unknown snapshot store backend")
	ErrInvalidID      = errors.New("invalid session id")
)

// Record is one persisted session.
type Record struct {
	SessionID string         `json:"sessionId"`
	Snapshot  model.Snapshot `json:"snapshot"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Store persists session records. Get returns (nil, nil) for unknown ids.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	Delete(ctx context.Context, sessionID string) error
	Backend() string
	Close() error
}

// Open creates a store for backend rooted at dir. An empty backend selects
// sqlite; sqlite with no dir degrades to memory.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendSqlite:
		if dir == "" {
			return NewMemoryStore(), nil
		}
		return NewSqliteStore(filepath.Join(dir, "sessions.sqlite"))
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBadger:
		if dir == "" {
			return nil, fmt.Errorf("badger snapshot store requires a data dir")
		}
		return NewBadgerStore(filepath.Join(dir, "sessions.badger"))
	case BackendFile:
		if dir == "" {
			return nil, fmt.Errorf("file snapshot store requires a data dir")
		}
		return NewFileStore(filepath.Join(dir, "sessions"))
	default:
		return nil, fmt.Errorf("%w: %s (supported: sqlite, memory, badger, file)", ErrUnknownBackend, backend)
	}
}

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidateID rejects ids that could not be used as a file name or key.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func cloneRecord(rec *Record) *Record {
	out := *rec
	out.Snapshot.Top = rec.Snapshot.Top.Clone()
	out.Snapshot.Bottom = rec.Snapshot.Bottom.Clone()
	if rec.Snapshot.DragProgress != nil {
		p := *rec.Snapshot.DragProgress
		out.Snapshot.DragProgress = &p
	}
	out.Snapshot.RecentVideos = make(model.RecentVideos, 0, len(rec.Snapshot.RecentVideos))
	for _, v := range rec.Snapshot.RecentVideos {
		out.Snapshot.RecentVideos = append(out.Snapshot.RecentVideos, *v.Clone())
	}
	return &out
}
