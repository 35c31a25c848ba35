// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/google/renameio/v2"
)

// FileStore writes one JSON file per session. Writes are atomic and durable.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *FileStore) Put(ctx context.Context, rec *Record) error {
	if err := ValidateID(rec.SessionID); err != nil {
		return err
	}
	buf, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}

	pending, err := renameio.NewPendingFile(s.path(rec.SessionID), renameio.WithPermissions(0o640))
	if err != nil {
		return fmt.Errorf("create pending snapshot file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			xglog.FromContext(ctx).Debug().Err(err).Msg("cleanup pending snapshot file")
		}
	}()

	if _, err := pending.Write(buf); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace snapshot: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, sessionID string) (*Record, error) {
	if ValidateID(sessionID) != nil {
		return nil, nil
	}
	buf, err := os.ReadFile(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(buf, &rec); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	if ValidateID(sessionID) != nil {
		return nil
	}
	err := os.Remove(s.path(sessionID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStore) Backend() string { return BackendFile }

func (s *FileStore) Close() error { return nil }
