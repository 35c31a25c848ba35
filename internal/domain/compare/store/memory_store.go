// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in a map. Records are copied on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]*Record)}
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	if err := ValidateID(rec.SessionID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.SessionID] = cloneRecord(rec)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.data[sessionID]; ok {
		return cloneRecord(rec), nil
	}
	return nil, nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *MemoryStore) Backend() string { return BackendMemory }

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.data = make(map[string]*Record)
	s.mu.Unlock()
	return nil
}
