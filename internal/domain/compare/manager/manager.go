// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package manager owns the live compare sessions: it creates and restores
// engines, serialises access to each one and persists their snapshots.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/domain/compare/store"
	"github.com/ManuGH/swinglab/internal/domain/compare/transport"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/ManuGH/swinglab/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var ErrSessionNotFound = errors.New("compare session not found")

// PrimitiveFactory builds the default primitive for a slot of a new session.
type PrimitiveFactory func(sessionID string, slot model.Slot) engine.Primitive

type Options struct {
	Store        store.Store
	SeekInterval time.Duration
	Primitives   PrimitiveFactory
	Now          func() time.Time
	Logger       *zerolog.Logger
}

// Session is one live compare engine guarded by its own mutex.
type Session struct {
	ID string

	mu      sync.Mutex
	eng     *engine.Engine
	deleted bool
}

// Manager owns all live sessions.
type Manager struct {
	opts   Options
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func New(opts Options) *Manager {
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := xglog.WithComponent("compare-manager")
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Manager{
		opts:     opts,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) newEngine(id string) *engine.Engine {
	logger := m.logger.With().Str(xglog.FieldSessionID, id).Logger()
	opts := engine.Options{
		Logger:       &logger,
		SeekInterval: m.opts.SeekInterval,
		Now:          m.opts.Now,
	}
	if m.opts.Primitives != nil {
		opts.Top = m.opts.Primitives(id, model.SlotTop)
		opts.Bottom = m.opts.Primitives(id, model.SlotBottom)
	}
	return engine.New(opts)
}

// Create starts an empty session and persists it.
func (m *Manager) Create(ctx context.Context) (*Session, model.Snapshot, error) {
	id := uuid.NewString()
	s := &Session{ID: id, eng: m.newEngine(id)}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)

	snap := s.eng.Snapshot()
	m.persist(ctx, id, snap)

	logger := xglog.WithContext(ctx, m.logger)
	logger.Info().
		Str(xglog.FieldEvent, "compare.session_created").
		Str(xglog.FieldSessionID, id).
		Msg("compare session created")
	return s, snap, nil
}

// Get returns a live session, restoring it from the store if needed.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	if err := store.ValidateID(id); err != nil {
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}

	rec, err := m.opts.Store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if rec == nil {
		return nil, ErrSessionNotFound
	}

	eng := m.newEngine(id)
	eng.Restore(ctx, rec.Snapshot)
	restored := &Session{ID: id, eng: eng}

	m.mu.Lock()
	// another request may have restored it meanwhile
	if s, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.sessions[id] = restored
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)

	logger := xglog.WithContext(ctx, m.logger)
	logger.Info().
		Str(xglog.FieldEvent, "compare.session_restored").
		Str(xglog.FieldSessionID, id).
		Time("updated_at", rec.UpdatedAt).
		Msg("compare session restored from store")
	return restored, nil
}

// Delete drops a session from memory and the store. Commands still in flight
// on the session finish without persisting and report ErrSessionNotFound.
func (m *Manager) Delete(ctx context.Context, id string) error {
	s, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return ErrSessionNotFound
	}
	// drop the record before the map entry so a concurrent Get cannot
	// restore it
	if err := m.opts.Store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	s.deleted = true

	m.mu.Lock()
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.SetActiveSessions(n)

	logger := xglog.WithContext(ctx, m.logger)
	logger.Info().
		Str(xglog.FieldEvent, "compare.session_deleted").
		Str(xglog.FieldSessionID, id).
		Msg("compare session deleted")
	return nil
}

// IDs lists the live (in-memory) sessions.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Do runs one engine command for session id and persists the result. The
// snapshot is written while the session is locked, so store writes follow
// revision order.
func (m *Manager) Do(ctx context.Context, id string, fn func(*engine.Engine) engine.Outcome) (engine.Outcome, model.Snapshot, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return engine.Outcome{}, model.Snapshot{}, err
	}
	ctx = xglog.ContextWithSessionID(ctx, id)
	ctx, span := telemetry.Tracer("compare").Start(ctx, "compare.command")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return engine.Outcome{}, model.Snapshot{}, ErrSessionNotFound
	}
	out := fn(s.eng)
	snap := s.eng.Snapshot()
	span.SetAttributes(telemetry.CommandAttributes(id, out.Command, out.Applied, out.Reason, string(out.From), string(out.To))...)
	if out.Applied && shouldPersist(out) {
		m.persist(ctx, id, snap)
	}
	return out, snap, nil
}

// With runs fn against the session's engine without persisting. It is used for
// reads and for wiring that is not a store mutation.
func (m *Manager) With(ctx context.Context, id string, fn func(*engine.Engine)) (model.Snapshot, error) {
	s, err := m.Get(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleted {
		return model.Snapshot{}, ErrSessionNotFound
	}
	fn(s.eng)
	return s.eng.Snapshot(), nil
}

// Snapshot returns the current state of session id.
func (m *Manager) Snapshot(ctx context.Context, id string) (model.Snapshot, error) {
	return m.With(ctx, id, func(*engine.Engine) {})
}

// shouldPersist skips the high-rate commands; their final position is
// written by the gesture end or the stop that follows.
func shouldPersist(out engine.Outcome) bool {
	switch out.Command {
	case string(transport.EvGestureMove):
		return false
	case engine.CmdAdvance, engine.CmdObservePosition:
		return out.From != out.To
	default:
		return true
	}
}

func (m *Manager) persist(ctx context.Context, id string, snap model.Snapshot) {
	err := m.opts.Store.Put(ctx, &store.Record{SessionID: id, Snapshot: snap, UpdatedAt: m.opts.Now()})
	metrics.RecordSnapshotPersist(m.opts.Store.Backend(), err)
	if err != nil {
		logger := xglog.WithContext(ctx, m.logger)
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "compare.persist_failed").
			Str(xglog.FieldSessionID, id).
			Msg("failed to persist session snapshot")
	}
}

// Close persists every live session. The store itself is owned by the caller.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.mu.Lock()
		if !s.deleted {
			m.persist(ctx, s.ID, s.eng.Snapshot())
		}
		s.mu.Unlock()
	}
}
