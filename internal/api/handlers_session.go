// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/player"
	"github.com/go-chi/chi/v5"
)

// sessionResponse is the body of every session endpoint: the store snapshot,
// the derived scrubber view and, for commands, the outcome.
type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	Snapshot  model.Snapshot  `json:"snapshot"`
	View      engine.View     `json:"view"`
	Outcome   *engine.Outcome `json:"outcome,omitempty"`
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}

// decodeBody decodes a bounded JSON body, writing a problem on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeProblem(w, r, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.deps.Manager.Create(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondView(w, r, sess.ID, http.StatusCreated)
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	s.respondView(w, r, sessionID(r), http.StatusOK)
}

func (s *Server) respondView(w http.ResponseWriter, r *http.Request, id string, status int) {
	geo := player.GeometryFromQuery(r.URL.Query())
	var view engine.View
	snap, err := s.deps.Manager.With(r.Context(), id, func(e *engine.Engine) {
		view = e.View(geo)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, sessionResponse{SessionID: id, Snapshot: snap, View: view})
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if err := s.deps.Manager.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	s.deps.Hub.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRecents(w http.ResponseWriter, r *http.Request) {
	var recents model.RecentVideos
	_, err := s.deps.Manager.With(r.Context(), sessionID(r), func(e *engine.Engine) {
		recents = e.Recents()
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recentVideos": recents})
}

// handleBridge upgrades to the playback websocket.
func (s *Server) handleBridge(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := s.deps.Manager.Get(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Hub.Serve(w, r, id); err != nil {
		if errors.Is(err, player.ErrNoManager) {
			writeError(w, r, err)
			return
		}
		// the upgrader has already replied
		s.logger.Debug().Err(err).Str("session_id", id).Msg("bridge upgrade failed")
	}
}
