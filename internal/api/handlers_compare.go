// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/player"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// command runs fn against the session engine and replies with the outcome.
// Ignored commands are not errors: they answer 200 with applied=false.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(context.Context, *engine.Engine) engine.Outcome) {
	ctx := r.Context()
	id := sessionID(r)
	geo := player.GeometryFromQuery(r.URL.Query())

	var view engine.View
	out, snap, err := s.deps.Manager.Do(ctx, id, func(e *engine.Engine) engine.Outcome {
		o := fn(ctx, e)
		view = e.View(geo)
		return o
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{SessionID: id, Snapshot: snap, View: view, Outcome: &out})
}

func slotParam(w http.ResponseWriter, r *http.Request) (model.Slot, bool) {
	slot, err := model.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	return slot, true
}

// setVideoRequest loads either a catalog entry (proSwingId) or an imported
// video described inline. Imported videos without an id get a fresh one.
type setVideoRequest struct {
	ProSwingID string   `json:"proSwingId,omitempty"`
	ID         string   `json:"id,omitempty"`
	URI        string   `json:"uri,omitempty"`
	Name       string   `json:"name,omitempty"`
	Thumbnail  string   `json:"thumbnail,omitempty"`
	Duration   *float64 `json:"duration,omitempty"`
}

func (s *Server) resolveVideo(ctx context.Context, req setVideoRequest) (*model.VideoSource, error) {
	if req.ProSwingID != "" {
		swing, err := s.deps.Catalog.Get(ctx, req.ProSwingID)
		if err != nil {
			return nil, err
		}
		v := swing.VideoSource
		return &v, nil
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	return &model.VideoSource{
		ID:        id,
		URI:       req.URI,
		Name:      req.Name,
		Thumbnail: req.Thumbnail,
		Duration:  req.Duration,
	}, nil
}

func (s *Server) handleSetVideo(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var req setVideoRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProSwingID == "" && strings.TrimSpace(req.URI) == "" {
		writeProblem(w, r, http.StatusBadRequest, CodeBadRequest, "uri or proSwingId is required")
		return
	}
	if req.Duration != nil && !(*req.Duration >= 0) {
		writeProblem(w, r, http.StatusBadRequest, CodeBadRequest, "duration must be >= 0")
		return
	}
	video, err := s.resolveVideo(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.SetSlotVideo(ctx, slot, video)
	})
}

func (s *Server) handleClearVideo(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.SetSlotVideo(ctx, slot, nil)
	})
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.ToggleFlip(ctx, slot)
	})
}

type durationRequest struct {
	Seconds float64 `json:"seconds"`
}

// handleDuration reports a slot's natural duration, for clients that load
// media without the websocket bridge.
func (s *Server) handleDuration(w http.ResponseWriter, r *http.Request) {
	slot, ok := slotParam(w, r)
	if !ok {
		return
	}
	var req durationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.DurationLoaded(ctx, slot, req.Seconds)
	})
}

type activeRequest struct {
	Slot string `json:"slot"`
}

func (s *Server) handleSetActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	slot, err := model.ParseSlot(req.Slot)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.SetActiveSlot(ctx, slot)
	})
}

func (s *Server) handleSwapActive(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.SwapActiveSlot(ctx)
	})
}

var transportActions = map[string]func(*engine.Engine, context.Context) engine.Outcome{
	"play":           (*engine.Engine).Play,
	"pause":          (*engine.Engine).Pause,
	"toggle":         (*engine.Engine).TogglePlay,
	"next-frame":     (*engine.Engine).NextFrame,
	"previous-frame": (*engine.Engine).PreviousFrame,
	"reset":          (*engine.Engine).Reset,
}

func (s *Server) handleTransport(w http.ResponseWriter, r *http.Request) {
	action := chi.URLParam(r, "action")
	fn, ok := transportActions[action]
	if !ok {
		writeProblem(w, r, http.StatusNotFound, CodeNotFound, "unknown transport action "+action)
		return
	}
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return fn(e, ctx)
	})
}

func (s *Server) handleGesture(w http.ResponseWriter, r *http.Request) {
	var g engine.GestureEvent
	if !decodeBody(w, r, &g) {
		return
	}
	phase, err := engine.ParseGesturePhase(string(g.Phase))
	if err != nil {
		writeProblem(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	g.Phase = phase
	s.command(w, r, func(ctx context.Context, e *engine.Engine) engine.Outcome {
		return e.Gesture(ctx, g)
	})
}
