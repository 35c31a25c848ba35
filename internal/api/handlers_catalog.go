// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/go-chi/chi/v5"
)

type catalogListResponse struct {
	Source catalog.Source   `json:"source"`
	Swings []model.ProSwing `json:"swings"`
}

func (s *Server) handleCatalogList(w http.ResponseWriter, r *http.Request) {
	swings, src := s.deps.Catalog.List(r.Context())
	writeJSON(w, http.StatusOK, catalogListResponse{Source: src, Swings: swings})
}

func (s *Server) handleCatalogGet(w http.ResponseWriter, r *http.Request) {
	swing, err := s.deps.Catalog.Get(r.Context(), chi.URLParam(r, "swingID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, swing)
}

func (s *Server) handleCatalogRegister(w http.ResponseWriter, r *http.Request) {
	var req catalog.RegisterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	swing, err := s.deps.Catalog.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, swing)
}

// handleCatalogMedia stores the raw request body as the entry's video.
func (s *Server) handleCatalogMedia(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Catalog.PutMedia(r.Context(), chi.URLParam(r, "swingID"), r.Body); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMedia serves a signed media link.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	path, err := s.deps.Catalog.MediaPath(chi.URLParam(r, "name"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := os.Open(path) // #nosec G304 -- path is confined to the media dir by MediaPath
	if errors.Is(err, os.ErrNotExist) {
		writeError(w, r, catalog.ErrNotFound)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "private, max-age=300")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
