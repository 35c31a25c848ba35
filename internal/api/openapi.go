// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	_ "embed"
	"net/http"
)

// OpenAPISpec is the OpenAPI 3 description of /api/v1.
//
//go:embed openapi.yaml
var OpenAPISpec []byte

func (s *Server) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(OpenAPISpec)
}
