// SPDX-License-Identifier: MIT

// Package health serves the liveness and readiness probes of the compare
// service. Components register a Checker; readiness fails only when a checker
// reports unhealthy, degraded components are surfaced but keep the service
// ready.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/swinglab/internal/log"
)

// Status represents the overall health/readiness status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component health check
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse represents the full health check response
type HealthResponse struct {
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Details   map[string]any         `json:"details,omitempty"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker defines the interface for health checks
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager manages health and readiness checks
type Manager struct {
	version string

	mu       sync.RWMutex
	checkers []Checker
	details  func() map[string]any
	now      func() time.Time
}

// NewManager creates a new health check manager
func NewManager(version string) *Manager {
	return &Manager{version: version, now: time.Now}
}

// RegisterChecker adds a health checker to the manager
func (m *Manager) RegisterChecker(checker Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkers = append(m.checkers, checker)
}

// SetDetails installs a provider for the free-form details of the liveness
// response (live session count and similar).
func (m *Manager) SetDetails(fn func() map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = fn
}

func (m *Manager) snapshot() ([]Checker, func() map[string]any) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Checker(nil), m.checkers...), m.details
}

func runChecks(ctx context.Context, checkers []Checker) (map[string]CheckResult, Status) {
	results := make(map[string]CheckResult, len(checkers))
	overall := StatusHealthy
	for _, checker := range checkers {
		result := checker.Check(ctx)
		results[checker.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}
	return results, overall
}

// Health performs a liveness check. Component checks only run when verbose.
func (m *Manager) Health(ctx context.Context, verbose bool) HealthResponse {
	checkers, details := m.snapshot()
	resp := HealthResponse{
		Status:    StatusHealthy,
		Version:   m.version,
		Timestamp: m.now(),
	}
	if details != nil {
		resp.Details = details()
	}
	if verbose && len(checkers) > 0 {
		resp.Checks, resp.Status = runChecks(ctx, checkers)
	}
	return resp
}

// Ready performs a readiness check.
func (m *Manager) Ready(ctx context.Context) ReadinessResponse {
	checkers, _ := m.snapshot()
	resp := ReadinessResponse{
		Ready:     true,
		Status:    StatusHealthy,
		Timestamp: m.now(),
	}
	if len(checkers) == 0 {
		return resp
	}
	resp.Checks, resp.Status = runChecks(ctx, checkers)
	resp.Ready = resp.Status != StatusUnhealthy
	return resp
}

// ServeHealth handles HTTP health check requests
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "health")
	verbose := r.URL.Query().Get("verbose") == "true"

	resp := m.Health(r.Context(), verbose)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK) // Always 200 for liveness
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", "health.encode_error").Msg("failed to encode health response")
	}
}

// ServeReady handles HTTP readiness check requests
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "readiness")

	resp := m.Ready(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if resp.Ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error().Err(err).Str("event", "readiness.encode_error").Msg("failed to encode readiness response")
	}

	logger.Debug().
		Str("event", "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

// PingChecker adapts a ping function. A failing ping reports failStatus, so
// optional dependencies can degrade instead of failing readiness.
type PingChecker struct {
	name       string
	ping       func(ctx context.Context) error
	failStatus Status
	timeout    time.Duration
}

// NewPingChecker creates a checker that calls ping with a 2s timeout.
func NewPingChecker(name string, failStatus Status, ping func(ctx context.Context) error) *PingChecker {
	return &PingChecker{name: name, ping: ping, failStatus: failStatus, timeout: 2 * time.Second}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: c.failStatus, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// DirChecker verifies that a directory exists and is writable.
type DirChecker struct {
	name string
	path string
}

// NewDirChecker creates a checker for a writable directory.
func NewDirChecker(name, path string) *DirChecker {
	return &DirChecker{name: name, path: path}
}

func (c *DirChecker) Name() string { return c.name }

func (c *DirChecker) Check(_ context.Context) CheckResult {
	if err := CheckWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy}
}

// CheckWritableDir fails unless path is an existing directory that accepts a
// new file.
func CheckWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)
	return nil
}
