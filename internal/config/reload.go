// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 500 * time.Millisecond

// ConfigHolder holds configuration with atomic reloading capability.
// It provides thread-safe access to configuration and supports hot reloading
// from file or manual trigger.
type ConfigHolder struct {
	mu         sync.RWMutex
	current    AppConfig
	loader     *Loader
	configPath string
	logger     zerolog.Logger
	debounce   time.Duration

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}

	reloadMu        sync.RWMutex
	reloadListeners []chan<- AppConfig
}

// NewConfigHolder creates a new configuration holder with initial config.
func NewConfigHolder(initial AppConfig, loader *Loader) *ConfigHolder {
	return &ConfigHolder{
		current:    initial,
		loader:     loader,
		configPath: loader.ConfigPath(),
		logger:     xglog.WithComponent("config"),
		debounce:   reloadDebounce,
	}
}

// Get returns the current configuration (thread-safe read).
func (h *ConfigHolder) Get() AppConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reload reloads configuration from file and validates it.
// If loading or validation fails the old configuration is kept.
func (h *ConfigHolder) Reload(_ context.Context) error {
	h.logger.Info().Str("event", "config.reload_start").Msg("reloading configuration")

	newCfg, err := h.loader.Load()
	metrics.RecordConfigReload(err)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("event", "config.reload_failed").
			Msg("failed to load new configuration")
		return fmt.Errorf("load config: %w", err)
	}

	h.mu.Lock()
	oldCfg := h.current
	h.current = newCfg
	h.mu.Unlock()

	h.notifyListeners(newCfg)
	h.logChanges(oldCfg, newCfg)

	h.logger.Info().
		Str("event", "config.reload_success").
		Msg("configuration reloaded successfully")
	return nil
}

// StartWatcher starts watching the config file for changes.
// If no config file is in use, this is a no-op (config comes from ENV only).
func (h *ConfigHolder) StartWatcher(ctx context.Context) error {
	if h.configPath == "" {
		h.logger.Info().
			Str("event", "config.watcher_disabled").
			Msg("config file watcher disabled (using ENV-only configuration)")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// Editors often replace the file; watching the directory survives renames.
	if err := watcher.Add(filepath.Dir(h.configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch config dir: %w", err)
	}

	h.watchMu.Lock()
	h.watcher = watcher
	h.done = make(chan struct{})
	done := h.done
	h.watchMu.Unlock()

	h.logger.Info().
		Str("event", "config.watcher_started").
		Str("path", h.configPath).
		Msg("watching config file for changes")

	go h.watchLoop(ctx, watcher, done)
	return nil
}

func (h *ConfigHolder) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	target := filepath.Clean(h.configPath)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str("event", "config.watcher_stopped").Msg("config watcher stopped")
			_ = watcher.Close()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			h.logger.Debug().
				Str("event", "config.file_changed").
				Str("op", event.Op.String()).
				Msg("config file changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(h.debounce, func() {
				if err := h.Reload(ctx); err != nil {
					h.logger.Error().
						Err(err).
						Str("event", "config.auto_reload_failed").
						Msg("automatic config reload failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().
				Err(err).
				Str("event", "config.watcher_error").
				Msg("config watcher error")
		}
	}
}

// Stop stops the config watcher (if running) and waits for it to exit.
func (h *ConfigHolder) Stop() {
	h.watchMu.Lock()
	watcher, done := h.watcher, h.done
	h.watcher, h.done = nil, nil
	h.watchMu.Unlock()

	if watcher == nil {
		return
	}
	_ = watcher.Close()
	<-done
}

// RegisterListener registers a channel to receive config reload notifications.
// The channel will receive the new config whenever a reload succeeds.
// The caller is responsible for closing the channel.
func (h *ConfigHolder) RegisterListener(ch chan<- AppConfig) {
	h.reloadMu.Lock()
	defer h.reloadMu.Unlock()
	h.reloadListeners = append(h.reloadListeners, ch)
}

// notifyListeners sends the new config to all registered listeners (non-blocking).
func (h *ConfigHolder) notifyListeners(newCfg AppConfig) {
	h.reloadMu.RLock()
	defer h.reloadMu.RUnlock()

	for _, ch := range h.reloadListeners {
		select {
		case ch <- newCfg:
		default:
			h.logger.Warn().
				Str("event", "config.listener_skip").
				Msg("skipped notifying listener (channel full)")
		}
	}
}

// logChanges logs the settings that can take effect without a restart.
func (h *ConfigHolder) logChanges(old, newCfg AppConfig) {
	if old.LogLevel != newCfg.LogLevel {
		h.logger.Info().
			Str("old", old.LogLevel).
			Str("new", newCfg.LogLevel).
			Msg("config changed: logLevel")
	}
	if old.Playback.SeekInterval != newCfg.Playback.SeekInterval {
		h.logger.Info().
			Dur("old", old.Playback.SeekInterval).
			Dur("new", newCfg.Playback.SeekInterval).
			Msg("config changed: playback.seekInterval")
	}
	if old.Catalog.CacheTTL != newCfg.Catalog.CacheTTL {
		h.logger.Info().
			Dur("old", old.Catalog.CacheTTL).
			Dur("new", newCfg.Catalog.CacheTTL).
			Msg("config changed: catalog.cacheTTL")
	}
	if old.ListenAddr != newCfg.ListenAddr {
		h.logger.Warn().
			Str("old", old.ListenAddr).
			Str("new", newCfg.ListenAddr).
			Msg("config changed: listenAddr (requires restart)")
	}
	if old.Store.Backend != newCfg.Store.Backend {
		h.logger.Warn().
			Str("old", old.Store.Backend).
			Str("new", newCfg.Store.Backend).
			Msg("config changed: store.backend (requires restart)")
	}
}
