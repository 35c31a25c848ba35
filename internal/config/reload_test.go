// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newHolder(t *testing.T, body string) (*ConfigHolder, string) {
	t.Helper()
	dir := t.TempDir()
	path := writeConfig(t, dir, "dataDir: "+dir+"\n"+body)
	loader := NewLoader(path, "test")
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewConfigHolder(cfg, loader), path
}

func TestConfigHolder_ReloadSwapsAndNotifies(t *testing.T) {
	h, path := newHolder(t, "logLevel: info\n")
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	body := "dataDir: " + h.Get().DataDir + "\nlogLevel: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, "debug", h.Get().LogLevel)
	select {
	case got := <-ch:
		assert.Equal(t, "debug", got.LogLevel)
	default:
		t.Fatal("listener not notified")
	}
}

func TestConfigHolder_InvalidReloadKeepsOld(t *testing.T) {
	h, path := newHolder(t, "logLevel: warn\n")

	require.NoError(t, os.WriteFile(path, []byte("logLevel: shouting\n"), 0o600))
	err := h.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, "warn", h.Get().LogLevel)

	require.NoError(t, os.WriteFile(path, []byte("bogus: true\n"), 0o600))
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "warn", h.Get().LogLevel)
}

func TestConfigHolder_FullListenerIsSkipped(t *testing.T) {
	h, _ := newHolder(t, "")
	ch := make(chan AppConfig)
	h.RegisterListener(ch)
	require.NoError(t, h.Reload(context.Background()))
}

func TestConfigHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewConfigHolder(Defaults(), NewLoader("", ""))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}

func TestConfigHolder_WatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	h, path := newHolder(t, "logLevel: info\n")
	h.debounce = 20 * time.Millisecond
	ch := make(chan AppConfig, 4)
	h.RegisterListener(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))

	body := "dataDir: " + h.Get().DataDir + "\nlogLevel: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	select {
	case got := <-ch:
		assert.Equal(t, "error", got.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.Equal(t, "error", h.Get().LogLevel)

	cancel()
	h.Stop()
}
