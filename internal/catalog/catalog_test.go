// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/swinglab/internal/cache"
	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestCatalog(t *testing.T, c cache.Cache) *Catalog {
	t.Helper()
	dir := t.TempDir()
	cat := Open(context.Background(), Options{
		DBPath:   filepath.Join(dir, "catalog.sqlite"),
		MediaDir: filepath.Join(dir, "media"),
		Signer:   NewSigner("test-key", "/media", time.Hour),
		Cache:    c,
		CacheTTL: time.Minute,
	})
	t.Cleanup(func() { _ = cat.Close() })
	return cat
}

func TestList_FallsBackToStaticWithoutDB(t *testing.T) {
	cat := Open(context.Background(), Options{})

	swings, src := cat.List(context.Background())

	assert.Equal(t, SourceStatic, src)
	require.Len(t, swings, 5)
	assert.Equal(t, "Power Swing", swings[0].Name)
	assert.Equal(t, "Mike Trout", swings[0].Golfer)
	assert.Equal(t, "Ronald Acuña Jr.", swings[3].Golfer)
}

func TestList_EmptyTableFallsBackToStatic(t *testing.T) {
	cat := openTestCatalog(t, nil)
	_, src := cat.List(context.Background())
	assert.Equal(t, SourceStatic, src)
}

func TestRegisterAndList_OrderedByPlayer(t *testing.T) {
	ctx := context.Background()
	cat := openTestCatalog(t, nil)

	for _, p := range []string{"Zach Johnson", "Ángel Cabrera", "Adam Scott"} {
		_, err := cat.Register(ctx, RegisterRequest{Player: p, Name: p + " driver"})
		require.NoError(t, err)
	}

	swings, src := cat.List(ctx)
	require.Equal(t, SourceDB, src)
	var players []string
	for _, s := range swings {
		players = append(players, s.Golfer)
		assert.Contains(t, s.URI, "sig=")
		assert.True(t, strings.HasPrefix(s.URI, "/media/"), s.URI)
	}
	assert.Equal(t, []string{"Adam Scott", "Ángel Cabrera", "Zach Johnson"}, players)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	cat := openTestCatalog(t, nil)

	_, err := cat.Register(ctx, RegisterRequest{Player: "  "})
	assert.ErrorIs(t, err, ErrInvalidEntry)

	bad := -3.0
	_, err = cat.Register(ctx, RegisterRequest{Player: "Rory", Duration: &bad})
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestList_UsesRedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: mr.Addr(), Prefix: "swinglab:"}, zerolog.Nop())
	require.NoError(t, err)
	cat := openTestCatalog(t, rc)

	_, err = cat.Register(ctx, RegisterRequest{Player: "Nelly Korda"})
	require.NoError(t, err)

	_, src := cat.List(ctx)
	assert.Equal(t, SourceDB, src)
	swings, src := cat.List(ctx)
	assert.Equal(t, SourceCache, src)
	require.Len(t, swings, 1)
	assert.Equal(t, "Nelly Korda", swings[0].Name)

	// registration invalidates the cached listing
	_, err = cat.Register(ctx, RegisterRequest{Player: "Lydia Ko"})
	require.NoError(t, err)
	swings, src = cat.List(ctx)
	assert.Equal(t, SourceDB, src)
	assert.Len(t, swings, 2)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	cat := Open(ctx, Options{})

	s, err := cat.Get(ctx, "3")
	require.NoError(t, err)
	assert.Equal(t, "Aaron Judge", s.Golfer)

	_, err = cat.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMediaFileName(t *testing.T) {
	at := time.UnixMilli(1717171717171)
	assert.Equal(t, "tiger_woods_1717171717171.mp4", MediaFileName("Tiger  Woods", at))
	assert.Equal(t, "tiger woods", ParseMediaFileName("tiger_woods_1717171717171.mp4"))
	assert.Equal(t, "Professional", ParseMediaFileName(".mp4"))
}

func TestPutMediaAndResolve(t *testing.T) {
	ctx := context.Background()
	cat := openTestCatalog(t, nil)
	entry, err := cat.Register(ctx, RegisterRequest{Player: "Jon Rahm"})
	require.NoError(t, err)

	require.NoError(t, cat.PutMedia(ctx, entry.ID, strings.NewReader("fake-mp4")))

	u, err := url.Parse(entry.URI)
	require.NoError(t, err)
	name := strings.TrimPrefix(u.Path, "/media/")
	path, err := cat.MediaPath(name, u.Query())
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fake-mp4", string(data))

	_, err = cat.MediaPath(name, url.Values{})
	assert.ErrorIs(t, err, ErrSignatureInvalid)
	_, err = cat.MediaPath("../secret", u.Query())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, cat.PutMedia(ctx, "nope", strings.NewReader("x")), ErrNotFound)
}

func TestPing(t *testing.T) {
	cat := openTestCatalog(t, nil)
	assert.NoError(t, cat.Ping(context.Background()))

	bare := Open(context.Background(), Options{})
	assert.ErrorIs(t, bare.Ping(context.Background()), ErrUnavailable)
}
