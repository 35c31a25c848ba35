// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/swinglab/internal/catalog"
	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/ManuGH/swinglab/internal/domain/compare/transport"
	"github.com/ManuGH/swinglab/internal/player"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	api *Server
	srv *httptest.Server
	mgr *manager.Manager
	hub *player.Hub
	cat *catalog.Catalog
}

func newTestEnv(t *testing.T, rateLimit int) *testEnv {
	t.Helper()
	dir := t.TempDir()
	hub := player.NewHub(nil)
	mgr := manager.New(manager.Options{Primitives: hub.Primitive, SeekInterval: -1})
	hub.SetManager(mgr)
	cat := catalog.Open(context.Background(), catalog.Options{
		DBPath:   filepath.Join(dir, "catalog.sqlite"),
		MediaDir: filepath.Join(dir, "media"),
		Signer:   catalog.NewSigner("test-key", "/media", time.Hour),
		CacheTTL: time.Minute,
	})
	t.Cleanup(func() { _ = cat.Close() })

	s := New(Deps{
		Manager:           mgr,
		Catalog:           cat,
		Hub:               hub,
		Version:           "test",
		RateLimitRequests: rateLimit,
		RateLimitWindow:   time.Minute,
	})
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &testEnv{api: s, srv: srv, mgr: mgr, hub: hub, cat: cat}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	res, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func (e *testEnv) session(t *testing.T) string {
	t.Helper()
	res, data := e.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var body sessionResponse
	require.NoError(t, json.Unmarshal(data, &body))
	require.NotEmpty(t, body.SessionID)
	return body.SessionID
}

func decodeSession(t *testing.T, data []byte) sessionResponse {
	t.Helper()
	var body sessionResponse
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}

func decodeProblem(t *testing.T, res *http.Response, data []byte) map[string]any {
	t.Helper()
	assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, 0)

	res, data := env.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(data), `"status":"healthy"`)
	assert.Contains(t, string(data), `"sessions":0`)

	res, _ = env.do(t, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, data = env.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(data), "swinglab_http_request_duration_seconds")
}

func TestSession_LoadPlayAndFrameStep(t *testing.T) {
	env := newTestEnv(t, 0)
	id := env.session(t)
	base := "/api/v1/sessions/" + id

	res, data := env.do(t, http.MethodPut, base+"/slots/top/video?trackPx=300&thumbPx=24",
		map[string]any{"uri": "file:///a.mp4", "name": "Mine", "duration": 10})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	body := decodeSession(t, data)
	require.NotNil(t, body.Outcome)
	assert.True(t, body.Outcome.Applied)
	require.NotNil(t, body.Snapshot.Top.Video)
	assert.NotEmpty(t, body.Snapshot.Top.Video.ID, "imported videos get an id")
	assert.Equal(t, model.SlotTop, body.Snapshot.ActiveSlot)
	assert.Equal(t, "0:10.00", body.View.TotalLabel)

	_, data = env.do(t, http.MethodPost, base+"/transport/next-frame", nil)
	body = decodeSession(t, data)
	assert.InDelta(t, 1.0/30.0, body.Snapshot.Top.CurrentTime, 1e-9)

	_, data = env.do(t, http.MethodPost, base+"/transport/play", nil)
	body = decodeSession(t, data)
	assert.True(t, body.Snapshot.IsPlaying)
	assert.Equal(t, transport.StatePlaying, body.Outcome.To)

	_, data = env.do(t, http.MethodPost, base+"/transport/play", nil)
	body = decodeSession(t, data)
	assert.False(t, body.Outcome.Applied, "second play is a no-op")

	_, data = env.do(t, http.MethodPost, base+"/transport/toggle", nil)
	body = decodeSession(t, data)
	assert.False(t, body.Snapshot.IsPlaying)

	_, data = env.do(t, http.MethodPost, base+"/transport/reset", nil)
	body = decodeSession(t, data)
	assert.Equal(t, 0.0, body.Snapshot.Top.CurrentTime)

	res, data = env.do(t, http.MethodPost, base+"/transport/rewind", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, CodeNotFound, decodeProblem(t, res, data)["code"])
}

func TestSession_PlayWithoutVideoIsIgnored(t *testing.T) {
	env := newTestEnv(t, 0)
	id := env.session(t)

	res, data := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/transport/play", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	body := decodeSession(t, data)
	assert.False(t, body.Outcome.Applied)
	assert.Equal(t, engine.ReasonNoVideo, body.Outcome.Reason)
	assert.False(t, body.Snapshot.IsPlaying)
}

func TestSession_GestureScrubsAndPauses(t *testing.T) {
	env := newTestEnv(t, 0)
	id := env.session(t)
	base := "/api/v1/sessions/" + id

	env.do(t, http.MethodPut, base+"/slots/top/video", map[string]any{"id": "a", "uri": "a.mp4", "duration": 10})
	env.do(t, http.MethodPost, base+"/transport/play", nil)

	_, data := env.do(t, http.MethodPost, base+"/gesture", engine.GestureEvent{Phase: "BEGIN", OffsetPx: 150, TrackPx: 300})
	body := decodeSession(t, data)
	assert.True(t, body.Outcome.Applied)
	assert.False(t, body.Snapshot.IsPlaying)
	assert.Equal(t, "dragging", body.Snapshot.Transport)
	assert.InDelta(t, 5.0, body.Snapshot.Top.CurrentTime, 1e-9)

	_, data = env.do(t, http.MethodPost, base+"/gesture", engine.GestureEvent{Phase: engine.PhaseMove, OffsetPx: 900, TrackPx: 300})
	body = decodeSession(t, data)
	assert.InDelta(t, 10.0, body.Snapshot.Top.CurrentTime, 1e-9)

	_, data = env.do(t, http.MethodPost, base+"/gesture", engine.GestureEvent{Phase: engine.PhaseEnd})
	body = decodeSession(t, data)
	assert.Equal(t, "idle", body.Snapshot.Transport)
	assert.False(t, body.Snapshot.IsPlaying)

	res, data := env.do(t, http.MethodPost, base+"/gesture", map[string]any{"phase": "tap"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	decodeProblem(t, res, data)
}

func TestSession_SlotsFlipActiveAndRecents(t *testing.T) {
	env := newTestEnv(t, 0)
	id := env.session(t)
	base := "/api/v1/sessions/" + id

	env.do(t, http.MethodPut, base+"/slots/top/video", map[string]any{"id": "a", "uri": "a.mp4"})
	env.do(t, http.MethodPut, base+"/slots/bottom/video", map[string]any{"id": "b", "uri": "b.mp4"})

	_, data := env.do(t, http.MethodPost, base+"/slots/bottom/duration", map[string]any{"seconds": 4.5})
	body := decodeSession(t, data)
	assert.Equal(t, 4.5, body.Snapshot.Bottom.Duration)

	_, data = env.do(t, http.MethodPost, base+"/slots/top/flip", nil)
	body = decodeSession(t, data)
	assert.True(t, body.Snapshot.Top.Flipped)

	_, data = env.do(t, http.MethodPut, base+"/active", map[string]any{"slot": "top"})
	body = decodeSession(t, data)
	assert.Equal(t, model.SlotTop, body.Snapshot.ActiveSlot)

	_, data = env.do(t, http.MethodPost, base+"/active/swap", nil)
	body = decodeSession(t, data)
	assert.Equal(t, model.SlotBottom, body.Snapshot.ActiveSlot)

	res, data := env.do(t, http.MethodGet, base+"/recents", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var recents struct {
		RecentVideos []model.VideoSource `json:"recentVideos"`
	}
	require.NoError(t, json.Unmarshal(data, &recents))
	require.Len(t, recents.RecentVideos, 2)
	assert.Equal(t, "b", recents.RecentVideos[0].ID)

	_, data = env.do(t, http.MethodDelete, base+"/slots/bottom/video", nil)
	body = decodeSession(t, data)
	assert.Nil(t, body.Snapshot.Bottom.Video)

	res, data = env.do(t, http.MethodPost, base+"/slots/middle/flip", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, CodeInvalidSlot, decodeProblem(t, res, data)["code"])
}

func TestSession_SetVideoValidation(t *testing.T) {
	env := newTestEnv(t, 0)
	base := "/api/v1/sessions/" + env.session(t)

	tests := []struct {
		name string
		body any
	}{
		{"missing uri", map[string]any{"name": "x"}},
		{"negative duration", map[string]any{"uri": "a.mp4", "duration": -1}},
		{"unknown field", map[string]any{"uri": "a.mp4", "speed": 2}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, data := env.do(t, http.MethodPut, base+"/slots/top/video", tt.body)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			problem := decodeProblem(t, res, data)
			assert.Equal(t, CodeBadRequest, problem["code"])
			assert.NotEmpty(t, problem["requestId"])
		})
	}

	res, data := env.do(t, http.MethodPut, base+"/slots/top/video", map[string]any{"proSwingId": "missing"})
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	decodeProblem(t, res, data)
}

func TestSession_LoadFromCatalog(t *testing.T) {
	env := newTestEnv(t, 0)
	base := "/api/v1/sessions/" + env.session(t)

	swings, _ := env.cat.List(context.Background())
	require.NotEmpty(t, swings)

	_, data := env.do(t, http.MethodPut, base+"/slots/bottom/video", map[string]any{"proSwingId": swings[0].ID})
	body := decodeSession(t, data)
	require.NotNil(t, body.Snapshot.Bottom.Video)
	assert.Equal(t, swings[0].ID, body.Snapshot.Bottom.Video.ID)
	assert.Equal(t, model.SlotBottom, body.Snapshot.ActiveSlot)
}

func TestSession_NotFoundAndDelete(t *testing.T) {
	env := newTestEnv(t, 0)

	res, data := env.do(t, http.MethodGet, "/api/v1/sessions/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, CodeNotFound, decodeProblem(t, res, data)["code"])

	res, _ = env.do(t, http.MethodGet, "/api/v1/sessions/bad%20id", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)

	id := env.session(t)
	res, _ = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)

	res, _ = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCatalog_ListRegisterUploadAndServe(t *testing.T) {
	env := newTestEnv(t, 0)

	res, data := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var list catalogListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, catalog.SourceStatic, list.Source)
	assert.Len(t, list.Swings, 5)

	res, data = env.do(t, http.MethodPost, "/api/v1/catalog", catalog.RegisterRequest{Player: "Jon Rahm", Name: "Driver"})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var swing model.ProSwing
	require.NoError(t, json.Unmarshal(data, &swing))
	assert.Equal(t, "Jon Rahm", swing.Golfer)

	res, data = env.do(t, http.MethodPost, "/api/v1/catalog", catalog.RegisterRequest{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	decodeProblem(t, res, data)

	res, _ = env.do(t, http.MethodPut, "/api/v1/catalog/"+swing.ID+"/media", "fake-mp4-bytes")
	require.Equal(t, http.StatusNoContent, res.StatusCode)

	res, data = env.do(t, http.MethodGet, swing.URI, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "fake-mp4-bytes", string(data))
	assert.Equal(t, "video/mp4", res.Header.Get("Content-Type"))

	u, err := url.Parse(swing.URI)
	require.NoError(t, err)
	res, data = env.do(t, http.MethodGet, u.Path, nil)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, CodeSignature, decodeProblem(t, res, data)["code"])

	res, data = env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, catalog.SourceDB, list.Source)

	res, _ = env.do(t, http.MethodGet, "/api/v1/catalog/"+swing.ID, nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = env.do(t, http.MethodPut, "/api/v1/catalog/unknown/media", "x")
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRateLimit_AppliesToAPI(t *testing.T) {
	env := newTestEnv(t, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		res, _ := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
		codes = append(codes, res.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	res, _ := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode, "health is outside the limited group")
}

func TestBridge_OverHTTP(t *testing.T) {
	env := newTestEnv(t, 0)
	id := env.session(t)
	base := "/api/v1/sessions/" + id
	env.do(t, http.MethodPut, base+"/slots/top/video", map[string]any{"id": "a", "uri": "a.mp4", "duration": 8})

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + base + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var sawCommand bool
	for !sawCommand {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg player.Outbound
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == player.MsgCommand {
			assert.Equal(t, model.SlotTop, msg.Slot)
			assert.Equal(t, engine.OpSeekAndPause, msg.Op)
			sawCommand = true
		}
	}

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.srv.URL, "http")+"/api/v1/sessions/nope/ws", nil)
	assert.Error(t, err)
}
