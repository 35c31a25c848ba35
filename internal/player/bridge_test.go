// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func setup(t *testing.T) (*Hub, *manager.Manager, string) {
	t.Helper()
	hub := NewHub(nil)
	mgr := manager.New(manager.Options{Primitives: hub.Primitive, SeekInterval: -1})
	hub.SetManager(mgr)

	ctx := context.Background()
	s, _, err := mgr.Create(ctx)
	require.NoError(t, err)
	d := 10.0
	_, _, err = mgr.Do(ctx, s.ID, func(e *engine.Engine) engine.Outcome {
		return e.SetSlotVideo(ctx, model.SlotTop, &model.VideoSource{ID: "v", URI: "v.mp4", Name: "v", Duration: &d})
	})
	require.NoError(t, err)
	return hub, mgr, s.ID
}

func dial(t *testing.T, hub *Hub, id string) (*websocket.Conn, func()) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, id)
	}))
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"?trackPx=300&thumbPx=24", nil)
	require.NoError(t, err)
	return conn, func() {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
		srv.Close()
	}
}

// next reads messages until one matches.
func next(t *testing.T, conn *websocket.Conn, match func(Outbound) bool) Outbound {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Outbound
		require.NoError(t, json.Unmarshal(data, &msg))
		if match(msg) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, in Inbound) {
	t.Helper()
	buf, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, buf))
}

func TestBridge_AttachResyncsAndForwardsCommands(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, mgr, id := setup(t)
	conn, closeAll := dial(t, hub, id)
	defer closeAll()

	state := next(t, conn, func(m Outbound) bool { return m.Type == MsgState })
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, "v", state.Snapshot.Top.Video.ID)

	cmd := next(t, conn, func(m Outbound) bool { return m.Type == MsgCommand })
	assert.Equal(t, model.SlotTop, cmd.Slot)
	assert.Equal(t, engine.OpSeekAndPause, cmd.Op)
	require.NotNil(t, cmd.Time)
	assert.Equal(t, 0.0, *cmd.Time)

	send(t, conn, Inbound{Type: MsgDurationLoaded, Slot: model.SlotTop, Seconds: 12})
	st := next(t, conn, func(m Outbound) bool { return m.Type == MsgState && m.Snapshot.Top.Duration == 12 })
	assert.Equal(t, 12.0, st.Snapshot.Top.Duration)
	require.NotNil(t, st.View)
	assert.Equal(t, "0:12.00", st.View.TotalLabel)

	_, _, err := mgr.Do(context.Background(), id, func(e *engine.Engine) engine.Outcome { return e.Play(context.Background()) })
	require.NoError(t, err)
	play := next(t, conn, func(m Outbound) bool { return m.Type == MsgCommand && m.Op == engine.OpPlayFrom })
	assert.Equal(t, model.SlotTop, play.Slot)

	send(t, conn, Inbound{Type: MsgFinished, Slot: model.SlotTop})
	done := next(t, conn, func(m Outbound) bool { return m.Type == MsgState && !m.Snapshot.IsPlaying })
	assert.Equal(t, 12.0, done.Snapshot.Top.CurrentTime)
}

func TestBridge_GestureOverSocket(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, _, id := setup(t)
	conn, closeAll := dial(t, hub, id)
	defer closeAll()
	next(t, conn, func(m Outbound) bool { return m.Type == MsgState })

	send(t, conn, Inbound{Type: MsgGesture, Gesture: &engine.GestureEvent{Phase: engine.PhaseBegin, OffsetPx: 25, TrackPx: 100}})
	cmd := next(t, conn, func(m Outbound) bool { return m.Type == MsgCommand && m.Time != nil && *m.Time > 0 })
	assert.Equal(t, 2.5, *cmd.Time)

	send(t, conn, Inbound{Type: MsgGesture, Gesture: &engine.GestureEvent{Phase: engine.PhaseBegin, OffsetPx: 25, TrackPx: 100}})
	rej := next(t, conn, func(m Outbound) bool { return m.Type == MsgError })
	assert.Equal(t, "gesture_already_active", rej.Error)

	send(t, conn, Inbound{Type: "bogus"})
	bad := next(t, conn, func(m Outbound) bool { return m.Type == MsgError })
	assert.Contains(t, bad.Error, "unknown message type")
}

func TestBridge_DetachedInstructionsAreRecordedOnly(t *testing.T) {
	hub, mgr, id := setup(t)
	ctx := context.Background()

	_, _, err := mgr.Do(ctx, id, func(e *engine.Engine) engine.Outcome { return e.NextFrame(ctx) })
	require.NoError(t, err)

	last, ok := hub.Recorder(id, model.SlotTop).Last()
	require.True(t, ok)
	assert.Equal(t, engine.OpSeekAndPause, last.Op)
	assert.InDelta(t, engine.FrameStep, last.Time, 1e-12)
	assert.Nil(t, hub.Recorder(id, model.Slot("side")))
}

func bridgeCount(h *Hub) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bridges)
}

func TestHub_PruneDropsEndedSessions(t *testing.T) {
	hub, mgr, id := setup(t)
	ctx := context.Background()
	other, _, err := mgr.Create(ctx)
	require.NoError(t, err)
	require.NotNil(t, hub.Recorder(id, model.SlotTop))

	// removed without going through Forget
	require.NoError(t, mgr.Delete(ctx, id))
	assert.Equal(t, 1, hub.Prune())

	assert.Nil(t, hub.Recorder(id, model.SlotTop))
	assert.Nil(t, hub.Recorder(id, model.SlotBottom))
	assert.NotNil(t, hub.Recorder(other.ID, model.SlotTop), "live sessions keep their bridge")
	assert.Equal(t, 0, hub.Prune())
}

func TestHub_DetachAfterSessionEndsPrunes(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, mgr, id := setup(t)
	conn, closeAll := dial(t, hub, id)
	next(t, conn, func(m Outbound) bool { return m.Type == MsgState })

	require.NoError(t, mgr.Delete(context.Background(), id))
	assert.Equal(t, 1, bridgeCount(hub), "attached client keeps the bridge")
	closeAll()

	assert.Eventually(t, func() bool { return bridgeCount(hub) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ServeUnknownSessionLeavesNoBridge(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, _, _ := setup(t)
	require.Equal(t, 1, bridgeCount(hub))

	served := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served <- hub.Serve(w, r, "missing")
	}))
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	select {
	case err := <-served:
		assert.ErrorIs(t, err, manager.ErrSessionNotFound)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return for an unknown session")
	}
	assert.Equal(t, 1, bridgeCount(hub))
	assert.Nil(t, hub.Recorder("missing", model.SlotTop))
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub, _, id := setup(t)
	conn, closeAll := dial(t, hub, id)
	defer closeAll()
	next(t, conn, func(m Outbound) bool { return m.Type == MsgState })

	hub.Close()

	assert.Equal(t, 0, bridgeCount(hub))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "err=%v", err)
			break
		}
	}
}

func TestHub_ServeWithoutManager(t *testing.T) {
	hub := NewHub(nil)
	rec := httptest.NewRecorder()
	err := hub.Serve(rec, httptest.NewRequest(http.MethodGet, "/ws", nil), "x")
	assert.ErrorIs(t, err, ErrNoManager)
}

func TestGeometryFromQuery(t *testing.T) {
	geo := GeometryFromQuery(url.Values{"trackPx": {"300"}, "thumbPx": {"24"}})
	assert.Equal(t, engine.TrackGeometry{TrackPx: 300, ThumbPx: 24}, geo)

	geo = GeometryFromQuery(url.Values{"trackPx": {"-5"}, "thumbPx": {"wide"}})
	assert.Equal(t, engine.TrackGeometry{}, geo)
}
