// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ManuGH/swinglab/internal/domain/compare/engine"
	"github.com/ManuGH/swinglab/internal/domain/compare/manager"
	"github.com/ManuGH/swinglab/internal/domain/compare/model"
	xglog "github.com/ManuGH/swinglab/internal/log"
	"github.com/ManuGH/swinglab/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendBuffer     = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Hub owns one bridge per session. Its Primitive method is the primitive
// factory handed to the session manager.
type Hub struct {
	logger zerolog.Logger

	mu      sync.Mutex
	mgr     *manager.Manager
	bridges map[string]*Bridge
}

func NewHub(logger *zerolog.Logger) *Hub {
	h := &Hub{logger: xglog.WithComponent("player"), bridges: make(map[string]*Bridge)}
	if logger != nil {
		h.logger = *logger
	}
	return h
}

// SetManager binds the hub to the session manager whose sessions it bridges.
func (h *Hub) SetManager(m *manager.Manager) {
	h.mu.Lock()
	h.mgr = m
	h.mu.Unlock()
}

func (h *Hub) bridge(sessionID string) *Bridge {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.bridges[sessionID]
	if !ok {
		b = &Bridge{
			sessionID: sessionID,
			recorders: [2]*Recorder{NewRecorder(0), NewRecorder(0)},
			logger:    h.logger.With().Str(xglog.FieldSessionID, sessionID).Logger(),
		}
		h.bridges[sessionID] = b
	}
	return b
}

// Primitive returns the bridged primitive for one slot of a session.
func (h *Hub) Primitive(sessionID string, slot model.Slot) engine.Primitive {
	return &slotPrimitive{bridge: h.bridge(sessionID), slot: slot}
}

// Recorder exposes the instruction log of a session slot. It is nil for
// sessions the hub has no bridge for.
func (h *Hub) Recorder(sessionID string, slot model.Slot) *Recorder {
	if !slot.Valid() {
		return nil
	}
	h.mu.Lock()
	b, ok := h.bridges[sessionID]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return b.recorders[slot.Index()]
}

// Forget drops the bridge of a deleted session, disconnecting its client.
func (h *Hub) Forget(sessionID string) {
	h.mu.Lock()
	b, ok := h.bridges[sessionID]
	delete(h.bridges, sessionID)
	h.mu.Unlock()
	if ok {
		b.detach(nil)
	}
}

// Prune drops the bridges of sessions the manager no longer holds and returns
// how many were removed. Live sessions keep theirs: their engines still
// address it.
func (h *Hub) Prune() int {
	h.mu.Lock()
	mgr := h.mgr
	h.mu.Unlock()
	if mgr == nil {
		return 0
	}
	live := make(map[string]struct{})
	for _, id := range mgr.IDs() {
		live[id] = struct{}{}
	}

	h.mu.Lock()
	var gone []*Bridge
	for id, b := range h.bridges {
		if _, ok := live[id]; !ok {
			gone = append(gone, b)
			delete(h.bridges, id)
		}
	}
	h.mu.Unlock()

	for _, b := range gone {
		b.detach(nil)
	}
	if len(gone) > 0 {
		h.logger.Debug().
			Str(xglog.FieldEvent, "bridge.pruned").
			Int("count", len(gone)).
			Msg("dropped bridges of ended sessions")
	}
	return len(gone)
}

// Close disconnects every client and drops all bridges.
func (h *Hub) Close() {
	h.mu.Lock()
	bridges := h.bridges
	h.bridges = make(map[string]*Bridge)
	h.mu.Unlock()
	for _, b := range bridges {
		b.detach(nil)
	}
}

// Bridge forwards one session's primitive instructions to the attached client.
type Bridge struct {
	sessionID string
	recorders [2]*Recorder
	logger    zerolog.Logger

	mu     sync.Mutex
	client *client
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// enqueue never blocks: it runs under the session lock.
func (c *client) enqueue(buf []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- buf:
		return true
	default:
		return false
	}
}

func (b *Bridge) attach(c *client) {
	b.mu.Lock()
	prev := b.client
	b.client = c
	b.mu.Unlock()
	if prev != nil {
		prev.close()
	}
	metrics.IncBridgeClients()
}

// detach clears the client if it is still c (nil detaches whatever is attached).
func (b *Bridge) detach(c *client) {
	b.mu.Lock()
	cur := b.client
	if c == nil || cur == c {
		b.client = nil
	}
	b.mu.Unlock()
	if c != nil {
		c.close()
		metrics.DecBridgeClients()
	} else if cur != nil {
		cur.close()
	}
}

func (b *Bridge) publish(msg Outbound) {
	buf, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error().Err(err).Str("type", msg.Type).Msg("bridge message encode failed")
		return
	}
	b.mu.Lock()
	c := b.client
	b.mu.Unlock()
	if c == nil || !c.enqueue(buf) {
		metrics.RecordBridgeDropped()
		return
	}
	metrics.RecordBridgeMessage("out", msg.Type)
}

type slotPrimitive struct {
	bridge *Bridge
	slot   model.Slot
}

func (p *slotPrimitive) SeekAndPause(ctx context.Context, seconds float64) error {
	return p.send(ctx, engine.OpSeekAndPause, seconds)
}

func (p *slotPrimitive) PlayFrom(ctx context.Context, seconds float64) error {
	return p.send(ctx, engine.OpPlayFrom, seconds)
}

func (p *slotPrimitive) send(ctx context.Context, op engine.Op, seconds float64) error {
	rec := p.bridge.recorders[p.slot.Index()]
	if op == engine.OpPlayFrom {
		_ = rec.PlayFrom(ctx, seconds)
	} else {
		_ = rec.SeekAndPause(ctx, seconds)
	}
	t := seconds
	p.bridge.publish(Outbound{Type: MsgCommand, Slot: p.slot, Op: op, Time: &t})
	return nil
}

// GeometryFromQuery reads the scrub track layout from trackPx and thumbPx.
// Missing or malformed values read as zero.
func GeometryFromQuery(q url.Values) engine.TrackGeometry {
	parse := func(key string) float64 {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		return v
	}
	return engine.TrackGeometry{TrackPx: parse("trackPx"), ThumbPx: parse("thumbPx")}
}

// ErrNoManager is returned when Serve runs before SetManager.
var ErrNoManager = errors.New("player hub has no session manager")

// Serve upgrades the request to a websocket and attaches it as the playback
// client of sessionID until the connection closes or ctx ends. The session
// must exist; callers check that before upgrading.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) error {
	h.mu.Lock()
	mgr := h.mgr
	h.mu.Unlock()
	if mgr == nil {
		return ErrNoManager
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	ctx := xglog.ContextWithSessionID(r.Context(), sessionID)
	b := h.bridge(sessionID)
	c := &client{conn: conn, send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	b.attach(c)
	logger := xglog.WithContext(ctx, b.logger)
	logger.Info().Str(xglog.FieldEvent, "bridge.attached").Msg("playback client attached")

	geo := GeometryFromQuery(r.URL.Query())
	var unsubscribe func()
	_, err = mgr.With(ctx, sessionID, func(e *engine.Engine) {
		// listeners run inside commit, under the session lock
		unsubscribe = e.Subscribe(func(s model.Snapshot) {
			v := e.View(geo)
			b.publish(Outbound{Type: MsgState, Snapshot: &s, View: &v})
		})
		snap, v := e.Snapshot(), e.View(geo)
		b.publish(Outbound{Type: MsgState, Snapshot: &snap, View: &v})
		e.Resync(ctx)
	})
	if err != nil {
		b.detach(c)
		_ = conn.Close()
		h.Prune()
		return err
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop()
	}()

	c.readLoop(ctx, func(in Inbound) { h.handle(ctx, mgr, b, sessionID, in) }, logger)

	_, _ = mgr.With(ctx, sessionID, func(*engine.Engine) {
		if unsubscribe != nil {
			unsubscribe()
		}
	})
	b.detach(c)
	<-writerDone
	_ = conn.Close()
	logger.Info().Str(xglog.FieldEvent, "bridge.detached").Msg("playback client detached")
	h.Prune()
	return nil
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			// unblock the reader
			_ = c.conn.SetReadDeadline(time.Now())
			return
		case buf := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				c.close()
				_ = c.conn.SetReadDeadline(time.Now())
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				_ = c.conn.SetReadDeadline(time.Now())
				return
			}
		}
	}
}

func (c *client) readLoop(ctx context.Context, handle func(Inbound), logger zerolog.Logger) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := context.AfterFunc(ctx, c.close)
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug().Err(err).Msg("bridge read ended")
			}
			c.close()
			return
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			logger.Debug().Err(err).Msg("invalid bridge message")
			continue
		}
		metrics.RecordBridgeMessage("in", in.Type)
		handle(in)
	}
}

func (h *Hub) handle(ctx context.Context, mgr *manager.Manager, b *Bridge, sessionID string, in Inbound) {
	var fn func(*engine.Engine) engine.Outcome
	switch in.Type {
	case MsgDurationLoaded:
		fn = func(e *engine.Engine) engine.Outcome { return e.DurationLoaded(ctx, in.Slot, in.Seconds) }
	case MsgPosition:
		fn = func(e *engine.Engine) engine.Outcome { return e.ObservePosition(ctx, in.Slot, in.Seconds) }
	case MsgFinished:
		fn = func(e *engine.Engine) engine.Outcome { return e.PlaybackFinished(ctx, in.Slot) }
	case MsgGesture:
		if in.Gesture == nil {
			b.publish(Outbound{Type: MsgError, Error: "gesture message without gesture"})
			return
		}
		g := *in.Gesture
		fn = func(e *engine.Engine) engine.Outcome { return e.Gesture(ctx, g) }
	case MsgError:
		// primitive failures are observational only
		logger := xglog.WithContext(ctx, b.logger)
		logger.Warn().
			Str(xglog.FieldEvent, "primitive.client_error").
			Str(xglog.FieldSlot, in.Slot.String()).
			Str(xglog.FieldReason, in.Message).
			Msg("playback client reported an error")
		return
	default:
		b.publish(Outbound{Type: MsgError, Error: "unknown message type " + in.Type})
		return
	}

	out, _, err := mgr.Do(ctx, sessionID, fn)
	if err != nil {
		b.publish(Outbound{Type: MsgError, Error: err.Error()})
		return
	}
	if !out.Applied && in.Type == MsgGesture {
		b.publish(Outbound{Type: MsgError, Outcome: &out, Error: out.Reason})
	}
}
