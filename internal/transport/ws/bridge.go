// Package ws bridges connected hosts onto the message channel. Each
// websocket connection carries one protocol instance: the connection is the
// host's window handle, envelopes travel as text frames.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"fedvault/internal/messaging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Machine is the per-connection protocol instance the bridge drives.
type Machine interface {
	Dispose()
}

// MachineFactory builds a protocol instance bound to the given channel. The
// user agent string feeds best-effort device naming during registration.
type MachineFactory func(ch *messaging.Channel, userAgent string) Machine

// Handler upgrades host connections and pumps envelopes between the socket
// and the channel.
type Handler struct {
	factory  MachineFactory
	upgrader websocket.Upgrader
	log      *slog.Logger
}

// NewHandler builds a bridge handler. Origin checking is deliberately left to
// the channel's pinning: the observed Origin header is what gets pinned, so a
// foreign origin can only ever talk to its own instance.
func NewHandler(factory MachineFactory, log *slog.Logger) *Handler {
	return &Handler{
		factory: factory,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	origin := r.Header.Get("Origin")
	target := newConnTarget(conn)

	channel := messaging.NewChannel(h.log)
	if err := channel.Bind(target); err != nil {
		conn.Close()
		return
	}
	machine := h.factory(channel, r.UserAgent())

	h.log.Info("host connected", "origin", origin, "remote", conn.RemoteAddr().String())

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error { return h.readPump(conn, channel, origin, target) })
	g.Go(func() error { return pingLoop(ctx, target) })

	if err := g.Wait(); err != nil && !websocket.IsCloseError(err,
		websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		h.log.Debug("host connection ended", "origin", origin, "error", err)
	}
	machine.Dispose()
	conn.Close()
}

// readPump feeds inbound frames to the channel in arrival order. The channel
// does all filtering; the pump never interprets envelopes.
func (h *Handler) readPump(conn *websocket.Conn, channel *messaging.Channel, origin string, source messaging.Target) error {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		channel.Receive(string(raw), origin, source)
	}
}

func pingLoop(ctx context.Context, target *connTarget) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := target.ping(); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// connTarget adapts a websocket connection to the channel's Target. The
// mutex serializes writers; gorilla permits one writer at a time.
type connTarget struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newConnTarget(conn *websocket.Conn) *connTarget {
	return &connTarget{conn: conn}
}

// PostMessage sends one envelope frame. The origin argument is advisory
// here: transport-level delivery is the socket itself, and the channel has
// already filtered by pinned origin before posting.
func (t *connTarget) PostMessage(data, _ string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.TextMessage, []byte(data))
}

func (t *connTarget) ping() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return t.conn.WriteMessage(websocket.PingMessage, nil)
}
