package messaging

import (
	"log/slog"
	"sync"

	domainerrors "fedvault/pkg/domain-errors"
)

// Target is the window handle a channel posts to. Implementations wrap a
// parent frame, an opener, or a bridge socket.
type Target interface {
	PostMessage(data string, origin string) error
}

// Handler receives every accepted inbound envelope with its observed origin.
type Handler func(env Envelope, origin string)

// Channel binds a single target window, frames outbound envelopes, and
// filters inbound traffic. One channel serves exactly one protocol instance.
//
// Origin policy: until a session pins an origin the channel replies to "*",
// matching the init handshake. Once pinned, inbound envelopes from any other
// origin are dropped and the reply origin is never widened again.
type Channel struct {
	mu      sync.Mutex
	target  Target
	origin  string
	corrID  string
	handler Handler
	log     *slog.Logger
}

// NewChannel builds an unbound channel.
func NewChannel(log *slog.Logger) *Channel {
	return &Channel{origin: "*", log: log}
}

// Bind attaches the channel to its target window. A nil target is a fatal
// protocol condition for the caller; the channel only records the fact.
func (c *Channel) Bind(target Target) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if target == nil {
		c.log.Warn("channel bind without window reference")
		return domainerrors.New(domainerrors.CodeBadRequest, "missing window reference")
	}
	c.target = target
	return nil
}

// OnReceive registers the single global handler for accepted envelopes.
func (c *Channel) OnReceive(handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

// PinOrigin fixes the reply origin after the first accepted init.
func (c *Channel) PinOrigin(origin string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.origin = origin
}

// Origin reports the current reply origin ("*" until pinned).
func (c *Channel) Origin() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.origin
}

// SetCorrelation records the id the host used on its init envelope. Every
// outbound envelope echoes it so the host can match replies.
func (c *Channel) SetCorrelation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.corrID = id
}

// Correlation reports the current correlation id.
func (c *Channel) Correlation() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.corrID
}

// Send serializes the envelope and posts it to the bound target, stamping the
// channel constant, the correlation id, and the pinned origin.
func (c *Channel) Send(env Envelope) error {
	c.mu.Lock()
	target := c.target
	origin := c.origin
	if env.ID == "" {
		env.ID = c.corrID
	}
	c.mu.Unlock()

	if target == nil {
		return domainerrors.New(domainerrors.CodeBadRequest, "missing window reference")
	}
	env.Channel = ChannelID
	raw, err := Encode(env)
	if err != nil {
		return err
	}
	return target.PostMessage(raw, origin)
}

// SendData posts a data envelope with the given serialized payload.
func (c *Channel) SendData(payload string) error {
	return c.Send(Envelope{Type: TypeData, Data: payload})
}

// SendError posts an error envelope carrying a failure reason.
func (c *Channel) SendError(reason string) error {
	return c.Send(Envelope{Type: TypeError, Data: reason})
}

// Receive processes one raw inbound message. Unparseable input is dropped as
// cross-origin noise. Ping envelopes are echoed back immediately, rebinding
// the target to the probe's source when one is supplied, and never reach the
// handler. Post-pin envelopes from foreign origins are dropped.
func (c *Channel) Receive(raw string, origin string, source Target) {
	env, err := Parse(raw)
	if err != nil {
		c.log.Debug("dropping unparseable message", "origin", origin)
		return
	}

	if env.Type == TypePing {
		c.echoPing(raw, source)
		return
	}

	c.mu.Lock()
	pinned := c.origin
	handler := c.handler
	c.mu.Unlock()

	if pinned != "*" && origin != pinned {
		c.log.Debug("dropping envelope from foreign origin", "origin", origin, "type", string(env.Type))
		return
	}
	if handler != nil {
		handler(env, origin)
	}
}

// echoPing answers a liveness probe on the same channel. The probe carries no
// session data so the echo is addressed to any origin, as the handshake is.
func (c *Channel) echoPing(raw string, source Target) {
	c.mu.Lock()
	if source != nil {
		c.target = source
	}
	target := c.target
	c.mu.Unlock()

	if target == nil {
		return
	}
	if err := target.PostMessage(raw, "*"); err != nil {
		c.log.Debug("ping echo failed", "error", err)
	}
}
