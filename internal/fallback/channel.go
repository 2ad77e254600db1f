// Package fallback implements the email verification channel used when no
// platform credential is available. The vault mails the user a link; the
// resulting token is pushed back over a websocket scoped to the federation
// session.
package fallback

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"fedvault/internal/vault"
	domainerrors "fedvault/pkg/domain-errors"
	"fedvault/pkg/platform/sentinel"
)

// Mode of an email verification, carried in the first websocket frame and in
// the vault dispatch request. Register mode routes the token into a
// registration ceremony; login mode proves identity directly.
const (
	ModeRegister = "register"
	ModeLogin    = "login"
)

// VaultEmailAPI is the slice of the Vault API the channel needs.
type VaultEmailAPI interface {
	SendEmailSession(ctx context.Context, req vault.SendEmailSessionRequest) error
}

// Opener starts email verification sessions. At most one session is live per
// federation session id; starting a new one cancels its predecessor.
type Opener struct {
	vault   VaultEmailAPI
	wsBase  string
	timeout time.Duration
	dialer  *websocket.Dialer
	log     *slog.Logger

	mu     sync.Mutex
	active map[string]*Session
}

// NewOpener builds an Opener. wsBase is the vault's websocket root, e.g.
// "ws://vault.example".
func NewOpener(api VaultEmailAPI, wsBase string, timeout time.Duration, log *slog.Logger) *Opener {
	return &Opener{
		vault:   api,
		wsBase:  wsBase,
		timeout: timeout,
		dialer:  websocket.DefaultDialer,
		log:     log,
	}
}

// Start validates the address, asks the vault to send the verification email
// and opens the websocket that will carry the token back. The returned
// Session must be waited on or canceled.
func (o *Opener) Start(ctx context.Context, sessionID, email, purpose, origin string) (*Session, error) {
	if !govalidator.IsEmail(email) {
		return nil, domainerrors.New(domainerrors.CodeBadRequest, "invalid email address")
	}

	o.mu.Lock()
	if prior := o.active[sessionID]; prior != nil {
		prior.Cancel()
	}
	o.mu.Unlock()

	if err := o.vault.SendEmailSession(ctx, vault.SendEmailSessionRequest{
		Session: sessionID,
		Email:   email,
		Type:    purpose,
		Origin:  origin,
	}); err != nil {
		return nil, fmt.Errorf("send email session: %w", err)
	}

	conn, _, err := o.dialer.DialContext(ctx, o.wsBase+"/api/federated/email/ws/"+sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("dial email channel: %w", err)
	}

	// First frame tells the vault which address and purpose this socket is
	// waiting on.
	if err := conn.WriteJSON(map[string]string{"email": email, "type": purpose}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("announce email channel: %w", err)
	}

	sess := &Session{
		id:       sessionID,
		conn:     conn,
		timeout:  o.timeout,
		log:      o.log,
		tokens:   make(chan string, 1),
		closed:   make(chan struct{}),
		canceled: make(chan struct{}),
	}
	sess.done = func() { o.release(sessionID, sess) }

	o.mu.Lock()
	if o.active == nil {
		o.active = make(map[string]*Session)
	}
	o.active[sessionID] = sess
	o.mu.Unlock()

	go sess.readPump()
	return sess, nil
}

// release forgets a finished session. A newer session under the same id is
// left alone.
func (o *Opener) release(id string, sess *Session) {
	o.mu.Lock()
	if o.active[id] == sess {
		delete(o.active, id)
	}
	o.mu.Unlock()
}

// Session is one live email verification exchange.
type Session struct {
	id      string
	conn    *websocket.Conn
	timeout time.Duration
	log     *slog.Logger

	tokens     chan string
	closed     chan struct{}
	canceled   chan struct{}
	cancelOnce sync.Once
	done       func()
}

// readPump consumes frames until the socket closes. Inbound frames are bare
// signed tokens, not enveloped; anything that does not look like one is
// ignored so keepalives and noise pass through harmlessly.
// Every terminal path (token, timeout, cancel, far-side close) closes the
// conn, so the pump's exit is where the session is forgotten.
func (s *Session) readPump() {
	defer func() {
		close(s.closed)
		if s.done != nil {
			s.done()
		}
	}()
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		token := strings.TrimSpace(string(raw))
		if token == "" {
			continue
		}
		// Sanity gate only: the vault signed it, the vault verifies it later.
		if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
			s.log.Debug("ignoring non-token frame on email channel", "session", s.id)
			continue
		}

		select {
		case s.tokens <- token:
		default:
		}
		s.conn.Close()
		return
	}
}

// Wait blocks until the email token arrives, the configured timeout lapses,
// the session is canceled, or ctx is done. A socket closed by the far side
// without a token counts as a timeout.
func (s *Session) Wait(ctx context.Context) (string, error) {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case token := <-s.tokens:
		return token, nil
	case <-s.canceled:
		return "", sentinel.ErrCanceled
	case <-s.closed:
		// A token write may race the close; drain before giving up.
		select {
		case token := <-s.tokens:
			return token, nil
		default:
		}
		select {
		case <-s.canceled:
			return "", sentinel.ErrCanceled
		default:
		}
		return "", sentinel.ErrTimeout
	case <-timer.C:
		s.conn.Close()
		return "", sentinel.ErrTimeout
	case <-ctx.Done():
		s.conn.Close()
		return "", ctx.Err()
	}
}

// Cancel tears the session down. Safe to call more than once and after Wait
// returned.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		close(s.canceled)
		s.conn.Close()
	})
}
