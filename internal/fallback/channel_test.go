package fallback

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"fedvault/internal/platform/logger"
	"fedvault/internal/vault"
	domainerrors "fedvault/pkg/domain-errors"
	"fedvault/pkg/platform/sentinel"
)

type fakeEmailAPI struct {
	mu   sync.Mutex
	sent []vault.SendEmailSessionRequest
	err  error
}

func (f *fakeEmailAPI) SendEmailSession(_ context.Context, req vault.SendEmailSessionRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func (f *fakeEmailAPI) calls() []vault.SendEmailSessionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vault.SendEmailSessionRequest(nil), f.sent...)
}

// vaultBehavior scripts what the fake vault does with the socket after
// reading the announce frame.
type vaultBehavior func(conn *websocket.Conn, announce map[string]string)

// behaviorBox pins a scripted behavior to one server generation. Handlers for
// upgraded sockets outlive httptest's Close (hijacked connections are not
// waited on), so a stale handler from a previous test must not be able to
// observe the behavior scripted by the next one.
type behaviorBox struct {
	mu sync.Mutex
	fn vaultBehavior
}

type ChannelSuite struct {
	suite.Suite
	api    *fakeEmailAPI
	server *httptest.Server
	opener *Opener
	box    *behaviorBox
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, new(ChannelSuite))
}

func (s *ChannelSuite) SetupTest() {
	upgrader := websocket.Upgrader{}
	s.api = &fakeEmailAPI{}
	box := &behaviorBox{}
	s.box = box
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.True(strings.HasPrefix(r.URL.Path, "/api/federated/email/ws/"))

		conn, err := upgrader.Upgrade(w, r, nil)
		s.Require().NoError(err)
		defer conn.Close()

		var announce map[string]string
		s.Require().NoError(conn.ReadJSON(&announce))

		box.mu.Lock()
		behavior := box.fn
		box.mu.Unlock()
		if behavior != nil {
			behavior(conn, announce)
		}
	}))
	s.T().Cleanup(s.server.Close)

	wsBase := "ws" + strings.TrimPrefix(s.server.URL, "http")
	s.opener = NewOpener(s.api, wsBase, time.Second, logger.New())
}

func (s *ChannelSuite) script(b vaultBehavior) {
	s.box.mu.Lock()
	s.box.fn = b
	s.box.mu.Unlock()
}

func signedTestToken(s *ChannelSuite) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{"sub": "user@example.com"}).SignedString([]byte("test-secret"))
	s.Require().NoError(err)
	return token
}

func (s *ChannelSuite) TestTokenDelivery() {
	token := signedTestToken(s)
	s.script(func(conn *websocket.Conn, announce map[string]string) {
		s.Equal("user@example.com", announce["email"])
		s.Equal(ModeRegister, announce["type"])

		// Interleaved noise must not confuse the reader.
		conn.WriteMessage(websocket.TextMessage, []byte(`{"keepalive":true}`))
		conn.WriteMessage(websocket.TextMessage, []byte(token))
	})

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "https://rp.example")
	s.Require().NoError(err)

	got, err := sess.Wait(s.T().Context())
	s.Require().NoError(err)
	s.Equal(token, got)

	calls := s.api.calls()
	s.Require().Len(calls, 1)
	s.Equal("sess-1", calls[0].Session)
	s.Equal("https://rp.example", calls[0].Origin)
}

func (s *ChannelSuite) TestInvalidEmailRefusedBeforeDispatch() {
	_, err := s.opener.Start(s.T().Context(), "sess-1", "not-an-email", ModeRegister, "")
	s.Require().Error(err)
	s.Equal(domainerrors.CodeBadRequest, domainerrors.CodeOf(err))
	s.Empty(s.api.calls(), "nothing may be dispatched for a bad address")
}

func (s *ChannelSuite) TestCloseWithoutTokenIsTimeout() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeLogin, "")
	s.Require().NoError(err)

	_, err = sess.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrTimeout)
}

func (s *ChannelSuite) TestDeadlineTimeout() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		// Hold the socket open without ever sending a token.
		time.Sleep(500 * time.Millisecond)
	})
	s.opener.timeout = 50 * time.Millisecond

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "")
	s.Require().NoError(err)

	start := time.Now()
	_, err = sess.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrTimeout)
	s.Less(time.Since(start), 400*time.Millisecond, "Wait must honor the bounded timeout")
}

func (s *ChannelSuite) TestCancel() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		time.Sleep(500 * time.Millisecond)
	})

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "")
	s.Require().NoError(err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		sess.Cancel()
	}()

	_, err = sess.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrCanceled)
}

func (s *ChannelSuite) TestMalformedTokenIsIgnored() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		conn.WriteMessage(websocket.TextMessage, []byte("not-a-jwt"))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	})

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "")
	s.Require().NoError(err)

	_, err = sess.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrTimeout, "a garbage token must not count as verification")
}

func (s *ChannelSuite) TestFinishedSessionsAreReleased() {
	token := signedTestToken(s)
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		conn.WriteMessage(websocket.TextMessage, []byte(token))
	})

	for i := 0; i < 10; i++ {
		sess, err := s.opener.Start(s.T().Context(),
			fmt.Sprintf("sess-%d", i), "user@example.com", ModeLogin, "")
		s.Require().NoError(err)
		_, err = sess.Wait(s.T().Context())
		s.Require().NoError(err)
	}

	// Release happens when the read pump unwinds; give it a beat.
	s.Eventually(func() bool {
		s.opener.mu.Lock()
		defer s.opener.mu.Unlock()
		return len(s.opener.active) == 0
	}, time.Second, 10*time.Millisecond, "opener must forget resolved sessions")
}

func (s *ChannelSuite) TestCanceledSessionIsReleased() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		time.Sleep(500 * time.Millisecond)
	})

	sess, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "")
	s.Require().NoError(err)
	sess.Cancel()
	_, err = sess.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrCanceled)

	s.Eventually(func() bool {
		s.opener.mu.Lock()
		defer s.opener.mu.Unlock()
		return len(s.opener.active) == 0
	}, time.Second, 10*time.Millisecond)
}

func (s *ChannelSuite) TestRestartCancelsPriorSession() {
	s.script(func(conn *websocket.Conn, _ map[string]string) {
		time.Sleep(500 * time.Millisecond)
	})

	first, err := s.opener.Start(s.T().Context(), "sess-1", "user@example.com", ModeRegister, "")
	s.Require().NoError(err)
	_, err = s.opener.Start(s.T().Context(), "sess-1", "other@example.com", ModeRegister, "")
	s.Require().NoError(err)

	_, err = first.Wait(s.T().Context())
	s.ErrorIs(err, sentinel.ErrCanceled)
}
