package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"fedvault/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) TestPutAndGet() {
	sess := &Session{ID: "sess-1", Origin: "https://rp.example", AppName: "Demo"}
	s.Require().NoError(s.store.Put(s.ctx, sess))

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("sess-1", got.ID)
	s.Equal("https://rp.example", got.Origin)

	// The store hands out copies; mutating the result must not leak back.
	got.Token = "stolen"
	again, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Empty(again.Token)
}

func (s *MemoryStoreSuite) TestSecondPutWhileActiveIsRefused() {
	s.Require().NoError(s.store.Put(s.ctx, &Session{ID: "sess-1"}))

	err := s.store.Put(s.ctx, &Session{ID: "sess-2"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("sess-1", got.ID, "the active session stays in place")
}

func (s *MemoryStoreSuite) TestPutAfterTerminalReplaces() {
	s.Require().NoError(s.store.Put(s.ctx, &Session{ID: "sess-1"}))
	s.Require().NoError(s.store.MarkTerminal(s.ctx))

	s.Require().NoError(s.store.Put(s.ctx, &Session{ID: "sess-2"}))
	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("sess-2", got.ID)
	s.False(got.Terminal)
}

func (s *MemoryStoreSuite) TestUpdate() {
	s.Require().NoError(s.store.Put(s.ctx, &Session{ID: "sess-1"}))
	s.Require().NoError(s.store.Update(s.ctx, func(sess *Session) {
		sess.Username = "user@example.com"
		sess.Token = "jwt"
	}))

	got, err := s.store.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("user@example.com", got.Username)
	s.Equal("jwt", got.Token)
}

func (s *MemoryStoreSuite) TestGetAndUpdateOnEmpty() {
	_, err := s.store.Get(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Update(s.ctx, func(*Session) {}), sentinel.ErrNotFound)
	s.ErrorIs(s.store.MarkTerminal(s.ctx), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestClear() {
	s.Require().NoError(s.store.Put(s.ctx, &Session{ID: "sess-1"}))
	s.Require().NoError(s.store.Clear(s.ctx))
	_, err := s.store.Get(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestParseInitPayload(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		payload, err := ParseInitPayload(`{"network":"mainnet","api":"enable"}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if payload.Network != "mainnet" || payload.API != "enable" {
			t.Fatalf("unexpected payload: %+v", payload)
		}
	})

	t.Run("missing capability type", func(t *testing.T) {
		_, err := ParseInitPayload(`{"network":"mainnet"}`)
		if err == nil {
			t.Fatal("expected error")
		}
		if err.Error() != "Require network/capability type" {
			t.Fatalf("unexpected message: %q", err.Error())
		}
	})

	t.Run("missing network", func(t *testing.T) {
		if _, err := ParseInitPayload(`{"api":"enable"}`); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("not json", func(t *testing.T) {
		if _, err := ParseInitPayload("garbage"); err == nil {
			t.Fatal("expected error")
		}
	})
}
