package session

import (
	"context"
	"encoding/json"
	"strings"

	domainerrors "fedvault/pkg/domain-errors"
)

// Store holds the single active session for a protocol instance.
type Store interface {
	// Put installs a session. It fails with sentinel.ErrConflict while a
	// non-terminal session is present.
	Put(ctx context.Context, sess *Session) error
	// Get returns the active session or sentinel.ErrNotFound.
	Get(ctx context.Context) (*Session, error)
	// Update applies fn to the active session, if any.
	Update(ctx context.Context, fn func(*Session)) error
	// MarkTerminal flags the active session as finished; after this a new
	// Put may replace it.
	MarkTerminal(ctx context.Context) error
	// Clear removes the active session. Invoked only on terminal transition.
	Clear(ctx context.Context) error
}

// Mirror persists the non-sensitive session reference (id and origin) so a
// flow that triggers a full-page navigation can find its way back. Bearer
// tokens never pass through a Mirror.
type Mirror interface {
	Save(ctx context.Context, id, origin string) error
	Load(ctx context.Context, id string) (origin string, err error)
	Drop(ctx context.Context, id string) error
}

// ParseInitPayload validates the init envelope data before any session is
// created. A missing network or capability type refuses the init outright;
// the caller surfaces the error state without touching the Vault API.
func ParseInitPayload(data string) (InitPayload, error) {
	var payload InitPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return InitPayload{}, domainerrors.New(domainerrors.CodeBadRequest, "invalid init payload")
	}
	if strings.TrimSpace(payload.Network) == "" || strings.TrimSpace(payload.API) == "" {
		return InitPayload{}, domainerrors.New(domainerrors.CodeBadRequest, "Require network/capability type")
	}
	return payload, nil
}
