package ceremony

import (
	"context"
	"fmt"
	"log/slog"
)

// RegisterOptions carries the proofs a registration may need. The email token
// comes from the fallback identity channel for first-time users; the register
// session continues a two-phase exchange that was interrupted before
// completion.
type RegisterOptions struct {
	EmailToken      string
	RegisterSession string
	FederatedID     string
}

// RegisterOutcome is the result of a registration attempt. RegisterSession is
// populated even on abort so a retry can continue the same exchange instead
// of starting over.
type RegisterOutcome struct {
	JWT             string
	RegisterSession string
}

// Adapter choreographs credential ceremonies: init against the vault,
// challenge to the provider, complete against the vault.
type Adapter struct {
	vault      VaultCeremonyAPI
	auth       Authenticator
	deviceName string
	log        *slog.Logger
}

// NewAdapter builds an Adapter. The user agent string is only used for
// best-effort device naming on registration.
func NewAdapter(api VaultCeremonyAPI, auth Authenticator, userAgent string, log *slog.Logger) *Adapter {
	return &Adapter{
		vault:      api,
		auth:       auth,
		deviceName: DeviceName(userAgent),
		log:        log,
	}
}

// Register runs the full registration ceremony. An abort by the user surfaces
// as ErrAborted with the register session preserved in the outcome.
func (a *Adapter) Register(ctx context.Context, username string, opts RegisterOptions) (RegisterOutcome, error) {
	init, err := a.vault.RegisterInit(ctx, registerInitRequest(username, opts))
	if err != nil {
		return RegisterOutcome{}, fmt.Errorf("register init: %w", err)
	}
	outcome := RegisterOutcome{RegisterSession: init.RegisterSession}

	att, err := a.auth.Create(ctx, init.AttestationPayload)
	if err != nil {
		a.log.Info("credential creation did not complete", "username", username, "error", err)
		return outcome, err
	}

	result, err := a.vault.RegisterComplete(ctx, completeRegisterRequest(username, a.deviceName, init, att))
	if err != nil {
		return outcome, fmt.Errorf("register complete: %w", err)
	}

	outcome.JWT = result.JWT
	return outcome, nil
}

// Authenticate runs the full assertion ceremony for a known user.
func (a *Adapter) Authenticate(ctx context.Context, username, sessionID string) (string, error) {
	init, err := a.vault.AuthenticateInit(ctx, authInitRequest(username, sessionID))
	if err != nil {
		return "", fmt.Errorf("authenticate init: %w", err)
	}

	assertion, err := a.auth.Get(ctx, init.AssertionPayload)
	if err != nil {
		a.log.Info("credential assertion did not complete", "username", username, "error", err)
		return "", err
	}

	result, err := a.vault.AuthenticateComplete(ctx, completeAuthRequest(username, init, assertion))
	if err != nil {
		return "", fmt.Errorf("authenticate complete: %w", err)
	}
	return result.JWT, nil
}
