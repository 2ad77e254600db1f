// Package consent checks, records and delivers the user's attribute grant.
// Delivery has two shapes: embedded flows hand the grant back over the
// message channel, redirect flows complete an OIDC-style authorization by
// navigating to the relying party's callback with a code fragment.
package consent

import (
	"context"
	"fmt"
	"log/slog"

	"fedvault/internal/vault"
)

// Error codes put on the wire when a flow ends without a grant.
const (
	ReasonAccessDenied = "access_denied"
	ReasonServerError  = "server_error"
)

// Grant is the finalized consent result handed to the relying party.
type Grant struct {
	Token string            `json:"token,omitempty"`
	OIDC  *vault.OIDCResult `json:"oidc,omitempty"`
}

// Delivery hands the outcome of a flow to the relying party.
type Delivery interface {
	// Deliver completes the flow with a grant.
	Deliver(ctx context.Context, grant Grant) error
	// Fail completes the flow with an error code and description.
	Fail(ctx context.Context, code, description string) error
}

// VaultConsentAPI is the slice of the Vault API the finalizer needs.
type VaultConsentAPI interface {
	CheckConsent(ctx context.Context, sessionID, token string) (vault.ConsentResponse, error)
	SaveConsent(ctx context.Context, sessionID, token string) (vault.SaveConsentResponse, error)
}

// State describes where a session stands on consent. Finalized means the
// grant was already delivered and nothing remains to ask the user.
type State struct {
	AppName            string
	Passes             []vault.ConsentPass
	RequiredAttributes []string
	MissingAttributes  []string
	Finalized          bool
	Grant              Grant
}

// Finalizer drives the consent step against the vault and delivers outcomes.
type Finalizer struct {
	vault    VaultConsentAPI
	delivery Delivery
	log      *slog.Logger
}

func NewFinalizer(api VaultConsentAPI, delivery Delivery, log *slog.Logger) *Finalizer {
	return &Finalizer{vault: api, delivery: delivery, log: log}
}

// Check fetches the consent state. A session whose consent was granted in an
// earlier visit already carries the finalization material; in that case the
// grant is delivered right away and the caller can skip the consent prompt.
func (f *Finalizer) Check(ctx context.Context, sessionID, token string) (State, error) {
	resp, err := f.vault.CheckConsent(ctx, sessionID, token)
	if err != nil {
		return State{}, fmt.Errorf("check consent: %w", err)
	}

	state := State{
		AppName:            resp.AppName,
		Passes:             resp.Passes,
		RequiredAttributes: resp.RequiredAttributes,
		MissingAttributes:  resp.MissingAttributes,
	}
	if resp.Token == "" && resp.OIDC == nil {
		return state, nil
	}

	state.Finalized = true
	state.Grant = Grant{Token: resp.Token, OIDC: resp.OIDC}
	f.log.Info("consent already granted, finalizing", "session", sessionID)
	if err := f.delivery.Deliver(ctx, state.Grant); err != nil {
		return State{}, fmt.Errorf("deliver grant: %w", err)
	}
	return state, nil
}

// Grant records the user's approval and delivers the result.
func (f *Finalizer) Grant(ctx context.Context, sessionID, token string) (Grant, error) {
	resp, err := f.vault.SaveConsent(ctx, sessionID, token)
	if err != nil {
		return Grant{}, fmt.Errorf("save consent: %w", err)
	}

	grant := Grant{Token: resp.Token, OIDC: resp.OIDC}
	if err := f.delivery.Deliver(ctx, grant); err != nil {
		return Grant{}, fmt.Errorf("deliver grant: %w", err)
	}
	return grant, nil
}

// Deny completes the flow without a grant.
func (f *Finalizer) Deny(ctx context.Context, description string) error {
	return f.delivery.Fail(ctx, ReasonAccessDenied, description)
}
