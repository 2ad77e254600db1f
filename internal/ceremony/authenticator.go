// Package ceremony drives the two-phase credential ceremonies against the
// Vault API. The platform credential provider is abstracted behind
// Authenticator so hosts can plug in whatever hardware or OS facility they
// have; the adapter owns the init/complete choreography.
package ceremony

import (
	"context"
	"errors"

	"github.com/go-webauthn/webauthn/protocol"

	"fedvault/internal/vault"
)

//go:generate mockgen -source=authenticator.go -destination=mocks/ceremony_mocks.go -package=mocks

var (
	// ErrAborted reports that the user dismissed the credential prompt.
	ErrAborted = errors.New("ceremony aborted by user")
	// ErrVerificationFailed reports that the provider could not produce a
	// valid signature for the challenge.
	ErrVerificationFailed = errors.New("credential verification failed")
)

// AttestationResponse is the provider's answer to a creation challenge.
type AttestationResponse struct {
	CredentialID    protocol.URLEncodedBase64
	ClientData      protocol.URLEncodedBase64
	AttestationData protocol.URLEncodedBase64
}

// AssertionResponse is the provider's answer to an assertion challenge.
type AssertionResponse struct {
	CredentialID      protocol.URLEncodedBase64
	ClientData        protocol.URLEncodedBase64
	AuthenticatorData protocol.URLEncodedBase64
	Signature         protocol.URLEncodedBase64
}

// Authenticator is the platform credential provider. Implementations block
// until the user answers the prompt or the context is done.
type Authenticator interface {
	// Create mints a new credential for the attestation challenge.
	Create(ctx context.Context, payload vault.AttestationPayload) (AttestationResponse, error)
	// Get signs the assertion challenge with an existing credential.
	Get(ctx context.Context, payload protocol.PublicKeyCredentialRequestOptions) (AssertionResponse, error)
}

// VaultCeremonyAPI is the slice of the Vault API the adapter needs.
type VaultCeremonyAPI interface {
	RegisterInit(ctx context.Context, req vault.RegisterInitRequest) (vault.RegisterInitResponse, error)
	RegisterComplete(ctx context.Context, req vault.RegisterCompleteRequest) (vault.AuthResult, error)
	AuthenticateInit(ctx context.Context, req vault.AuthenticateInitRequest) (vault.AuthenticateInitResponse, error)
	AuthenticateComplete(ctx context.Context, req vault.AuthenticateCompleteRequest) (vault.AuthResult, error)
}
