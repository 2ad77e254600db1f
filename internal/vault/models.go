// Package vault is the HTTP client for the Vault API, the external
// collaborator that issues sessions, runs ceremony verification, and stores
// consent. Wire shapes follow the vault's JSON contract; binary ceremony
// fields travel Base64url-encoded and decode through the webauthn protocol
// types.
package vault

import "github.com/go-webauthn/webauthn/protocol"

// SessionInitRequest creates a federation session for a relying party.
type SessionInitRequest struct {
	Origin  string `json:"origin"`
	API     string `json:"api"`
	Network string `json:"network,omitempty"`
}

// SessionInitResponse describes the created (or looked up) session.
type SessionInitResponse struct {
	ID         string   `json:"id"`
	Origin     string   `json:"origin"`
	AppName    string   `json:"app_name,omitempty"`
	Attributes []string `json:"attributes"`
	Callback   string   `json:"callback,omitempty"`
}

// SendEmailSessionRequest asks the vault to dispatch an out-of-band email
// verification for the fallback identity channel.
type SendEmailSessionRequest struct {
	Session string `json:"session"`
	Email   string `json:"email"`
	Type    string `json:"type"`
	Origin  string `json:"origin"`
}

// ConsentPass is one identity attribute offered for sharing.
type ConsentPass struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// OIDCResult carries the authorization-code material for redirect delivery.
type OIDCResult struct {
	RedirectURI string `json:"redirect_uri"`
	Code        string `json:"code"`
	State       string `json:"state"`
}

// ConsentResponse reports required vs. granted attributes for a session.
type ConsentResponse struct {
	AppName            string        `json:"app_name"`
	Passes             []ConsentPass `json:"passes"`
	RequiredAttributes []string      `json:"required_attributes"`
	MissingAttributes  []string      `json:"missing_attributes"`
	Token              string        `json:"token,omitempty"`
	OIDC               *OIDCResult   `json:"oidc,omitempty"`
}

// SaveConsentResponse is the finalized consent decision.
type SaveConsentResponse struct {
	Token string      `json:"token"`
	OIDC  *OIDCResult `json:"oidc,omitempty"`
}

// AttestationPayload is the creation ceremony challenge material. The
// credential UUID rides alongside the standard creation options.
type AttestationPayload struct {
	protocol.PublicKeyCredentialCreationOptions
	CredentialUUID string `json:"credential_uuid"`
}

// RegisterInitRequest starts a registration ceremony. The email token, when
// present, proves the fallback identity step; the register session continues
// a previously started two-phase exchange.
type RegisterInitRequest struct {
	Username string              `json:"username"`
	Options  RegisterInitOptions `json:"options"`
}

type RegisterInitOptions struct {
	RegisterSession string `json:"register_session,omitempty"`
	EmailToken      string `json:"email_token,omitempty"`
	FederatedID     string `json:"federated_session,omitempty"`
}

// RegisterInitResponse carries the ceremony parameters.
type RegisterInitResponse struct {
	RegisterSession    string             `json:"register_session"`
	AttestationPayload AttestationPayload `json:"attestation_payload"`
}

// RegisterCompleteRequest submits the signed attestation plus best-effort
// device metadata.
type RegisterCompleteRequest struct {
	Username        string                    `json:"username"`
	DeviceName      string                    `json:"device_name"`
	Challenge       protocol.URLEncodedBase64 `json:"challenge"`
	CredentialUUID  string                    `json:"credential_uuid"`
	CredentialID    protocol.URLEncodedBase64 `json:"credential_id"`
	ClientData      protocol.URLEncodedBase64 `json:"client_data"`
	AttestationData protocol.URLEncodedBase64 `json:"attestation_data"`
}

// AuthenticateInitRequest starts an assertion ceremony.
type AuthenticateInitRequest struct {
	Username string `json:"username"`
	Session  string `json:"session,omitempty"`
}

// AuthenticateInitResponse carries the assertion ceremony parameters.
type AuthenticateInitResponse struct {
	AssertionPayload protocol.PublicKeyCredentialRequestOptions `json:"assertion_payload"`
}

// AuthenticateCompleteRequest submits the signed assertion.
type AuthenticateCompleteRequest struct {
	Username          string                    `json:"username"`
	Challenge         protocol.URLEncodedBase64 `json:"challenge"`
	CredentialID      protocol.URLEncodedBase64 `json:"credential_id"`
	ClientData        protocol.URLEncodedBase64 `json:"client_data"`
	AuthenticatorData protocol.URLEncodedBase64 `json:"authenticator_data"`
	Signature         protocol.URLEncodedBase64 `json:"signature"`
}

// AuthResult is the bearer token issued after a completed ceremony or email
// token validation.
type AuthResult struct {
	JWT string `json:"jwt"`
}

// PhonePassInitRequest starts a phone verification for a missing attribute
// class.
type PhonePassInitRequest struct {
	Phone string `json:"phone"`
}

// PhonePassCompleteRequest confirms the phone verification code.
type PhonePassCompleteRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Code  string `json:"code"`
}
