package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainerrors "fedvault/pkg/domain-errors"
	"fedvault/pkg/platform/sentinel"
)

// Client talks to the Vault API. All calls are JSON over HTTP; errors coming
// back with a structured body are mapped onto domain errors so callers can
// branch on codes instead of status integers.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a Vault API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionInit creates or resumes a federation session for the given origin.
func (c *Client) SessionInit(ctx context.Context, req SessionInitRequest) (SessionInitResponse, error) {
	var resp SessionInitResponse
	err := c.do(ctx, http.MethodPost, "/api/federated/session/init", "", req, &resp)
	return resp, err
}

// GetSession looks up an existing federation session by id.
func (c *Client) GetSession(ctx context.Context, id string) (SessionInitResponse, error) {
	var resp SessionInitResponse
	err := c.do(ctx, http.MethodGet, "/api/federated/session/"+id, "", nil, &resp)
	return resp, err
}

// CheckUser reports whether a credential exists for the username. A vault 404
// comes back as sentinel.ErrNotFound; callers treat that as "new user", not a
// failure.
func (c *Client) CheckUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPost, "/api/federated/checkuser", "",
		map[string]string{"username": username}, nil)
}

// SendEmailSession dispatches the fallback email verification.
func (c *Client) SendEmailSession(ctx context.Context, req SendEmailSessionRequest) error {
	return c.do(ctx, http.MethodPost, "/api/federated/email/session", "", req, nil)
}

// ValidateEmailToken exchanges the out-of-band email token for a bearer token.
func (c *Client) ValidateEmailToken(ctx context.Context, token string) (AuthResult, error) {
	var resp AuthResult
	err := c.do(ctx, http.MethodPost, "/api/federated/email/validation", "",
		map[string]string{"token": token}, &resp)
	return resp, err
}

// CheckConsent fetches the consent state for a session, authorized by the
// bearer token from a completed ceremony.
func (c *Client) CheckConsent(ctx context.Context, sessionID, token string) (ConsentResponse, error) {
	var resp ConsentResponse
	err := c.do(ctx, http.MethodGet, "/api/federated/consent/"+sessionID, token, nil, &resp)
	return resp, err
}

// SaveConsent records the user's grant and returns the finalization material.
func (c *Client) SaveConsent(ctx context.Context, sessionID, token string) (SaveConsentResponse, error) {
	var resp SaveConsentResponse
	err := c.do(ctx, http.MethodPost, "/api/federated/consent", token,
		map[string]string{"session": sessionID}, &resp)
	return resp, err
}

// RegisterInit starts the registration ceremony.
func (c *Client) RegisterInit(ctx context.Context, req RegisterInitRequest) (RegisterInitResponse, error) {
	var resp RegisterInitResponse
	err := c.do(ctx, http.MethodPost, "/api/federated/register/init", "", req, &resp)
	return resp, err
}

// RegisterComplete submits the attestation and yields a bearer token.
func (c *Client) RegisterComplete(ctx context.Context, req RegisterCompleteRequest) (AuthResult, error) {
	var resp AuthResult
	err := c.do(ctx, http.MethodPost, "/api/federated/register/complete", "", req, &resp)
	return resp, err
}

// AuthenticateInit starts the assertion ceremony.
func (c *Client) AuthenticateInit(ctx context.Context, req AuthenticateInitRequest) (AuthenticateInitResponse, error) {
	var resp AuthenticateInitResponse
	err := c.do(ctx, http.MethodPost, "/api/federated/authenticate/init", "", req, &resp)
	return resp, err
}

// AuthenticateComplete submits the assertion and yields a bearer token.
func (c *Client) AuthenticateComplete(ctx context.Context, req AuthenticateCompleteRequest) (AuthResult, error) {
	var resp AuthResult
	err := c.do(ctx, http.MethodPost, "/api/federated/authenticate/complete", "", req, &resp)
	return resp, err
}

// PhonePassInit starts phone verification for a missing attribute.
func (c *Client) PhonePassInit(ctx context.Context, token string, req PhonePassInitRequest) error {
	return c.do(ctx, http.MethodPost, "/api/passes/phone/init", token, req, nil)
}

// PhonePassComplete confirms the phone verification code.
func (c *Client) PhonePassComplete(ctx context.Context, token string, req PhonePassCompleteRequest) error {
	return c.do(ctx, http.MethodPost, "/api/passes/phone/complete", token, req, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("vault request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.mapError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// vault error bodies carry a message; anything else falls back to the
// status text.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (c *Client) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	var body errorBody
	msg := resp.Status
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			msg = body.Message
		} else if body.Error != "" {
			msg = body.Error
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, sentinel.ErrNotFound)
	case http.StatusUnauthorized:
		return domainerrors.New(domainerrors.CodeUnauthorized, msg)
	case http.StatusForbidden:
		return domainerrors.New(domainerrors.CodeForbidden, msg)
	case http.StatusConflict:
		return domainerrors.New(domainerrors.CodeConflict, msg)
	case http.StatusBadRequest:
		return domainerrors.New(domainerrors.CodeBadRequest, msg)
	default:
		if resp.StatusCode >= 500 {
			return domainerrors.New(domainerrors.CodeUnavailable, msg)
		}
		return domainerrors.New(domainerrors.CodeInternal, msg)
	}
}
