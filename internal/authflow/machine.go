package authflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fedvault/internal/ceremony"
	"fedvault/internal/consent"
	"fedvault/internal/fallback"
	"fedvault/internal/messaging"
	"fedvault/internal/platform/metrics"
	"fedvault/internal/session"
	"fedvault/internal/vault"
	"fedvault/pkg/platform/sentinel"
	strutil "fedvault/pkg/platform/strings"
)

// Inline messages shown for recoverable conditions. These keep the current
// page; only fatal conditions move to the error page.
const (
	noticeRegisterCancel  = "Passkey registration cancel!"
	noticeFallbackTimeout = "email session timeout or cancel!"
)

// VaultFlowAPI is the slice of the Vault API the machine drives directly.
// Ceremony and consent traffic goes through their own components.
type VaultFlowAPI interface {
	SessionInit(ctx context.Context, req vault.SessionInitRequest) (vault.SessionInitResponse, error)
	GetSession(ctx context.Context, id string) (vault.SessionInitResponse, error)
	CheckUser(ctx context.Context, username string) error
	ValidateEmailToken(ctx context.Context, token string) (vault.AuthResult, error)
	PhonePassInit(ctx context.Context, token string, req vault.PhonePassInitRequest) error
	PhonePassComplete(ctx context.Context, token string, req vault.PhonePassCompleteRequest) error
}

// Ceremonies is the credential ceremony adapter surface.
type Ceremonies interface {
	Register(ctx context.Context, username string, opts ceremony.RegisterOptions) (ceremony.RegisterOutcome, error)
	Authenticate(ctx context.Context, username, sessionID string) (string, error)
}

// FallbackSession is one live email verification exchange.
type FallbackSession interface {
	Wait(ctx context.Context) (string, error)
	Cancel()
}

// FallbackOpener starts email verification sessions.
type FallbackOpener interface {
	Start(ctx context.Context, sessionID, email, mode, origin string) (FallbackSession, error)
}

// ConsentFlow is the consent finalizer surface.
type ConsentFlow interface {
	Check(ctx context.Context, sessionID, token string) (consent.State, error)
	Grant(ctx context.Context, sessionID, token string) (consent.Grant, error)
	Deny(ctx context.Context, description string) error
}

// Deps wires a Machine. Mirror is optional; everything else is required.
type Deps struct {
	Channel    *messaging.Channel
	Store      session.Store
	Mirror     session.Mirror
	Vault      VaultFlowAPI
	Ceremonies Ceremonies
	Fallback   FallbackOpener
	Consent    ConsentFlow
	Metrics    *metrics.Metrics
	Tracer     trace.Tracer
	Log        *slog.Logger
}

// Machine orchestrates one federation attempt. All state lives on the
// instance; transitions happen under the mutex, blocking work happens outside
// it and is discarded if a newer operation superseded it.
type Machine struct {
	deps Deps

	mu              sync.Mutex
	page            Page
	notice          string
	opGen           uint64
	username        string
	fallbackToken   string
	registerSession string
	consentState    consent.State
	activeFallback  FallbackSession
	disposed        bool
}

// New builds a Machine and registers it as the channel's envelope handler.
func New(deps Deps) *Machine {
	m := &Machine{deps: deps, page: PageNone}
	deps.Channel.OnReceive(m.handleEnvelope)
	return m
}

// Dispose tears the instance down: any in-flight operation result is
// discarded and a live fallback session is canceled.
func (m *Machine) Dispose() {
	m.mu.Lock()
	m.disposed = true
	m.opGen++
	active := m.activeFallback
	m.activeFallback = nil
	m.mu.Unlock()

	if active != nil {
		active.Cancel()
	}
}

// Page reports the active page.
func (m *Machine) Page() Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Notice reports the current inline message, empty when none is shown.
func (m *Machine) Notice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notice
}

// ConsentState reports what the consent page should render.
func (m *Machine) ConsentState() consent.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.consentState
}

// begin starts a new operation, superseding any in-flight one.
func (m *Machine) begin() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opGen++
	m.notice = ""
	return m.opGen
}

// current reports whether the operation is still the latest. Completions of
// superseded operations must not touch state.
func (m *Machine) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return gen == m.opGen && !m.disposed
}

func (m *Machine) setPage(gen uint64, page Page) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.opGen || m.disposed {
		return false
	}
	m.page = page
	return true
}

func (m *Machine) setNotice(gen uint64, notice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.opGen || m.disposed {
		return
	}
	m.notice = notice
}

// fail is the fatal path: error page, terminal session, error envelope out.
func (m *Machine) fail(ctx context.Context, gen uint64, reason string) {
	if !m.setPage(gen, PageError) {
		return
	}
	m.deps.Metrics.ProtocolErrors.Inc()
	m.deps.Log.Error("flow failed", "reason", reason)
	if err := m.deps.Store.MarkTerminal(ctx); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.deps.Log.Warn("marking session terminal", "error", err)
	}
	if err := m.deps.Channel.SendError(reason); err != nil {
		m.deps.Log.Warn("sending error envelope", "error", err)
	}
}

// handleEnvelope is the channel's single inbound handler. Host commands that
// block (ceremonies, fallback waits) run on their own goroutine so the pump
// stays responsive; the op generation keeps them from racing each other.
func (m *Machine) handleEnvelope(env messaging.Envelope, origin string) {
	ctx := context.Background()
	switch env.Type {
	case messaging.TypeInit:
		m.handleInit(ctx, env, origin)
	case messaging.TypeRegisterComplete:
		go m.completeHostedRegistration(ctx, env.Data)
	case messaging.TypeRegisterCancel:
		gen := m.begin()
		m.setNotice(gen, noticeRegisterCancel)
	case messaging.TypeData:
		go m.runCommand(ctx, env.Data)
	default:
		m.deps.Log.Debug("ignoring envelope", "type", string(env.Type))
	}
}

// handleInit creates the session. A second init while a session is live is
// ignored; a malformed payload fails fast without any vault traffic.
func (m *Machine) handleInit(ctx context.Context, env messaging.Envelope, origin string) {
	if sess, err := m.deps.Store.Get(ctx); err == nil && !sess.Terminal {
		m.deps.Log.Warn("ignoring init while a session is active", "session", sess.ID)
		return
	}

	gen := m.begin()
	corrID := env.ID
	if corrID == "" {
		corrID = uuid.NewString()
	}
	m.deps.Channel.SetCorrelation(corrID)

	payload, err := session.ParseInitPayload(env.Data)
	if err != nil {
		m.fail(ctx, gen, err.Error())
		return
	}

	ctx, span := m.deps.Tracer.Start(ctx, "authflow.init",
		trace.WithAttributes(attribute.String("origin", origin)))
	defer span.End()

	resp, err := m.deps.Vault.SessionInit(ctx, vault.SessionInitRequest{
		Origin:  origin,
		API:     payload.API,
		Network: payload.Network,
	})
	if err != nil {
		m.fail(ctx, gen, fmt.Sprintf("session init: %v", err))
		return
	}

	if err := m.deps.Store.Put(ctx, &session.Session{
		ID:          resp.ID,
		Origin:      origin,
		AppName:     resp.AppName,
		Attributes:  strutil.DedupeAndTrim(resp.Attributes),
		CallbackURL: resp.Callback,
	}); err != nil {
		m.fail(ctx, gen, fmt.Sprintf("session store: %v", err))
		return
	}

	m.deps.Channel.PinOrigin(origin)
	if m.deps.Mirror != nil {
		if err := m.deps.Mirror.Save(ctx, resp.ID, origin); err != nil {
			m.deps.Log.Warn("mirroring session", "error", err)
		}
	}

	if m.setPage(gen, PageLogin) {
		m.deps.Metrics.SessionsStarted.Inc()
		m.deps.Log.Info("session started", "session", resp.ID, "origin", origin)
		if err := m.deps.Channel.SendData(fmt.Sprintf(`{"session":%q}`, resp.ID)); err != nil {
			m.deps.Log.Warn("acknowledging init", "error", err)
		}
	}
}

// Resume rebuilds a session after a redirect flow navigated away and back.
// Embedders call it in place of an init envelope when a host reconnects
// carrying a session id recovered from the redirect return URL. The mirror
// only holds the id and origin; everything else is refetched.
func (m *Machine) Resume(ctx context.Context, sessionID string) error {
	if m.deps.Mirror == nil {
		return sentinel.ErrNotFound
	}
	gen := m.begin()

	origin, err := m.deps.Mirror.Load(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load mirrored session: %w", err)
	}
	resp, err := m.deps.Vault.GetSession(ctx, sessionID)
	if err != nil {
		m.fail(ctx, gen, fmt.Sprintf("resume session: %v", err))
		return err
	}

	if err := m.deps.Store.Put(ctx, &session.Session{
		ID:          resp.ID,
		Origin:      origin,
		AppName:     resp.AppName,
		Attributes:  strutil.DedupeAndTrim(resp.Attributes),
		CallbackURL: resp.Callback,
	}); err != nil && !errors.Is(err, sentinel.ErrConflict) {
		return err
	}

	m.deps.Channel.PinOrigin(origin)
	m.setPage(gen, PageLogin)
	return nil
}

// Login resolves identity for a username: ceremony when a credential exists,
// fallback email proof otherwise.
func (m *Machine) Login(ctx context.Context, username string) {
	gen := m.begin()
	m.mu.Lock()
	m.username = username
	m.mu.Unlock()

	ctx, span := m.deps.Tracer.Start(ctx, "authflow.login")
	defer span.End()

	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}

	if err := m.deps.Vault.CheckUser(ctx, username); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			m.runFallback(ctx, gen, sess, username, fallback.ModeRegister)
			return
		}
		m.setNotice(gen, fmt.Sprintf("login failed: %v", err))
		return
	}

	token, err := m.deps.Ceremonies.Authenticate(ctx, username, sess.ID)
	if err == nil {
		m.deps.Metrics.CeremoniesCompleted.Inc()
		m.storeToken(ctx, token)
		m.enterConsent(ctx, gen)
		return
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		m.runFallback(ctx, gen, sess, username, fallback.ModeRegister)
		return
	}

	// Abort or verification failure: recoverable, retry identity over email.
	if errors.Is(err, ceremony.ErrAborted) {
		m.deps.Metrics.CeremoniesAborted.Inc()
	}
	m.setNotice(gen, fmt.Sprintf("passkey sign-in did not complete: %v", err))
	m.runFallback(ctx, gen, sess, username, fallback.ModeLogin)
}

// runFallback drives one email verification and routes its token by mode:
// register mode arms the registration ceremony, login mode proves identity
// directly and proceeds to consent.
func (m *Machine) runFallback(ctx context.Context, gen uint64, sess *session.Session, email, mode string) {
	fs, err := m.deps.Fallback.Start(ctx, sess.ID, email, mode, sess.Origin)
	if err != nil {
		m.setNotice(gen, fmt.Sprintf("email verification failed to start: %v", err))
		return
	}
	m.mu.Lock()
	m.activeFallback = fs
	m.mu.Unlock()

	token, err := fs.Wait(ctx)

	m.mu.Lock()
	if m.activeFallback == fs {
		m.activeFallback = nil
	}
	m.mu.Unlock()

	if !m.current(gen) {
		return
	}
	switch {
	case errors.Is(err, sentinel.ErrTimeout):
		m.deps.Metrics.FallbackTimeouts.Inc()
		m.setNotice(gen, noticeFallbackTimeout)
		return
	case errors.Is(err, sentinel.ErrCanceled):
		return
	case err != nil:
		m.setNotice(gen, fmt.Sprintf("email verification failed: %v", err))
		return
	}
	m.deps.Metrics.FallbackTokens.Inc()

	if mode == fallback.ModeRegister {
		m.mu.Lock()
		m.fallbackToken = token
		m.mu.Unlock()
		m.setPage(gen, PageFidoReg)
		return
	}

	result, err := m.deps.Vault.ValidateEmailToken(ctx, token)
	if err != nil {
		m.setNotice(gen, fmt.Sprintf("email verification rejected: %v", err))
		return
	}
	m.storeToken(ctx, result.JWT)
	m.enterConsent(ctx, gen)
}

// RegisterPasskey runs the registration ceremony with the fallback-issued
// token. An abort keeps the page; the register session is retained so a
// retry continues the same exchange.
func (m *Machine) RegisterPasskey(ctx context.Context) {
	gen := m.begin()

	m.mu.Lock()
	username := m.username
	opts := ceremony.RegisterOptions{
		EmailToken:      m.fallbackToken,
		RegisterSession: m.registerSession,
	}
	m.mu.Unlock()

	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}
	opts.FederatedID = sess.ID

	ctx, span := m.deps.Tracer.Start(ctx, "authflow.register")
	defer span.End()

	outcome, err := m.deps.Ceremonies.Register(ctx, username, opts)
	if !m.current(gen) {
		return
	}
	m.mu.Lock()
	m.registerSession = outcome.RegisterSession
	m.mu.Unlock()

	if errors.Is(err, ceremony.ErrAborted) {
		m.deps.Metrics.CeremoniesAborted.Inc()
		m.setNotice(gen, noticeRegisterCancel)
		return
	}
	if err != nil {
		m.setNotice(gen, fmt.Sprintf("passkey registration failed: %v", err))
		return
	}

	m.deps.Metrics.CeremoniesCompleted.Inc()
	m.storeToken(ctx, outcome.JWT)
	m.enterConsent(ctx, gen)
}

// completeHostedRegistration handles a register_complete envelope from a host
// that ran the ceremony in its own window. The payload may carry the issued
// token.
func (m *Machine) completeHostedRegistration(ctx context.Context, data string) {
	gen := m.begin()
	if token := parseHostedToken(data); token != "" {
		m.storeToken(ctx, token)
	}
	m.enterConsent(ctx, gen)
}

// enterConsent asks the finalizer where the session stands. An already
// granted consent finalizes straight away; a missing attribute class routes
// through the phone proof first.
func (m *Machine) enterConsent(ctx context.Context, gen uint64) {
	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}

	state, err := m.deps.Consent.Check(ctx, sess.ID, sess.Token)
	if !m.current(gen) {
		return
	}
	if err != nil {
		m.fail(ctx, gen, fmt.Sprintf("consent check: %v", err))
		return
	}

	m.mu.Lock()
	m.consentState = state
	m.mu.Unlock()

	if state.Finalized {
		m.finish(ctx, gen)
		return
	}
	if len(state.MissingAttributes) > 0 {
		m.setPage(gen, PagePhonePass)
		return
	}
	m.setPage(gen, PageConsent)
}

// Grant records the user's approval and finalizes.
func (m *Machine) Grant(ctx context.Context) {
	gen := m.begin()
	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}

	if _, err := m.deps.Consent.Grant(ctx, sess.ID, sess.Token); err != nil {
		if !m.current(gen) {
			return
		}
		m.setNotice(gen, fmt.Sprintf("consent failed: %v", err))
		return
	}
	m.deps.Metrics.ConsentsGranted.Inc()
	m.finish(ctx, gen)
}

// SubmitPhone starts the phone proof for a missing attribute class.
func (m *Machine) SubmitPhone(ctx context.Context, phone string) {
	gen := m.begin()
	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}
	if err := m.deps.Vault.PhonePassInit(ctx, sess.Token, vault.PhonePassInitRequest{Phone: phone}); err != nil {
		m.setNotice(gen, fmt.Sprintf("phone verification failed to start: %v", err))
		return
	}
	m.setPage(gen, PagePhonePass)
}

// ConfirmPhone completes the phone proof and returns to consent.
func (m *Machine) ConfirmPhone(ctx context.Context, name, phone, code string) {
	gen := m.begin()
	if !validVerificationCode(code) {
		m.setNotice(gen, "invalid verification code")
		return
	}
	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		m.fail(ctx, gen, "no active session")
		return
	}
	if err := m.deps.Vault.PhonePassComplete(ctx, sess.Token, vault.PhonePassCompleteRequest{
		Name:  name,
		Phone: phone,
		Code:  code,
	}); err != nil {
		m.setNotice(gen, fmt.Sprintf("phone verification failed: %v", err))
		return
	}
	m.enterConsent(ctx, gen)
}

// Cancel ends the flow on the user's behalf: the relying party receives a
// "user cancel" through the active delivery and the session is cleared.
func (m *Machine) Cancel(ctx context.Context) {
	gen := m.begin()

	m.mu.Lock()
	active := m.activeFallback
	m.activeFallback = nil
	m.mu.Unlock()
	if active != nil {
		active.Cancel()
	}

	if err := m.deps.Consent.Deny(ctx, "user cancel"); err != nil {
		m.deps.Log.Warn("delivering cancel", "error", err)
	}
	m.deps.Metrics.UserCancels.Inc()

	m.clearSession(ctx)
	m.setPage(gen, PageNone)
}

// finish is the happy terminal transition.
func (m *Machine) finish(ctx context.Context, gen uint64) {
	if !m.setPage(gen, PageFinal) {
		return
	}
	if err := m.deps.Store.MarkTerminal(ctx); err != nil {
		m.deps.Log.Warn("marking session terminal", "error", err)
	}
	m.dropMirror(ctx)
	m.deps.Log.Info("flow finalized")
}

func (m *Machine) storeToken(ctx context.Context, token string) {
	m.mu.Lock()
	username := m.username
	m.mu.Unlock()
	if err := m.deps.Store.Update(ctx, func(sess *session.Session) {
		sess.Token = token
		sess.Username = username
	}); err != nil {
		m.deps.Log.Warn("storing token", "error", err)
	}
}

func (m *Machine) clearSession(ctx context.Context) {
	m.dropMirror(ctx)
	if err := m.deps.Store.Clear(ctx); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		m.deps.Log.Warn("clearing session", "error", err)
	}
}

func (m *Machine) dropMirror(ctx context.Context) {
	if m.deps.Mirror == nil {
		return
	}
	sess, err := m.deps.Store.Get(ctx)
	if err != nil {
		return
	}
	if err := m.deps.Mirror.Drop(ctx, sess.ID); err != nil {
		m.deps.Log.Warn("dropping mirrored session", "error", err)
	}
}
