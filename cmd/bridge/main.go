// The bridge binary exposes the federation protocol to connected hosts over
// a websocket. Each connection gets its own protocol instance; the Vault API
// client, metrics and the fallback opener are shared.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"

	"fedvault/internal/authflow"
	"fedvault/internal/ceremony"
	"fedvault/internal/consent"
	"fedvault/internal/fallback"
	"fedvault/internal/messaging"
	"fedvault/internal/platform/config"
	"fedvault/internal/platform/httpserver"
	"fedvault/internal/platform/logger"
	"fedvault/internal/platform/metrics"
	redisplatform "fedvault/internal/platform/redis"
	"fedvault/internal/session"
	httptransport "fedvault/internal/transport/http"
	"fedvault/internal/transport/ws"
	"fedvault/internal/vault"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)
	tracer := otel.Tracer("fedvault")

	vaultClient := vault.NewClient(cfg.VaultBaseURL)

	var mirror session.Mirror
	redisClient, err := redisplatform.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		mirror = session.NewRedisMirror(redisClient.Client, cfg.SessionMirrorTTL)
		log.Info("session mirror enabled")
	}

	opener := fallback.NewOpener(vaultClient, cfg.VaultWSURL, cfg.FallbackTimeout, log)

	factory := func(ch *messaging.Channel, userAgent string) ws.Machine {
		return authflow.New(authflow.Deps{
			Channel:    ch,
			Store:      session.NewMemoryStore(),
			Mirror:     mirror,
			Vault:      vaultClient,
			Ceremonies: ceremony.NewAdapter(vaultClient, hostSideAuthenticator{}, userAgent, log),
			Fallback:   fallbackOpener{opener},
			Consent:    consent.NewFinalizer(vaultClient, consent.NewEmbeddedDelivery(ch), log),
			Metrics:    m,
			Tracer:     tracer,
			Log:        log,
		})
	}

	bridge := ws.NewHandler(factory, log)
	router := httptransport.NewRouter(bridge, registry)
	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("bridge listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

// fallbackOpener narrows the concrete opener to the machine's interface.
type fallbackOpener struct {
	o *fallback.Opener
}

func (f fallbackOpener) Start(ctx context.Context, sessionID, email, mode, origin string) (authflow.FallbackSession, error) {
	sess, err := f.o.Start(ctx, sessionID, email, mode, origin)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// hostSideAuthenticator stands in for a platform credential provider the
// bridge process does not have. Ceremony prompts belong to the host's own
// window; hosts report completion with register_complete envelopes, and an
// abort here routes sign-in through the email fallback.
type hostSideAuthenticator struct{}

func (hostSideAuthenticator) Create(context.Context, vault.AttestationPayload) (ceremony.AttestationResponse, error) {
	return ceremony.AttestationResponse{}, ceremony.ErrAborted
}

func (hostSideAuthenticator) Get(context.Context, protocol.PublicKeyCredentialRequestOptions) (ceremony.AssertionResponse, error) {
	return ceremony.AssertionResponse{}, ceremony.ErrAborted
}
