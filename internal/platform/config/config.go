package config

import (
	"os"
	"time"
)

// Config captures process-level configuration for the bridge binary and the
// protocol components it wires together.
type Config struct {
	// Addr is the bridge HTTP listen address.
	Addr string
	// VaultBaseURL is the Vault API HTTP endpoint.
	VaultBaseURL string
	// VaultWSURL is the Vault API websocket endpoint used by the email
	// fallback channel.
	VaultWSURL string
	// RedisURL enables the session mirror when non-empty.
	RedisURL string
	// FallbackTimeout bounds the wait for an email fallback token.
	FallbackTimeout time.Duration
	// SessionMirrorTTL bounds how long a mirrored session reference survives
	// a full-page navigation.
	SessionMirrorTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:             getenv("FEDVAULT_ADDR", ":8090"),
		VaultBaseURL:     getenv("FEDVAULT_VAULT_URL", "http://localhost:3000"),
		VaultWSURL:       getenv("FEDVAULT_VAULT_WS_URL", "ws://localhost:3001"),
		RedisURL:         os.Getenv("FEDVAULT_REDIS_URL"),
		FallbackTimeout:  getenvDuration("FEDVAULT_FALLBACK_TIMEOUT", 10*time.Second),
		SessionMirrorTTL: getenvDuration("FEDVAULT_SESSION_MIRROR_TTL", 5*time.Minute),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
