package httpserver

import (
	"net/http"
	"time"
)

// New builds the HTTP server. No global read/write timeouts: the bridge
// holds websocket connections open for the lifetime of a flow, so deadlines
// are managed per connection instead.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
