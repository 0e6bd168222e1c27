package httpserver

import (
	"net/http"

	"pkdconsole/internal/platform/config"
)

// New builds an HTTP server with the configured timeouts. The write timeout
// must exceed the per-route handler timeout or long verifier round trips
// get cut off mid-response.
func New(addr string, cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
