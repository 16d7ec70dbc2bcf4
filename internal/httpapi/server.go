package httpapi

import (
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"surfsup-server/internal/config"
	"surfsup-server/internal/observability"
)

func NewServer(cfg config.Config, mux *http.ServeMux, metrics *observability.Metrics) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newHandler(clockwork.NewRealClock(), metrics, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func newHandler(clock clockwork.Clock, metrics *observability.Metrics, mux *http.ServeMux) http.Handler {
	return requestID(requestLogger(clock, metrics, mux))
}
