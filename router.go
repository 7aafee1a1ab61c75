package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	lbnet "LiveBoard/internal/net"
	"LiveBoard/internal/platform/logger"
	"LiveBoard/internal/platform/metrics"
)

// newRouter mounts the relay, its metrics and a health check.
func newRouter(pm *lbnet.PeerManager, met *metrics.Metrics, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))

	r.Handle(lbnet.RelayPath, pm)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetPeers(pm.Count()) }).ServeHTTP(w, r)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
