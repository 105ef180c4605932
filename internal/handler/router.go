package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tralhotec/tralhobot-go/internal/infra/observability"
	"github.com/tralhotec/tralhobot-go/internal/port"
	"github.com/tralhotec/tralhobot-go/internal/service"
)

// NewRouter creates the HTTP router with all routes and middleware.
// The bot surface is a single webhook plus operational endpoints.
func NewRouter(
	dispatcher *service.Dispatcher,
	sender port.ActivitySender,
	appID, appPassword string,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Get("/v1/metrics/bot", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetBotSnapshot())
	})

	// --- Webhook ---
	r.Route("/api", func(r chi.Router) {
		r.Use(WebhookAuthMiddleware(appID, appPassword, logger))
		r.Post("/messages", MessagesHandler(dispatcher, sender, logger))
	})

	return r
}
