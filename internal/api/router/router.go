package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/baughelectric/call-assistant/internal/http/handlers"
	httpmiddleware "github.com/baughelectric/call-assistant/internal/http/middleware"
	"github.com/baughelectric/call-assistant/pkg/logging"
)

// CallWebhookPath is where the telephony platform posts call-control events.
const CallWebhookPath = "/webhooks/telnyx/call"

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	CallWebhook    *handlers.CallWebhookHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Group(func(public chi.Router) {
		if cfg.CallWebhook != nil {
			public.Get("/health", cfg.CallWebhook.HealthCheck)
			public.Get(CallWebhookPath, cfg.CallWebhook.Probe)
			public.Post(CallWebhookPath, cfg.CallWebhook.HandleCall)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	return r
}
