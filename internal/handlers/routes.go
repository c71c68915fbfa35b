package handlers

import "github.com/go-chi/chi/v5"

func RegisterContactRoutes(r chi.Router, h *ContactHandler) {
	r.Post("/api/contact", h.SubmitContact)
}

func RegisterTelegramRoutes(r chi.Router, h *TelegramHandler) {
	r.Post("/api/telegram/webhook/{secret}", h.Webhook)
}

func RegisterHealthRoutes(r chi.Router, h *HealthHandler) {
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.Health)
		r.Get("/live", h.Liveness)
		r.Get("/ready", h.Readiness)
		r.Get("/startup", h.Startup)
	})
}
