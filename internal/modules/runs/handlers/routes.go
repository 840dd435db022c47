package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers runs module routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/runs", func(r chi.Router) {
		r.Post("/", h.HandleSubmitRun)
		r.Get("/", h.HandleListRuns)
		r.Get("/{id}", h.HandleGetRun)
		r.Post("/{id}/cancel", h.HandleCancelRun)
		r.Delete("/{id}", h.HandleDeleteRun)
		r.Get("/{id}/trace", h.HandleRunTrace)
		r.Get("/{id}/params", h.HandleRunParams)
		r.Get("/{id}/stream", h.HandleStreamRun)

		if h.plotRoutes != nil {
			r.Route("/{id}/plots", h.plotRoutes)
		}
	})

	r.Route("/presets", func(r chi.Router) {
		r.Get("/", h.HandleListPresets)
		r.Post("/{name}/submit", h.HandleSubmitPreset)
	})

	r.Get("/targets", h.HandleTargets)
}
