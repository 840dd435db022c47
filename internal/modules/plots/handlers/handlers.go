// Package handlers provides HTTP handlers for rendered run plots.
//
// The routes are registered under each run's subtree, so every endpoint
// resolves the {id} parameter from the parent router.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/modules/plots"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
)

// Handler handles HTTP requests for plot rendering.
type Handler struct {
	service *plots.Service
	log     zerolog.Logger
}

// NewHandler creates a new plots handler.
func NewHandler(service *plots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "plots").Logger(),
	}
}

// RegisterRoutes registers plot routes relative to a run subtree, typically
// mounted at /api/runs/{id}/plots.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/cost.png", h.HandleCostPlot)
	r.Get("/convergence.png", h.HandleConvergencePlot)
	r.Get("/matrix.png", h.HandleMatrixPlot)
	r.Get("/wigner.png", h.HandleWignerPlot)
}

// HandleCostPlot handles GET /api/runs/{id}/plots/cost.png.
func (h *Handler) HandleCostPlot(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, plots.PlotCost, plots.Options{})
}

// HandleConvergencePlot handles GET /api/runs/{id}/plots/convergence.png.
func (h *Handler) HandleConvergencePlot(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, plots.PlotConvergence, plots.Options{})
}

// HandleMatrixPlot handles GET /api/runs/{id}/plots/matrix.png.
func (h *Handler) HandleMatrixPlot(w http.ResponseWriter, r *http.Request) {
	opts := plots.Options{
		Which: r.URL.Query().Get("which"),
		Part:  r.URL.Query().Get("part"),
	}
	h.render(w, r, plots.PlotMatrix, opts)
}

// HandleWignerPlot handles GET /api/runs/{id}/plots/wigner.png.
func (h *Handler) HandleWignerPlot(w http.ResponseWriter, r *http.Request) {
	opts := plots.Options{
		Which: r.URL.Query().Get("which"),
	}
	if raw := r.URL.Query().Get("points"); raw != "" {
		points, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid points parameter: "+raw)
			return
		}
		opts.Points = points
	}
	h.render(w, r, plots.PlotWigner, opts)
}

// render runs the service call shared by every endpoint and maps its
// errors onto HTTP statuses.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, opts plots.Options) {
	id := chi.URLParam(r, "id")

	png, err := h.service.Render(id, name, opts)
	if err != nil {
		switch {
		case errors.Is(err, runs.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
		case errors.Is(err, plots.ErrNoData):
			h.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, plots.ErrRunNotFinished):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, plots.ErrWrongKind), errors.Is(err, plots.ErrInvalidOptions):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Str("run_id", id).Str("plot", name).Msg("Failed to render plot")
			h.writeError(w, http.StatusInternalServerError, "Failed to render plot")
		}
		return
	}

	// Terminal runs never change, so clients may cache aggressively.
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.log.Debug().Err(err).Str("run_id", id).Msg("Plot write aborted")
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
