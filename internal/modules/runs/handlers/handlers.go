// Package handlers provides HTTP handlers for the runs module.
//
// It exposes run submission and lifecycle management, experiment presets,
// the target catalog, and a websocket stream of per-run progress events.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/runs"
	"github.com/adarsh-anand15/quantum-learning/internal/synthesis"
	"github.com/adarsh-anand15/quantum-learning/internal/targets"
)

// Handler handles HTTP requests for run operations.
type Handler struct {
	service    *runs.Service
	presets    *runs.PresetStore
	bus        *events.Bus
	plotRoutes func(chi.Router)
	log        zerolog.Logger
}

// NewHandler creates a new runs handler.
func NewHandler(service *runs.Service, presets *runs.PresetStore, bus *events.Bus, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		presets: presets,
		bus:     bus,
		log:     log.With().Str("handler", "runs").Logger(),
	}
}

// AttachPlotRoutes mounts plot rendering routes under each run. Wired after
// construction because the plots module is built on top of the runs service.
func (h *Handler) AttachPlotRoutes(register func(chi.Router)) {
	h.plotRoutes = register
}

// HandleSubmitRun handles POST /api/runs.
//
// The request body is decoded over the spec template, so omitted
// hyperparameters fall back to the configured defaults.
func (h *Handler) HandleSubmitRun(w http.ResponseWriter, r *http.Request) {
	spec := h.service.SpecTemplate()
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.service.Submit(spec)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListRuns handles GET /api/runs.
func (h *Handler) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	kind := r.URL.Query().Get("kind")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter: "+raw)
			return
		}
		limit = parsed
	}

	list, err := h.service.List(status, kind, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list runs")
		h.writeError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if list == nil {
		list = []*runs.Run{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"runs":  list,
			"count": len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetRun handles GET /api/runs/{id}.
func (h *Handler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.Get(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to get run")
		h.writeError(w, http.StatusInternalServerError, "Failed to get run")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCancelRun handles POST /api/runs/{id}/cancel.
func (h *Handler) HandleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.service.Cancel(id)
	if err != nil {
		switch {
		case errors.Is(err, runs.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
		case errors.Is(err, runs.ErrRunFinished):
			h.writeError(w, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Str("run_id", id).Msg("Failed to cancel run")
			h.writeError(w, http.StatusInternalServerError, "Failed to cancel run")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleDeleteRun handles DELETE /api/runs/{id}.
func (h *Handler) HandleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(id); err != nil {
		switch {
		case errors.Is(err, runs.ErrNotFound):
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
		case errors.Is(err, runs.ErrRunActive):
			h.writeError(w, http.StatusConflict, "Run is currently executing, cancel it first")
		default:
			h.log.Error().Err(err).Str("run_id", id).Msg("Failed to delete run")
			h.writeError(w, http.StatusInternalServerError, "Failed to delete run")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"id":      id,
			"deleted": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRunTrace handles GET /api/runs/{id}/trace.
func (h *Handler) HandleRunTrace(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	trace, err := h.service.Trace(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load trace")
		h.writeError(w, http.StatusInternalServerError, "Failed to load trace")
		return
	}
	if trace == nil {
		trace = []synthesis.TracePoint{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": id,
			"trace":  trace,
			"count":  len(trace),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleRunParams handles GET /api/runs/{id}/params.
func (h *Handler) HandleRunParams(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	params, err := h.service.Params(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "Run not found: "+id)
			return
		}
		h.log.Error().Err(err).Str("run_id", id).Msg("Failed to load parameters")
		h.writeError(w, http.StatusInternalServerError, "Failed to load parameters")
		return
	}
	if params == nil {
		params = []float64{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"run_id": id,
			"params": params,
			"count":  len(params),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListPresets handles GET /api/presets.
func (h *Handler) HandleListPresets(w http.ResponseWriter, r *http.Request) {
	presets := h.presets.List()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"presets": presets,
			"count":   len(presets),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSubmitPreset handles POST /api/presets/{name}/submit.
//
// An optional JSON body is decoded over the preset spec, allowing callers to
// override individual fields such as the run name or iteration count.
func (h *Handler) HandleSubmitPreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	preset, err := h.presets.Get(name)
	if err != nil {
		if errors.Is(err, runs.ErrPresetNotFound) {
			h.writeError(w, http.StatusNotFound, "Preset not found: "+name)
			return
		}
		h.log.Error().Err(err).Str("preset", name).Msg("Failed to load preset")
		h.writeError(w, http.StatusInternalServerError, "Failed to load preset")
		return
	}

	spec := preset.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run, err := h.service.Submit(spec)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": run,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"preset":    preset.Name,
		},
	})
}

// HandleTargets handles GET /api/targets.
func (h *Handler) HandleTargets(w http.ResponseWriter, r *http.Request) {
	gates := targets.GateCatalog()
	states := targets.StateCatalog()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"gates":  gates,
			"states": states,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
