// Package handlers provides HTTP handlers for runtime settings.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/adarsh-anand15/quantum-learning/internal/events"
	"github.com/adarsh-anand15/quantum-learning/internal/modules/settings"
)

// Handler provides HTTP handlers for settings endpoints.
type Handler struct {
	service      *settings.Service
	eventManager *events.Manager
	log          zerolog.Logger
}

// NewHandler creates a new settings handler.
func NewHandler(service *settings.Service, eventManager *events.Manager, log zerolog.Logger) *Handler {
	return &Handler{
		service:      service,
		eventManager: eventManager,
		log:          log.With().Str("handler", "settings").Logger(),
	}
}

// RegisterRoutes registers settings routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", h.HandleGetAll)
		r.Put("/", h.HandleBulkUpdate)
		r.Put("/{key}", h.HandleUpdate)
	})
}

// HandleGetAll handles GET /api/settings.
// Returns every known setting with stored values overlaid on defaults.
func (h *Handler) HandleGetAll(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get settings")
		h.writeError(w, http.StatusInternalServerError, "Failed to get settings")
		return
	}

	h.writeJSON(w, http.StatusOK, all)
}

// HandleUpdate handles PUT /api/settings/{key}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var update settings.SettingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.Set(key, update.Value); err != nil {
		if errors.Is(err, settings.ErrUnknownSetting) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.emitChanged(key, update.Value)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{key: update.Value})
}

// HandleBulkUpdate handles PUT /api/settings.
// Accepts a key/value object. Every key is validated before any value is
// stored, so a typo rejects the whole request instead of applying half
// of it.
func (h *Handler) HandleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(updates) == 0 {
		h.writeError(w, http.StatusBadRequest, "No settings provided")
		return
	}

	for key := range updates {
		if _, ok := settings.SettingDefaults[key]; !ok {
			h.writeError(w, http.StatusBadRequest, "unknown setting: "+key)
			return
		}
	}

	for key, value := range updates {
		if err := h.service.Set(key, value); err != nil {
			h.log.Error().Err(err).Str("key", key).Msg("Failed to update setting")
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.emitChanged(key, value)
	}

	h.writeJSON(w, http.StatusOK, updates)
}

func (h *Handler) emitChanged(key string, value interface{}) {
	if h.eventManager == nil {
		return
	}
	h.eventManager.EmitTyped(events.SettingsChanged, "settings", &events.SettingsChangedData{
		Key:   key,
		Value: value,
	})
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]string{"error": message}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode error response")
	}
}
