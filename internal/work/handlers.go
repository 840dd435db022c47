package work

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handlers provides HTTP handlers for the work processor
type Handlers struct {
	processor  *Processor
	registry   *Registry
	completion *CompletionTracker
}

// NewHandlers creates new HTTP handlers for the work processor
func NewHandlers(processor *Processor, registry *Registry, completion *CompletionTracker) *Handlers {
	return &Handlers{
		processor:  processor,
		registry:   registry,
		completion: completion,
	}
}

// RegisterRoutes registers HTTP routes for work management
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/api/work", func(r chi.Router) {
		r.Get("/types", h.ListWorkTypes)
		r.Get("/status", h.Status)
		r.Post("/trigger", h.TriggerProcessor)
		r.Post("/{workType}/execute", h.ExecuteWorkType)
		r.Post("/{workType}/reset", h.ResetWorkType)
		r.Post("/{workType}/{subject}/execute", h.ExecuteWorkTypeWithSubject)
	})
}

// ListWorkTypes returns all registered work types
func (h *Handlers) ListWorkTypes(w http.ResponseWriter, r *http.Request) {
	types := h.registry.ByPriority()

	response := make([]map[string]any, 0, len(types))
	for _, wt := range types {
		row := map[string]any{
			"id":           wt.ID,
			"name":         wt.Name,
			"priority":     wt.Priority.String(),
			"interval":     wt.Interval.String(),
			"max_attempts": wt.maxAttempts(),
		}
		if last, ok := h.completion.GetCompletion(wt.ID, ""); ok {
			row["last_run"] = last.UTC().Format(time.RFC3339)
		}
		response = append(response, row)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Status returns the processor's current load
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"in_flight":     h.processor.InFlight(),
		"retry_backlog": h.processor.RetryBacklog(),
	})
}

// ExecuteWorkType manually executes a work type (global work)
func (h *Handlers) ExecuteWorkType(w http.ResponseWriter, r *http.Request) {
	workType := chi.URLParam(r, "workType")

	err := h.processor.ExecuteNow(workType, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "executed",
		"work_type": workType,
	})
}

// ExecuteWorkTypeWithSubject manually executes a work type with a subject
func (h *Handlers) ExecuteWorkTypeWithSubject(w http.ResponseWriter, r *http.Request) {
	workType := chi.URLParam(r, "workType")
	subject := chi.URLParam(r, "subject")

	err := h.processor.ExecuteNow(workType, subject)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "executed",
		"work_type": workType,
		"subject":   subject,
	})
}

// ResetWorkType clears the completion record for a work type so interval
// work becomes eligible on the next scan
func (h *Handlers) ResetWorkType(w http.ResponseWriter, r *http.Request) {
	workType := chi.URLParam(r, "workType")

	if !h.registry.Has(workType) {
		http.Error(w, "unknown work type: "+workType, http.StatusBadRequest)
		return
	}

	h.completion.Clear(workType, "")
	h.processor.Trigger()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":    "reset",
		"work_type": workType,
	})
}

// TriggerProcessor triggers the processor to check for work
func (h *Handlers) TriggerProcessor(w http.ResponseWriter, r *http.Request) {
	h.processor.Trigger()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "triggered",
	})
}
