package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/adarsh-anand15/quantum-learning/internal/database"
	"github.com/adarsh-anand15/quantum-learning/internal/version"
)

// handleHealth handles health check requests. It pings both databases so a
// wedged connection pool shows up here instead of on the first real request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	httpStatus := http.StatusOK
	databases := map[string]string{}

	for _, db := range []*database.DB{s.runsDB, s.cacheDB} {
		if err := db.QuickCheck(ctx); err != nil {
			s.log.Error().Err(err).Str("database", db.Name()).Msg("Health check ping failed")
			databases[db.Name()] = "unreachable"
			status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		databases[db.Name()] = "ok"
	}

	response := map[string]interface{}{
		"status":    status,
		"version":   version.Version,
		"service":   "quantum-learning",
		"databases": databases,
	}

	s.writeJSON(w, httpStatus, response)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
