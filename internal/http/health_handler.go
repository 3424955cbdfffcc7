package http

import (
	"net/http"
	"time"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Service) health(w http.ResponseWriter, r *http.Request) {
	s.healthReady(w, r)
}

func (s *Service) healthLive(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, healthResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
	})
}

// healthReady reports whether dependencies are reachable. Storage is the
// only hard dependency; a nil checker (in-memory setups) is always ready.
func (s *Service) healthReady(w http.ResponseWriter, r *http.Request) {
	if s.healthChecker != nil {
		if healthy, err := s.healthChecker.IsHealthy(r.Context()); !healthy {
			s.logger.ErrorContext(r.Context(), "readiness check failed", "error", err)
			s.respondJSON(w, r, http.StatusServiceUnavailable, healthResponse{
				Status:    "unhealthy",
				Timestamp: time.Now().UTC(),
			})
			return
		}
	}

	s.respondJSON(w, r, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
	})
}
