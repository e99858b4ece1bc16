package web

import (
	"encoding/json"
	"net/http"
	"time"
)

// WriteJSON encodes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	return json.NewEncoder(w).Encode(payload)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Provider  string    `json:"testimonials"`
	Timestamp time.Time `json:"timestamp"`
}

// Health reports liveness together with the bound testimonial provider kind.
func Health(providerKind string, clock func() time.Time) Action {
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	return func(w http.ResponseWriter, _ *http.Request) error {
		return WriteJSON(w, http.StatusOK, healthResponse{
			Status:    "ok",
			Provider:  providerKind,
			Timestamp: clock(),
		})
	}
}
