package api

import (
	"encoding/json"
	"net/http"
)

// Envelope statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON response body.
type Envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// writeJSON sends body with status. The header is already out when encoding
// fails, so the error can only be logged.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Warn(r.Context(), "write response", "path", r.URL.Path, "status", status, "error", err)
	}
}

func (h *Handler) writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.writeJSON(w, r, status, Envelope{Status: StatusSuccess, Data: data})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, Envelope{Status: StatusError, Message: msg})
}
