package handlers

import (
	"net/http"
	"time"
)

// Version is reported by the health and root endpoints
const Version = "1.0.0"

type HealthHandler struct {
	startTime time.Time
	boards    BoardProvider
}

func NewHealthHandler(boards BoardProvider) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), boards: boards}
}

// Health reports OK while the panel shows a fresh board. Until the first
// render, or once renders stop arriving, it answers 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"version":     Version,
		"uptime":      time.Since(h.startTime).String(),
		"stale_after": h.boards.StaleAfter().String(),
	}

	entry, ok := h.boards.Latest()
	switch {
	case !ok:
		body["status"] = "STARTING"
		writeJSON(w, http.StatusServiceUnavailable, body)
	case !entry.Fresh:
		body["status"] = "STALE"
		body["last_render"] = entry.StoredAt.UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusServiceUnavailable, body)
	default:
		body["status"] = "OK"
		body["last_render"] = entry.StoredAt.UTC().Format(time.RFC3339)
		writeJSON(w, http.StatusOK, body)
	}
}
