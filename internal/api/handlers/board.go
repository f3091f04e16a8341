package handlers

import (
	"net/http"
	"strconv"
)

type BoardHandler struct {
	boards BoardProvider
}

func NewBoardHandler(boards BoardProvider) *BoardHandler {
	return &BoardHandler{boards: boards}
}

// GetBoard returns the text on the panel. A stale board is still returned,
// flagged, with 503.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.boards.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":   "No board rendered yet",
			"message": "The sign has not completed a refresh cycle",
		})
		return
	}

	status := http.StatusOK
	if !entry.Fresh {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"success":     entry.Fresh,
		"stale":       !entry.Fresh,
		"age_seconds": int(entry.Age.Seconds()),
		"board":       entry.Value,
	})
}

// GetFrame returns the current frame as PNG
func (h *BoardHandler) GetFrame(w http.ResponseWriter, r *http.Request) {
	frame, ok := h.boards.LatestFrame()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": "No fresh frame available",
		})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(frame)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(frame)
}
