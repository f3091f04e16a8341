package handlers

import (
	"net/http"
)

type RootHandler struct{}

func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

func (h *RootHandler) Index(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":        "trainsign",
		"description": "Subway arrival sign status",
		"version":     Version,
		"endpoints": map[string]string{
			"GET /":          "API information",
			"GET /health":    "Health check",
			"GET /board":     "Text currently on the panel",
			"GET /board.png": "Current panel frame",
		},
	})
}

func (h *RootHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error":   "Route not found",
		"message": "Check the root endpoint (/) for available routes",
	})
}
