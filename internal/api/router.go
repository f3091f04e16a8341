package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/randytsao24/trainsign/internal/api/handlers"
)

// NewRouter creates the status router with all routes and middleware.
// A nil logger uses slog.Default.
func NewRouter(boards handlers.BoardProvider, requestTimeout time.Duration, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(boards)
	rootHandler := handlers.NewRootHandler()
	boardHandler := handlers.NewBoardHandler(boards)

	mux.HandleFunc("GET /{$}", rootHandler.Index)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /board", boardHandler.GetBoard)
	mux.HandleFunc("GET /board.png", boardHandler.GetFrame)
	mux.HandleFunc("/", rootHandler.NotFound)

	return Chain(mux,
		Recovery(logger),
		Logging(logger),
		CORS,
		Timeout(requestTimeout),
	)
}
