package handlers

import (
	"time"

	"github.com/randytsao24/trainsign/internal/cache"
	"github.com/randytsao24/trainsign/internal/models"
)

// BoardProvider abstracts the latest rendered board for testability.
type BoardProvider interface {
	// Latest returns the last board, fresh or stale.
	Latest() (cache.Entry[models.Board], bool)
	// LatestFrame returns the last frame as PNG while it is fresh.
	LatestFrame() ([]byte, bool)
	// StaleAfter is the age at which a board stops counting as fresh.
	StaleAfter() time.Duration
}
