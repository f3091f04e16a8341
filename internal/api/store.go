package api

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/randytsao24/trainsign/internal/cache"
	"github.com/randytsao24/trainsign/internal/models"
)

const latestKey = "latest"

// BoardStore keeps the most recent board and frame for the status API.
// It is a display sink, so it sees exactly what the panel shows.
type BoardStore struct {
	boards *cache.Cache[models.Board]
	frames *cache.Cache[[]byte]
}

// NewBoardStore creates a store whose entries turn stale after ttl
func NewBoardStore(ttl time.Duration) *BoardStore {
	return &BoardStore{
		boards: cache.New[models.Board](ttl),
		frames: cache.New[[]byte](ttl),
	}
}

func (s *BoardStore) Name() string { return "status" }

// Present encodes the frame as PNG and stores it alongside the board.
// The boot frame carries no arrival times yet and is not stored, so the
// API keeps reporting that no cycle has completed.
func (s *BoardStore) Present(frame image.Image, board models.Board) error {
	if board.Times == (models.Times{}) {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}

	s.boards.Set(latestKey, board)
	s.frames.Set(latestKey, buf.Bytes())
	return nil
}

// Latest returns the last stored board, fresh or not
func (s *BoardStore) Latest() (cache.Entry[models.Board], bool) {
	return s.boards.Peek(latestKey)
}

// LatestFrame returns the last frame only while it is fresh
func (s *BoardStore) LatestFrame() ([]byte, bool) {
	return s.frames.Get(latestKey)
}

// StaleAfter returns how long a stored board counts as fresh
func (s *BoardStore) StaleAfter() time.Duration {
	return s.boards.TTL()
}
