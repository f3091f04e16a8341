// Package device holds the sign's hardware-level primitives
package device

import (
	"log/slog"
	"os"
)

// ResetExitCode is the status the process exits with on a hard reset.
// The service unit restarts the sign on any non-zero exit.
const ResetExitCode = 75

// Closer is released before the process exits, e.g. the panel driver
type Closer interface {
	Close() error
}

// ExitResetter restarts the sign by exiting the process and leaving the
// restart to the supervisor. The display blanks and the sign boots again.
type ExitResetter struct {
	logger  *slog.Logger
	exit    func(code int)
	closers []Closer
}

// NewExitResetter creates a resetter that releases closers before exiting
func NewExitResetter(logger *slog.Logger, closers ...Closer) *ExitResetter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExitResetter{
		logger:  logger,
		exit:    os.Exit,
		closers: closers,
	}
}

// Reset releases hardware and exits. It does not return in production.
func (r *ExitResetter) Reset() {
	r.logger.Error("resetting device", "exit_code", ResetExitCode)
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			r.logger.Warn("release before reset failed", "error", err)
		}
	}
	r.exit(ResetExitCode)
}
