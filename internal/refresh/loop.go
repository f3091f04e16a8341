// Package refresh runs the sign's process-lifetime update loop
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/randytsao24/trainsign/internal/models"
)

// Syncer resynchronizes the wall clock against an authoritative source
type Syncer interface {
	Sync(ctx context.Context) error
}

// Clock supplies the wall-clock "now" passed to the fetcher
type Clock interface {
	Now() time.Time
}

// Monotonic supplies the monotonic reading that schedules resyncs
type Monotonic interface {
	Elapsed() time.Duration
}

// Fetcher returns the four display values relative to now
type Fetcher interface {
	Fetch(ctx context.Context, now time.Time) (models.Times, error)
}

// Renderer puts the display values on the panel
type Renderer interface {
	Render(times models.Times) error
}

// Resetter hard-restarts the device. It is not expected to return.
type Resetter interface {
	Reset()
}

// SleepFunc blocks for d or until ctx is done, returning ctx.Err() in the
// latter case
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config holds the loop's fixed timing and failure policy
type Config struct {
	UpdateInterval time.Duration
	SyncInterval   time.Duration
	ResetThreshold int
}

// LoopState is the loop's mutable state. It is owned by Run and never
// shared with another goroutine.
type LoopState struct {
	ErrorCounter int
	Synced       bool
	LastSync     time.Duration
}

// Loop wires the collaborators of one refresh loop
type Loop struct {
	cfg       Config
	syncer    Syncer
	clock     Clock
	monotonic Monotonic
	fetcher   Fetcher
	renderer  Renderer
	resetter  Resetter
	sleep     SleepFunc
	logger    *slog.Logger
}

// Deps are the loop's collaborators
type Deps struct {
	Syncer    Syncer
	Clock     Clock
	Monotonic Monotonic
	Fetcher   Fetcher
	Renderer  Renderer
	Resetter  Resetter
	Sleep     SleepFunc
	Logger    *slog.Logger
}

// New creates a loop. A nil Sleep uses a timer; a nil Logger uses slog.Default.
func New(cfg Config, deps Deps) *Loop {
	if deps.Sleep == nil {
		deps.Sleep = Sleep
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Loop{
		cfg:       cfg,
		syncer:    deps.Syncer,
		clock:     deps.Clock,
		monotonic: deps.Monotonic,
		fetcher:   deps.Fetcher,
		renderer:  deps.Renderer,
		resetter:  deps.Resetter,
		sleep:     deps.Sleep,
		logger:    deps.Logger,
	}
}

// Run cycles forever: resync when due, fetch, render, then sleep the update
// interval. Failures are counted and more than ResetThreshold consecutive
// failures reset the device. Run only returns when ctx is done (checked at
// the sleep) or when the resetter returns, in which case it returns ErrReset.
func (l *Loop) Run(ctx context.Context) error {
	var state LoopState

	for {
		if err := l.Cycle(ctx, &state); err != nil {
			if errors.Is(err, ErrReset) {
				return err
			}
		}

		if err := l.sleep(ctx, l.cfg.UpdateInterval); err != nil {
			return err
		}
	}
}

// Cycle runs one iteration without the trailing sleep. It returns the
// handled *CycleError on failure, or ErrReset after the reset primitive
// was invoked.
func (l *Loop) Cycle(ctx context.Context, state *LoopState) error {
	err := l.attempt(ctx, state)
	if err == nil {
		state.ErrorCounter = 0
		return nil
	}

	state.ErrorCounter++
	l.logger.Warn("some error occurred, retrying",
		"kind", err.Kind.String(),
		"error", err.Err,
		"consecutive_failures", state.ErrorCounter,
	)

	if state.ErrorCounter > l.cfg.ResetThreshold {
		l.logger.Error("error threshold exceeded, resetting device",
			"threshold", l.cfg.ResetThreshold,
		)
		l.resetter.Reset()
		return ErrReset
	}
	return err
}

// attempt performs SYNC_CHECK, FETCH and RENDER
func (l *Loop) attempt(ctx context.Context, state *LoopState) *CycleError {
	if l.syncDue(state) {
		l.logger.Info("syncing local time")
		if err := l.syncer.Sync(ctx); err != nil {
			return asCycleError(KindSync, err)
		}
		state.Synced = true
		state.LastSync = l.monotonic.Elapsed()
	}

	times, err := l.fetcher.Fetch(ctx, l.clock.Now())
	if err != nil {
		return asCycleError(KindFetch, err)
	}

	if err := l.renderer.Render(times); err != nil {
		return asCycleError(KindRender, err)
	}

	l.logger.Debug("board updated",
		"north", times.NorthPrimary+","+times.NorthSecondary,
		"south", times.SouthPrimary+","+times.SouthSecondary,
	)
	return nil
}

func (l *Loop) syncDue(state *LoopState) bool {
	if !state.Synced {
		return true
	}
	return l.monotonic.Elapsed() > state.LastSync+l.cfg.SyncInterval
}

// Sleep waits for d on a timer, returning early with ctx.Err()
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
