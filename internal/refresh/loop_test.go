package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/trainsign/internal/models"
)

var errUpstream = errors.New("upstream unavailable")

type fakeSyncer struct {
	calls int
	errs  []error
}

func (f *fakeSyncer) Sync(ctx context.Context) error {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

type fakeMonotonic struct{ elapsed time.Duration }

func (f *fakeMonotonic) Elapsed() time.Duration { return f.elapsed }

// fakeFetcher fails while failing is true
type fakeFetcher struct {
	failing bool
	calls   int
	nows    []time.Time
	times   models.Times
}

func (f *fakeFetcher) Fetch(ctx context.Context, now time.Time) (models.Times, error) {
	f.calls++
	f.nows = append(f.nows, now)
	if f.failing {
		return models.Times{}, errUpstream
	}
	return f.times, nil
}

type fakeRenderer struct {
	err      error
	rendered []models.Times
}

func (f *fakeRenderer) Render(times models.Times) error {
	if f.err != nil {
		return f.err
	}
	f.rendered = append(f.rendered, times)
	return nil
}

type fakeResetter struct{ resets int }

func (f *fakeResetter) Reset() { f.resets++ }

type harness struct {
	loop      *Loop
	syncer    *fakeSyncer
	clock     *fakeClock
	monotonic *fakeMonotonic
	fetcher   *fakeFetcher
	renderer  *fakeRenderer
	resetter  *fakeResetter
	sleeps    []time.Duration
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		syncer:    &fakeSyncer{},
		clock:     &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		monotonic: &fakeMonotonic{},
		fetcher: &fakeFetcher{times: models.Times{
			NorthPrimary: "3", NorthSecondary: "9", SouthPrimary: "5", SouthSecondary: "-",
		}},
		renderer: &fakeRenderer{},
		resetter: &fakeResetter{},
	}
	h.loop = New(Config{
		UpdateInterval: 15 * time.Second,
		SyncInterval:   30 * time.Second,
		ResetThreshold: 3,
	}, Deps{
		Syncer:    h.syncer,
		Clock:     h.clock,
		Monotonic: h.monotonic,
		Fetcher:   h.fetcher,
		Renderer:  h.renderer,
		Resetter:  h.resetter,
	})
	return h
}

// runCycles drives Cycle directly, advancing the monotonic clock by the
// update interval between iterations the way Run's sleep would
func (h *harness) runCycles(ctx context.Context, state *LoopState, n int) []error {
	errs := make([]error, 0, n)
	for i := 0; i < n; i++ {
		errs = append(errs, h.loop.Cycle(ctx, state))
		h.monotonic.elapsed += 15 * time.Second
	}
	return errs
}

func TestThreeFailuresDoNotReset(t *testing.T) {
	h := newHarness(t)
	h.fetcher.failing = true
	var state LoopState

	errs := h.runCycles(context.Background(), &state, 3)

	assert.Zero(t, h.resetter.resets)
	assert.Equal(t, 3, state.ErrorCounter)
	for _, err := range errs {
		var ce *CycleError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, KindFetch, ce.Kind)
		assert.ErrorIs(t, err, errUpstream)
	}
}

func TestFourthConsecutiveFailureResetsOnce(t *testing.T) {
	h := newHarness(t)
	h.fetcher.failing = true
	var state LoopState

	errs := h.runCycles(context.Background(), &state, 4)

	assert.Equal(t, 1, h.resetter.resets)
	assert.ErrorIs(t, errs[3], ErrReset)
}

func TestSuccessResetsErrorCounter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var state LoopState

	h.fetcher.failing = true
	h.runCycles(ctx, &state, 3)
	require.Equal(t, 3, state.ErrorCounter)

	h.fetcher.failing = false
	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Zero(t, state.ErrorCounter)

	h.fetcher.failing = true
	h.runCycles(ctx, &state, 3)
	assert.Zero(t, h.resetter.resets, "three failures after a success must not reset")
	assert.Equal(t, 3, state.ErrorCounter)
}

func TestSuccessRendersFetchedTimes(t *testing.T) {
	h := newHarness(t)
	var state LoopState

	require.NoError(t, h.loop.Cycle(context.Background(), &state))

	require.Len(t, h.renderer.rendered, 1)
	assert.Equal(t, h.fetcher.times, h.renderer.rendered[0])
	assert.Equal(t, []time.Time{h.clock.t}, h.fetcher.nows, "fetch receives the clock's now")
}

func TestResyncSchedule(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var state LoopState

	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Equal(t, 1, h.syncer.calls, "first cycle always syncs")
	assert.True(t, state.Synced)
	assert.Zero(t, state.LastSync)

	h.monotonic.elapsed = 15 * time.Second
	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Equal(t, 1, h.syncer.calls)

	h.monotonic.elapsed = 30 * time.Second
	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Equal(t, 1, h.syncer.calls, "sync is due only strictly after the interval")

	h.monotonic.elapsed = 31 * time.Second
	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Equal(t, 2, h.syncer.calls)
	assert.Equal(t, 31*time.Second, state.LastSync)
}

func TestSyncFailureIsACycleFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.syncer.errs = []error{errors.New("ntp timeout")}
	var state LoopState

	err := h.loop.Cycle(ctx, &state)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindSync, ce.Kind)
	assert.Equal(t, 1, state.ErrorCounter)
	assert.False(t, state.Synced)
	assert.Zero(t, h.fetcher.calls, "fetch is skipped after a failed sync")

	h.monotonic.elapsed = 15 * time.Second
	require.NoError(t, h.loop.Cycle(ctx, &state))
	assert.Equal(t, 2, h.syncer.calls, "sync is retried on the next cycle")
	assert.Equal(t, 15*time.Second, state.LastSync)
	assert.Zero(t, state.ErrorCounter)
}

func TestRenderFailureIsACycleFailure(t *testing.T) {
	h := newHarness(t)
	h.renderer.err = errors.New("i2c write failed")
	var state LoopState

	err := h.loop.Cycle(context.Background(), &state)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, KindRender, ce.Kind)
	assert.Equal(t, "render failed: i2c write failed", ce.Error())
	assert.Equal(t, 1, state.ErrorCounter)
}

func TestMixedFailureKindsShareTheCounter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	var state LoopState

	h.syncer.errs = []error{errors.New("ntp timeout")}
	assert.Error(t, h.loop.Cycle(ctx, &state))

	h.fetcher.failing = true
	assert.Error(t, h.loop.Cycle(ctx, &state))

	h.fetcher.failing = false
	h.renderer.err = errors.New("panel gone")
	assert.Error(t, h.loop.Cycle(ctx, &state))
	assert.Zero(t, h.resetter.resets)

	assert.ErrorIs(t, h.loop.Cycle(ctx, &state), ErrReset)
	assert.Equal(t, 1, h.resetter.resets)
}

func TestRunSleepsAfterEveryCycle(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	h.loop.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		h.monotonic.elapsed += d
		calls++
		// fail the second cycle, then stop after the third sleep
		h.fetcher.failing = calls == 1
		if calls == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	err := h.loop.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{15 * time.Second, 15 * time.Second, 15 * time.Second}, h.sleeps)
	assert.Equal(t, 3, h.fetcher.calls)
	assert.Len(t, h.renderer.rendered, 2)
}

func TestRunReturnsAfterReset(t *testing.T) {
	h := newHarness(t)
	h.fetcher.failing = true
	h.loop.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return nil
	}

	err := h.loop.Run(context.Background())
	assert.ErrorIs(t, err, ErrReset)
	assert.Equal(t, 1, h.resetter.resets)
	assert.Equal(t, 4, h.fetcher.calls)
	assert.Len(t, h.sleeps, 3, "no sleep after the reset")
}

func TestSleep(t *testing.T) {
	require.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "sync", KindSync.String())
	assert.Equal(t, "fetch", KindFetch.String())
	assert.Equal(t, "render", KindRender.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
