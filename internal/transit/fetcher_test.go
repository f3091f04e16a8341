package transit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randytsao24/trainsign/internal/models"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	north, south models.DirectionSnapshot
	err          error
	calls        int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Arrivals(ctx context.Context) (models.DirectionSnapshot, models.DirectionSnapshot, error) {
	f.calls++
	return f.north, f.south, f.err
}

func records(now time.Time, offsets ...time.Duration) []models.ArrivalRecord {
	out := make([]models.ArrivalRecord, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, models.ArrivalRecord{Scheduled: now.Add(o)})
	}
	return out
}

func TestMinutesFromNow(t *testing.T) {
	tests := []struct {
		name      string
		scheduled time.Time
		want      int
	}{
		{"same instant", epoch, 0},
		{"whole minutes", epoch.Add(7 * time.Minute), 7},
		{"already passed", epoch.Add(-3 * time.Minute), -3},
		{"half rounds to even down", epoch.Add(150 * time.Second), 2},
		{"half rounds to even up", epoch.Add(210 * time.Second), 4},
		{"below half", epoch.Add(89 * time.Second), 1},
		{"above half", epoch.Add(91 * time.Second), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MinutesFromNow(epoch, tc.scheduled))
		})
	}
}

func TestMinutesFromNowStripsZones(t *testing.T) {
	scheduled, err := time.Parse(time.RFC3339, "2024-01-01T00:02:30+00:00")
	require.NoError(t, err)
	assert.Equal(t, 2, MinutesFromNow(epoch, scheduled))

	// wall clocks are compared, not instants
	ny := time.FixedZone("EST", -5*60*60)
	scheduled, err = time.Parse(time.RFC3339, "2024-01-01T00:05:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, 5, MinutesFromNow(epoch, scheduled))
	assert.Equal(t, 5, MinutesFromNow(time.Date(2024, 1, 1, 0, 0, 0, 0, ny), scheduled))
}

func TestQualifying(t *testing.T) {
	assert.Equal(t, []int{1, 4}, Qualifying([]int{0, 1, -2, 4}, 1))
	assert.Equal(t, []int{}, Qualifying([]int{0, -1}, 1))
	assert.Equal(t, []int{9, 3}, Qualifying([]int{9, 3}, 1), "order is preserved")
}

func TestSoonest(t *testing.T) {
	tests := []struct {
		name          string
		minutes       []int
		first, second string
	}{
		{"none", nil, "-", "-"},
		{"one", []int{4}, "4", "-"},
		{"two", []int{4, 9}, "4", "9"},
		{"many", []int{4, 9, 15}, "4", "9"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			first, second := Soonest(tc.minutes)
			assert.Equal(t, tc.first, first)
			assert.Equal(t, tc.second, second)
		})
	}
}

func TestFetchSelectsTwoSoonestQualifying(t *testing.T) {
	src := &fakeSource{
		north: models.DirectionSnapshot{
			Direction: models.Northbound,
			Records:   records(epoch, 0, time.Minute, 6*time.Minute, 12*time.Minute),
		},
		south: models.DirectionSnapshot{
			Direction: models.Southbound,
			Records:   records(epoch, -time.Minute, 20*time.Second, 8*time.Minute),
		},
	}

	got, err := NewFetcher(src, 1, nil).Fetch(context.Background(), epoch)
	require.NoError(t, err)

	assert.Equal(t, models.Times{
		NorthPrimary:   "1",
		NorthSecondary: "6",
		SouthPrimary:   "8",
		SouthSecondary: "-",
	}, got)
}

func TestFetchEmptyDirections(t *testing.T) {
	got, err := NewFetcher(&fakeSource{}, 1, nil).Fetch(context.Background(), epoch)
	require.NoError(t, err)
	assert.Equal(t, models.Times{
		NorthPrimary:   "-",
		NorthSecondary: "-",
		SouthPrimary:   "-",
		SouthSecondary: "-",
	}, got)
}

func TestFetchWrapsSourceErrors(t *testing.T) {
	cause := errors.New("connection refused")
	src := &fakeSource{err: cause}

	got, err := NewFetcher(src, 1, nil).Fetch(context.Background(), epoch)
	require.Error(t, err)
	assert.Equal(t, models.Times{}, got)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "fake", fetchErr.Source)
	assert.ErrorIs(t, err, cause)
}

func TestFetchKeepsExistingFetchError(t *testing.T) {
	orig := &FetchError{Source: "upstream", Err: errors.New("bad gateway")}
	_, err := NewFetcher(&fakeSource{err: orig}, 1, nil).Fetch(context.Background(), epoch)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Same(t, orig, fetchErr)
}
