// Package transit fetches arrivals for the sign's stop and turns them into
// minutes-from-now display values
package transit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/randytsao24/trainsign/internal/models"
)

// FetchError is any transport, decode or payload-shape failure while
// retrieving arrivals
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching arrivals from %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source retrieves the raw arrivals for both directions at the stop.
// Records in each snapshot are earliest first.
type Source interface {
	Name() string
	Arrivals(ctx context.Context) (north, south models.DirectionSnapshot, err error)
}

// Fetcher converts source arrivals into the four display values
type Fetcher struct {
	source         Source
	minimumMinutes int
	logger         *slog.Logger
}

// NewFetcher creates a fetcher that hides arrivals sooner than minimumMinutes
func NewFetcher(source Source, minimumMinutes int, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		source:         source,
		minimumMinutes: minimumMinutes,
		logger:         logger,
	}
}

// Fetch returns the two soonest qualifying arrivals per direction relative
// to now. Source failures are returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, now time.Time) (models.Times, error) {
	f.logger.Debug("fetching arrival times", "source", f.source.Name())

	north, south, err := f.source.Arrivals(ctx)
	if err != nil {
		return models.Times{}, asFetchError(f.source.Name(), err)
	}

	f.logger.Debug("arrivals fetched",
		"now", now.Format(time.DateTime),
		"northbound", len(north.Records),
		"southbound", len(south.Records),
	)

	n := Qualifying(MinutesList(now, north.Records), f.minimumMinutes)
	s := Qualifying(MinutesList(now, south.Records), f.minimumMinutes)

	n0, n1 := Soonest(n)
	s0, s1 := Soonest(s)

	return models.Times{
		NorthPrimary:   n0,
		NorthSecondary: n1,
		SouthPrimary:   s0,
		SouthSecondary: s1,
	}, nil
}

// MinutesFromNow returns the whole minutes from now until scheduled.
// Both instants are compared by wall clock with their zones stripped, and
// half minutes round to even (2.5 -> 2, 3.5 -> 4).
func MinutesFromNow(now, scheduled time.Time) int {
	delta := naive(scheduled).Sub(naive(now))
	return int(math.RoundToEven(delta.Seconds() / 60.0))
}

// MinutesList converts records to minutes-from-now, keeping their order
func MinutesList(now time.Time, records []models.ArrivalRecord) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, MinutesFromNow(now, r.Scheduled))
	}
	return out
}

// Qualifying keeps the minutes that are at least minimum, in order
func Qualifying(minutes []int, minimum int) []int {
	out := make([]int, 0, len(minutes))
	for _, m := range minutes {
		if m >= minimum {
			out = append(out, m)
		}
	}
	return out
}

// Soonest renders index 0 and 1 as text, or the placeholder when absent
func Soonest(minutes []int) (first, second string) {
	first, second = models.Placeholder, models.Placeholder
	if len(minutes) > 0 {
		first = strconv.Itoa(minutes[0])
	}
	if len(minutes) > 1 {
		second = strconv.Itoa(minutes[1])
	}
	return first, second
}

// naive keeps the wall-clock fields of t and drops its zone
func naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func asFetchError(source string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{Source: source, Err: err}
}
