// Package clock provides the sign's wall clock and its NTP resync
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"
)

// SyncError is returned when the time source could not be resynchronized
type SyncError struct {
	Server string
	Err    error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("time sync with %s: %v", e.Server, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// QueryFunc queries an NTP server. It matches ntp.QueryWithOptions.
type QueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// NTPClock is a wall clock corrected by the offset of the last NTP resync.
// Now returns local time in the display's time zone.
type NTPClock struct {
	server   string
	location *time.Location
	timeout  time.Duration
	query    QueryFunc
	now      func() time.Time

	mu     sync.RWMutex
	offset time.Duration
}

// NewNTPClock creates a clock that syncs against server and reports time in loc
func NewNTPClock(server string, loc *time.Location, timeout time.Duration) *NTPClock {
	if loc == nil {
		loc = time.UTC
	}
	return &NTPClock{
		server:   server,
		location: loc,
		timeout:  timeout,
		query:    ntp.QueryWithOptions,
		now:      time.Now,
	}
}

// Sync queries the NTP server and stores the clock offset.
// The previous offset is kept on failure.
func (c *NTPClock) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &SyncError{Server: c.server, Err: err}
	}

	resp, err := c.query(c.server, ntp.QueryOptions{Timeout: c.timeout})
	if err != nil {
		return &SyncError{Server: c.server, Err: err}
	}
	if err := resp.Validate(); err != nil {
		return &SyncError{Server: c.server, Err: err}
	}

	c.mu.Lock()
	c.offset = resp.ClockOffset
	c.mu.Unlock()
	return nil
}

// Offset returns the correction applied by the last successful Sync
func (c *NTPClock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Now returns the corrected wall clock in the display time zone
func (c *NTPClock) Now() time.Time {
	return c.now().Add(c.Offset()).In(c.location)
}

// Monotonic is a process-relative monotonic reading used to schedule resyncs
type Monotonic struct {
	start time.Time
}

// NewMonotonic starts a monotonic reference at the current instant
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Elapsed returns the monotonic time since the reference was taken
func (m *Monotonic) Elapsed() time.Duration {
	return time.Since(m.start)
}
