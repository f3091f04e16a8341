package transit

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/proto"

	"github.com/randytsao24/trainsign/internal/models"
)

// GTFSSource reads the stop's arrivals from an MTA GTFS-RT feed.
// MTA stop IDs: base = parent, N = northbound, S = southbound.
// Feed timestamps are epoch seconds and are reported in loc, the zone the
// sign's clock runs in, so wall-clock comparison stays consistent.
type GTFSSource struct {
	client   *http.Client
	feed     string
	stopID   string
	location *time.Location
}

// NewGTFSSource creates a source for the parent stop stopID on feedURL
func NewGTFSSource(feedURL, stopID string, loc *time.Location, timeout time.Duration) *GTFSSource {
	if loc == nil {
		loc = time.UTC
	}
	return &GTFSSource{
		client: &http.Client{
			Timeout: timeout,
		},
		feed:     feedURL,
		stopID:   stopID,
		location: loc,
	}
}

// Name identifies the source in logs and errors
func (s *GTFSSource) Name() string {
	return s.feed
}

// Arrivals fetches the feed and splits the stop's updates by direction
func (s *GTFSSource) Arrivals(ctx context.Context) (models.DirectionSnapshot, models.DirectionSnapshot, error) {
	var none models.DirectionSnapshot

	feed, err := s.fetchFeed(ctx)
	if err != nil {
		return none, none, &FetchError{Source: s.feed, Err: err}
	}

	north, south := StationArrivals(feed, s.stopID, s.location)
	return north, south, nil
}

func (s *GTFSSource) fetchFeed(ctx context.Context) (*gtfs.FeedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.feed, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	feed := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, feed); err != nil {
		return nil, fmt.Errorf("parsing protobuf: %w", err)
	}
	return feed, nil
}

// StationArrivals collects the northbound and southbound arrivals for a
// parent stop, earliest first. Past arrivals are kept; the fetcher decides
// what to show.
func StationArrivals(feed *gtfs.FeedMessage, baseStopID string, loc *time.Location) (models.DirectionSnapshot, models.DirectionSnapshot) {
	north := models.DirectionSnapshot{Direction: models.Northbound}
	south := models.DirectionSnapshot{Direction: models.Southbound}

	northID := baseStopID + "N"
	southID := baseStopID + "S"

	for _, entity := range feed.GetEntity() {
		tripUpdate := entity.GetTripUpdate()
		if tripUpdate == nil {
			continue
		}

		for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
			stopID := stopTimeUpdate.GetStopId()
			if stopID != northID && stopID != southID {
				continue
			}

			arrivalTime := stopTimeUpdate.GetArrival().GetTime()
			if arrivalTime == 0 {
				arrivalTime = stopTimeUpdate.GetDeparture().GetTime()
			}
			if arrivalTime == 0 {
				continue
			}

			record := models.ArrivalRecord{Scheduled: time.Unix(arrivalTime, 0).In(loc)}
			if stopID == northID {
				north.Records = append(north.Records, record)
			} else {
				south.Records = append(south.Records, record)
			}
		}
	}

	sortRecords(north.Records)
	sortRecords(south.Records)
	return north, south
}

func sortRecords(records []models.ArrivalRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Scheduled.Before(records[j].Scheduled)
	})
}
