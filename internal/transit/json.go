package transit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/randytsao24/trainsign/internal/models"
)

// directionKey is the sub-key read from both payload elements
const directionKey = "N"

// JSONSource reads the stop's arrivals from a JSON API keyed by stop ID.
// The payload is an array of at least two station objects (optionally
// wrapped in {"data": [...]}). Northbound arrivals come from element 0 and
// southbound from element 1, both under the "N" key.
type JSONSource struct {
	client *http.Client
	url    string
}

// NewJSONSource creates a source for url. A zero timeout leaves the
// request unbounded.
func NewJSONSource(url string, timeout time.Duration) *JSONSource {
	return &JSONSource{
		client: &http.Client{
			Timeout: timeout,
		},
		url: url,
	}
}

// Name identifies the source in logs and errors
func (s *JSONSource) Name() string {
	return s.url
}

type jsonArrival struct {
	Time string `json:"time"`
}

type jsonStation map[string]json.RawMessage

// Arrivals fetches the payload and extracts both direction snapshots
func (s *JSONSource) Arrivals(ctx context.Context) (models.DirectionSnapshot, models.DirectionSnapshot, error) {
	var none models.DirectionSnapshot

	body, err := s.fetch(ctx)
	if err != nil {
		return none, none, &FetchError{Source: s.url, Err: err}
	}

	north, south, err := ParseStopPayload(body)
	if err != nil {
		return none, none, &FetchError{Source: s.url, Err: err}
	}
	return north, south, nil
}

func (s *JSONSource) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting stop: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stop endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

// ParseStopPayload extracts the northbound list from element 0 and the
// southbound list from element 1 of the payload.
func ParseStopPayload(body []byte) (models.DirectionSnapshot, models.DirectionSnapshot, error) {
	north := models.DirectionSnapshot{Direction: models.Northbound}
	south := models.DirectionSnapshot{Direction: models.Southbound}

	stations, err := decodeStations(body)
	if err != nil {
		return north, south, err
	}
	if len(stations) < 2 {
		return north, south, fmt.Errorf("payload has %d stop records, need 2", len(stations))
	}

	if north.Records, err = stationRecords(stations[0], 0); err != nil {
		return north, south, err
	}
	if south.Records, err = stationRecords(stations[1], 1); err != nil {
		return north, south, err
	}
	return north, south, nil
}

func decodeStations(body []byte) ([]jsonStation, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty payload")
	}

	if trimmed[0] == '{' {
		var wrapper struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("parsing payload: %w", err)
		}
		if len(wrapper.Data) == 0 {
			return nil, errors.New("payload object has no data key")
		}
		trimmed = wrapper.Data
	}

	var stations []jsonStation
	if err := json.Unmarshal(trimmed, &stations); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return stations, nil
}

func stationRecords(station jsonStation, index int) ([]models.ArrivalRecord, error) {
	raw, ok := station[directionKey]
	if !ok {
		return nil, fmt.Errorf("stop record %d has no %q key", index, directionKey)
	}

	var arrivals []jsonArrival
	if err := json.Unmarshal(raw, &arrivals); err != nil {
		return nil, fmt.Errorf("parsing stop record %d: %w", index, err)
	}
	if arrivals == nil {
		return nil, fmt.Errorf("stop record %d has a null %q list", index, directionKey)
	}

	records := make([]models.ArrivalRecord, 0, len(arrivals))
	for i, a := range arrivals {
		scheduled, err := time.Parse(time.RFC3339, a.Time)
		if err != nil {
			return nil, fmt.Errorf("stop record %d arrival %d: %w", index, i, err)
		}
		records = append(records, models.ArrivalRecord{Scheduled: scheduled})
	}
	return records, nil
}
