// Package models defines shared data types
package models

import (
	"fmt"
	"time"
)

// Placeholder is shown in a slot when no qualifying arrival exists
const Placeholder = "-"

// Direction is one of the two travel directions at the stop
type Direction string

const (
	Northbound Direction = "northbound"
	Southbound Direction = "southbound"
)

// ArrivalRecord is a single scheduled train departure
type ArrivalRecord struct {
	Scheduled time.Time `json:"scheduled"`
}

// DirectionSnapshot holds the arrivals for one direction at one fetch,
// earliest first
type DirectionSnapshot struct {
	Direction Direction       `json:"direction"`
	Records   []ArrivalRecord `json:"records"`
}

// Times holds the minute strings for the four display slots
type Times struct {
	NorthPrimary   string `json:"north_primary"`
	NorthSecondary string `json:"north_secondary"`
	SouthPrimary   string `json:"south_primary"`
	SouthSecondary string `json:"south_secondary"`
}

// Lines formats the two panel lines, e.g. "4,11 m"
func (t Times) Lines() (north, south string) {
	north = fmt.Sprintf("%s,%s m", t.NorthPrimary, t.NorthSecondary)
	south = fmt.Sprintf("%s,%s m", t.SouthPrimary, t.SouthSecondary)
	return north, south
}

// Board is the text currently shown on the panel
type Board struct {
	Line1Label string    `json:"line1_label"`
	Line1Times string    `json:"line1_times"`
	Line2Label string    `json:"line2_label"`
	Line2Times string    `json:"line2_times"`
	Times      Times     `json:"times"`
	RenderedAt time.Time `json:"rendered_at"`
}
