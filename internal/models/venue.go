package models

import "time"

// Venue is immutable reference data for a physical location. The ingestion
// pipeline reads venues (name, coordinates) but never mutates them.
type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}

// HasCoordinates reports whether the venue can be placed on a map. Venues
// seeded without geocoding have both set to zero.
func (v Venue) HasCoordinates() bool {
	return v.Lat != 0 || v.Lng != 0
}
