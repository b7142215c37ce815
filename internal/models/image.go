package models

import "time"

// ImageRecord is the persisted metadata for one ingested image.
// The image bytes live elsewhere; URI only references them.
type ImageRecord struct {
	ID        int64        `json:"id"`
	URI       string       `json:"uri"`
	Timestamp time.Time    `json:"timestamp"`
	Location  *Coordinates `json:"location,omitempty"`
}

// Geotagged reports whether the record carries both coordinates.
func (r ImageRecord) Geotagged() bool {
	return r.Location != nil
}

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}
