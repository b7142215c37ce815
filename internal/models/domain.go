package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	// TimestampLayout is the ISO-8601 shape used for persisted capture times.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Validate checks that both coordinates are finite and in range.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return fmt.Errorf("latitude must be a finite number")
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return fmt.Errorf("longitude must be a finite number")
	}
	if c.Latitude < LatitudeMin || c.Latitude > LatitudeMax {
		return fmt.Errorf("latitude %v out of range [%v, %v]", c.Latitude, LatitudeMin, LatitudeMax)
	}
	if c.Longitude < LongitudeMin || c.Longitude > LongitudeMax {
		return fmt.Errorf("longitude %v out of range [%v, %v]", c.Longitude, LongitudeMin, LongitudeMax)
	}
	return nil
}

// NormalizeURI trims surrounding whitespace and rejects empty references.
func NormalizeURI(raw string) (string, error) {
	uri := strings.TrimSpace(raw)
	if uri == "" {
		return "", fmt.Errorf("uri is required")
	}
	return uri, nil
}

// FormatTimestamp renders t as UTC ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a persisted capture time.
func ParseTimestamp(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", raw, err)
	}
	return t.UTC(), nil
}
