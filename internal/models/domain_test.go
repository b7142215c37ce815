package models

import (
	"math"
	"testing"
	"time"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		coords  Coordinates
		wantErr bool
	}{
		{name: "origin", coords: Coordinates{}},
		{name: "san francisco", coords: Coordinates{Latitude: 37.0, Longitude: -122.0}},
		{name: "poles and antimeridian", coords: Coordinates{Latitude: 90, Longitude: -180}},
		{name: "latitude too large", coords: Coordinates{Latitude: 90.5, Longitude: 0}, wantErr: true},
		{name: "longitude too small", coords: Coordinates{Latitude: 0, Longitude: -180.1}, wantErr: true},
		{name: "nan latitude", coords: Coordinates{Latitude: math.NaN(), Longitude: 0}, wantErr: true},
		{name: "inf longitude", coords: Coordinates{Latitude: 0, Longitude: math.Inf(1)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coords.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNormalizeURI(t *testing.T) {
	got, err := NormalizeURI("  file://a.jpg ")
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got != "file://a.jpg" {
		t.Fatalf("expected trimmed uri, got %q", got)
	}

	if _, err := NormalizeURI(" \t"); err == nil {
		t.Fatal("expected error for blank uri")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.FixedZone("PST", -8*3600))

	raw := FormatTimestamp(ts)
	if raw != "2024-03-09T22:05:07.123Z" {
		t.Fatalf("unexpected formatted timestamp %q", raw)
	}

	parsed, err := ParseTimestamp(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(ts.Truncate(time.Millisecond)) {
		t.Fatalf("expected %v, got %v", ts.Truncate(time.Millisecond), parsed)
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestImageRecordGeotagged(t *testing.T) {
	if (ImageRecord{ID: 1, URI: "file://a.jpg"}).Geotagged() {
		t.Fatal("record without location should not be geotagged")
	}
	rec := ImageRecord{ID: 2, URI: "file://b.jpg", Location: &Coordinates{Latitude: 1, Longitude: 2}}
	if !rec.Geotagged() {
		t.Fatal("record with location should be geotagged")
	}
}
