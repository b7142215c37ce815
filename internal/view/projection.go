package view

import (
	"sort"
	"time"

	"photomap/internal/models"
)

// GalleryItem is one entry of the gallery list.
type GalleryItem struct {
	URI string `json:"uri"`
}

// Marker is one map pin for a geotagged record.
type Marker struct {
	ID        int64   `json:"id"`
	URI       string  `json:"uri"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Projection is the presentation model derived from the stored records.
// Gallery holds every record's URI and Markers holds the geotagged subset,
// both in ascending id order.
type Projection struct {
	Gallery     []GalleryItem `json:"gallery"`
	Markers     []Marker      `json:"markers"`
	Revision    uint64        `json:"revision"`
	RefreshedAt time.Time     `json:"refreshed_at"`
}

// Build derives a projection from records ordered by id.
func Build(records []models.ImageRecord) Projection {
	p := Projection{
		Gallery: make([]GalleryItem, 0, len(records)),
		Markers: []Marker{},
	}
	for _, rec := range records {
		p.Gallery = append(p.Gallery, GalleryItem{URI: rec.URI})
		if rec.Location == nil {
			continue
		}
		p.Markers = append(p.Markers, Marker{
			ID:        rec.ID,
			URI:       rec.URI,
			Latitude:  rec.Location.Latitude,
			Longitude: rec.Location.Longitude,
		})
	}
	return p
}

// Marker returns the marker for a record id.
func (p Projection) Marker(id int64) (Marker, bool) {
	i := sort.Search(len(p.Markers), func(i int) bool { return p.Markers[i].ID >= id })
	if i < len(p.Markers) && p.Markers[i].ID == id {
		return p.Markers[i], true
	}
	return Marker{}, false
}

// Clone returns a copy that shares no slices with p.
func (p Projection) Clone() Projection {
	out := p
	out.Gallery = append(make([]GalleryItem, 0, len(p.Gallery)), p.Gallery...)
	out.Markers = append(make([]Marker, 0, len(p.Markers)), p.Markers...)
	return out
}
