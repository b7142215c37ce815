package api

import "photomap/internal/view"

// ImageCreateRequest is the payload for POST /v1/images.
type ImageCreateRequest struct {
	URI string `json:"uri"`
}

// ImageResponse is the wire form of a stored image record.
// Latitude and Longitude are both null or both set.
type ImageResponse struct {
	ID        int64    `json:"id"`
	URI       string   `json:"uri"`
	Timestamp string   `json:"timestamp"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	// ViewStale is set when the record was saved but the view refresh failed.
	ViewStale bool `json:"view_stale,omitempty"`
}

// GalleryResponse lists every image URI in ingestion order.
type GalleryResponse struct {
	Revision uint64             `json:"revision"`
	Gallery  []view.GalleryItem `json:"gallery"`
}

// MarkersResponse lists the geotagged images.
type MarkersResponse struct {
	Revision uint64        `json:"revision"`
	Markers  []view.Marker `json:"markers"`
}

// RefreshResponse summarizes a forced refresh.
type RefreshResponse struct {
	Revision     uint64 `json:"revision"`
	GalleryCount int    `json:"gallery_count"`
	MarkerCount  int    `json:"marker_count"`
	RefreshedAt  string `json:"refreshed_at"`
}

// ProjectionEvent is one message on the /v1/stream websocket.
type ProjectionEvent struct {
	Revision    uint64             `json:"revision"`
	RefreshedAt string             `json:"refreshed_at"`
	Gallery     []view.GalleryItem `json:"gallery"`
	Markers     []view.Marker      `json:"markers"`
}

// InfoResponse describes the running server's store and view.
type InfoResponse struct {
	DBPath             string `json:"db_path"`
	SchemaVersion      int    `json:"schema_version"`
	TotalImages        int    `json:"total_images"`
	GeotaggedImages    int    `json:"geotagged_images"`
	ProjectionRevision uint64 `json:"projection_revision"`
	LocationSource     string `json:"location_source,omitempty"`
}

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}
