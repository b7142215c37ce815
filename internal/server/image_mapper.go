package server

import (
	"time"

	"photomap/internal/api"
	"photomap/internal/models"
	"photomap/internal/view"
)

func toImageResponse(record models.ImageRecord) api.ImageResponse {
	resp := api.ImageResponse{
		ID:        record.ID,
		URI:       record.URI,
		Timestamp: models.FormatTimestamp(record.Timestamp),
	}
	if record.Location != nil {
		lat, lon := record.Location.Latitude, record.Location.Longitude
		resp.Latitude = &lat
		resp.Longitude = &lon
	}
	return resp
}

func toImageResponses(records []models.ImageRecord) []api.ImageResponse {
	out := make([]api.ImageResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toImageResponse(record))
	}
	return out
}

func formatRefreshedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return models.FormatTimestamp(t)
}

func toProjectionEvent(p view.Projection) api.ProjectionEvent {
	return api.ProjectionEvent{
		Revision:    p.Revision,
		RefreshedAt: formatRefreshedAt(p.RefreshedAt),
		Gallery:     p.Gallery,
		Markers:     p.Markers,
	}
}

func toRefreshResponse(p view.Projection) api.RefreshResponse {
	return api.RefreshResponse{
		Revision:     p.Revision,
		GalleryCount: len(p.Gallery),
		MarkerCount:  len(p.Markers),
		RefreshedAt:  formatRefreshedAt(p.RefreshedAt),
	}
}
