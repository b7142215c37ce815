package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Health check and info.
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /v1/info", s.handleInfo)

	// Image records.
	mux.HandleFunc("POST /v1/images", s.handleCreateImage)
	mux.HandleFunc("GET /v1/images", s.handleListImages)
	mux.HandleFunc("GET /v1/images/{id}", s.handleGetImage)

	// Presentation model.
	mux.HandleFunc("GET /v1/gallery", s.handleGallery)
	mux.HandleFunc("GET /v1/markers", s.handleMarkers)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/stream", s.handleStream)

	return mux
}
