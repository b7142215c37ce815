package server

import (
	"net/http"

	"photomap/internal/api"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StoreInfo(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := api.InfoResponse{
		DBPath:             info.Path,
		SchemaVersion:      info.SchemaVersion,
		TotalImages:        info.TotalImages,
		GeotaggedImages:    info.GeotaggedImages,
		ProjectionRevision: s.views.Current().Revision,
		LocationSource:     s.locationSource,
	}

	s.writeJSON(w, http.StatusOK, resp)
}
