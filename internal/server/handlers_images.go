package server

import (
	"errors"
	"fmt"
	"net/http"

	"photomap/internal/api"
	"photomap/internal/ingest"
)

func (s *Server) handleCreateImage(w http.ResponseWriter, r *http.Request) {
	var req api.ImageCreateRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	s.withLimiter(w, r, s.ingestLimiter, "ingest", func() {
		record, err := s.pipeline.Ingest(r.Context(), req.URI)
		var refreshErr *ingest.RefreshError
		switch {
		case errors.As(err, &refreshErr):
			// Saved; only the view is behind.
			resp := toImageResponse(record)
			resp.ViewStale = true
			s.writeJSON(w, http.StatusCreated, resp)
		case err != nil:
			s.writeServiceError(w, r, err)
		default:
			s.writeJSON(w, http.StatusCreated, toImageResponse(record))
		}
	})
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListImages(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toImageResponses(records))
}

func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathIDOrBadRequest(w, r)
	if !ok {
		return
	}

	record, err := s.store.GetImage(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if record == nil {
		s.writeErrorReq(w, r, http.StatusNotFound, notFound(fmt.Errorf("image %d not found", id)))
		return
	}
	s.writeJSON(w, http.StatusOK, toImageResponse(*record))
}
