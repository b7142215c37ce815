package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"photomap/internal/api"
	"photomap/internal/view"
)

const (
	streamWriteWait   = 10 * time.Second
	streamPongWait    = 60 * time.Second
	streamPingPeriod  = (streamPongWait * 9) / 10
	streamReadLimit   = 512
	streamSubBuffered = 1
)

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	p := s.views.Current()
	s.writeJSON(w, http.StatusOK, api.GalleryResponse{Revision: p.Revision, Gallery: p.Gallery})
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	p := s.views.Current()
	s.writeJSON(w, http.StatusOK, api.MarkersResponse{Revision: p.Revision, Markers: p.Markers})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	p, err := s.views.Refresh(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRefreshResponse(p))
}

// handleStream sends the current projection, then every newer one, until
// the client goes away or the server shuts down.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.acquireLimiter(s.streamLimiter, w, r, "stream") {
		return
	}
	defer s.releaseLimiter(s.streamLimiter)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already replied.
		s.requestLogger(r).Debug("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	defer conn.Close()

	updates, cancel := s.views.Subscribe(streamSubBuffered)
	defer cancel()

	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	// Clients only send control frames; reading drives pong handling and
	// notices disconnects.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	current := s.views.Current()
	if err := writeProjection(conn, current); err != nil {
		return
	}
	lastRevision := current.Revision

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait))
			return
		case p, ok := <-updates:
			if !ok {
				return
			}
			if p.Revision <= lastRevision {
				continue
			}
			if err := writeProjection(conn, p); err != nil {
				s.requestLogger(r).Debug("stream write failed", "error", err, "remote_addr", r.RemoteAddr)
				return
			}
			lastRevision = p.Revision
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeProjection(conn *websocket.Conn, p view.Projection) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(toProjectionEvent(p))
}
