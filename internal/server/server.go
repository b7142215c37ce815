package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"photomap/internal/models"
	"photomap/internal/store"
	"photomap/internal/view"
)

const (
	allowRemoteEnvKey      = "PHOTOMAP_ALLOW_REMOTE"
	readHeaderTimeout      = 5 * time.Second
	readTimeout            = 30 * time.Second
	writeTimeout           = 60 * time.Second
	idleTimeout            = 60 * time.Second
	shutdownTimeout        = 5 * time.Second
	ingestConcurrencyLimit = 8
	streamConcurrencyLimit = 16
)

// Ingester runs one ingestion cycle for an image reference.
type Ingester interface {
	Ingest(ctx context.Context, uri string) (models.ImageRecord, error)
}

// Server wraps HTTP handlers for the photomap API.
type Server struct {
	addr           string
	store          store.ImageStore
	pipeline       Ingester
	views          *view.Synchronizer
	locationSource string
	logger         *slog.Logger
	upgrader       websocket.Upgrader
	ingestLimiter  chan struct{}
	streamLimiter  chan struct{}

	closing     chan struct{}
	closingOnce sync.Once
}

// New creates a new server instance.
func New(addr string, imageStore store.ImageStore, pipeline Ingester, views *view.Synchronizer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		addr:     addr,
		store:    imageStore,
		pipeline: pipeline,
		views:    views,
		logger:   logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: readHeaderTimeout,
			CheckOrigin:      sameHostOrigin,
		},
		ingestLimiter: make(chan struct{}, ingestConcurrencyLimit),
		streamLimiter: make(chan struct{}, streamConcurrencyLimit),
		closing:       make(chan struct{}),
	}
}

// SetLocationSource records the configured location source for /v1/info.
func (s *Server) SetLocationSource(source string) {
	s.locationSource = source
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe starts the HTTP server and stops it when ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	// Hijacked stream connections are not tracked by Shutdown.
	server.RegisterOnShutdown(s.closeStreams)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.log().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// ListenAddr converts a base API URL into a listen address.
func ListenAddr(apiURL string) (string, error) {
	if apiURL == "" {
		return "", fmt.Errorf("api url is required")
	}
	if u, err := url.Parse(apiURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(apiURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return apiURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// sameHostOrigin accepts non-browser clients and same-host browser pages.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func (s *Server) acquireLimiter(limiter chan struct{}, w http.ResponseWriter, r *http.Request, name string) bool {
	if limiter == nil {
		return true
	}
	select {
	case limiter <- struct{}{}:
		return true
	default:
		err := apiError{
			status:  http.StatusTooManyRequests,
			code:    "resource_exhausted",
			errCode: ErrCodeResourceExhausted,
			err:     fmt.Errorf("too many concurrent %s requests", name),
		}
		s.writeErrorReq(w, r, http.StatusTooManyRequests, err)
		return false
	}
}

func (s *Server) closeStreams() {
	s.closingOnce.Do(func() {
		close(s.closing)
	})
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}

func (s *Server) releaseLimiter(limiter chan struct{}) {
	if limiter == nil {
		return
	}
	select {
	case <-limiter:
	default:
	}
}
