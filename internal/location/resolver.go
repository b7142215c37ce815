package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"photomap/internal/models"
)

// DefaultTimeout bounds a single Resolve call when none is configured.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is logged when a capability does not answer in time.
var ErrTimeout = errors.New("location lookup timed out")

// PermissionChecker asks the host whether location access is allowed.
type PermissionChecker interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// Positioner reports the device's current position.
type Positioner interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// Source is a capability that can answer both questions.
type Source interface {
	PermissionChecker
	Positioner
}

// Resolver performs best-effort location lookups.
//
// Resolve never fails: a denial, a capability error, invalid coordinates or
// a timeout all produce a nil location and a warning log line.
type Resolver struct {
	permissions PermissionChecker
	positioner  Positioner
	timeout     time.Duration
	logger      *slog.Logger
}

// NewResolver builds a resolver from separate capabilities.
// A nil permissions checker is treated as permanently denied.
func NewResolver(permissions PermissionChecker, positioner Positioner, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		permissions: permissions,
		positioner:  positioner,
		timeout:     timeout,
		logger:      logger.With("component", "location"),
	}
}

// NewSourceResolver builds a resolver backed by one source.
func NewSourceResolver(src Source, timeout time.Duration, logger *slog.Logger) *Resolver {
	if src == nil {
		return NewResolver(nil, nil, timeout, logger)
	}
	return NewResolver(src, src, timeout, logger)
}

// Timeout returns the per-call bound.
func (r *Resolver) Timeout() time.Duration {
	return r.timeout
}

type lookupResult struct {
	coords *models.Coordinates
	err    error
}

// Resolve asks for permission and, when granted, the current position.
// It returns within the configured timeout even if a capability ignores
// its context.
func (r *Resolver) Resolve(ctx context.Context) *models.Coordinates {
	if r == nil || r.permissions == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan lookupResult, 1)
	go func() {
		coords, err := r.lookup(ctx)
		done <- lookupResult{coords: coords, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			r.logger.Warn("location unavailable", "err", res.err)
			return nil
		}
		return res.coords
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
		r.logger.Warn("location unavailable", "err", err, "timeout", r.timeout)
		return nil
	}
}

func (r *Resolver) lookup(ctx context.Context) (*models.Coordinates, error) {
	granted, err := r.permissions.RequestPermission(ctx)
	if err != nil {
		return nil, fmt.Errorf("request permission: %w", err)
	}
	if !granted {
		r.logger.Warn("location permission denied")
		return nil, nil
	}
	if r.positioner == nil {
		return nil, fmt.Errorf("no positioner configured")
	}

	coords, err := r.positioner.CurrentPosition(ctx)
	if err != nil {
		return nil, fmt.Errorf("current position: %w", err)
	}
	if err := coords.Validate(); err != nil {
		return nil, err
	}
	return &coords, nil
}
