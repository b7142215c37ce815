package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"photomap/internal/models"
	"photomap/internal/view"
)

// ErrInvalidURI is returned before any I/O when the URI is empty.
var ErrInvalidURI = errors.New("invalid uri")

// State is a step of one ingestion cycle.
type State int

const (
	StateIdle State = iota
	StateResolvingLocation
	StatePersisting
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingLocation:
		return "resolving_location"
	case StatePersisting:
		return "persisting"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Transition is reported to an Observer whenever a cycle changes state.
type Transition struct {
	CycleID string
	From    State
	To      State
}

// Observer receives state transitions. It is called synchronously.
type Observer func(Transition)

// Inserter persists one record and returns its id.
type Inserter interface {
	InsertImage(ctx context.Context, uri string, timestamp time.Time, location *models.Coordinates) (int64, error)
}

// LocationResolver returns the current position or nil.
type LocationResolver interface {
	Resolve(ctx context.Context) *models.Coordinates
}

// Refresher rebuilds the presentation model after a write.
type Refresher interface {
	Refresh(ctx context.Context) (view.Projection, error)
}

// RefreshError reports a record that was saved but whose view refresh
// failed. The record stays saved.
type RefreshError struct {
	ID  int64
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("image %d saved but view refresh failed: %v", e.ID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithObserver reports state transitions to fn.
func WithObserver(fn Observer) Option {
	return func(p *Pipeline) {
		p.observer = fn
	}
}

// WithClock replaces the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs capture → locate → persist → refresh for each new image.
// It holds no lock across cycles; the store assigns ids.
type Pipeline struct {
	records   Inserter
	resolver  LocationResolver
	refresher Refresher
	observer  Observer
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a pipeline. resolver and refresher may be nil, in which case
// records carry no location and no refresh runs.
func New(records Inserter, resolver LocationResolver, refresher Refresher, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{
		records:   records,
		resolver:  resolver,
		refresher: refresher,
		now:       time.Now,
		logger:    logger.With("component", "ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest records one image reference.
//
// A failed insert returns an error matching store.ErrWriteFailed and
// nothing is stored. A failed refresh after a successful insert returns
// the saved record together with a *RefreshError.
func (p *Pipeline) Ingest(ctx context.Context, rawURI string) (models.ImageRecord, error) {
	uri, err := models.NormalizeURI(rawURI)
	if err != nil {
		return models.ImageRecord{}, fmt.Errorf("%w: %w", ErrInvalidURI, err)
	}

	cycle := uuid.NewString()
	logger := p.logger.With("cycle", cycle)
	timestamp := p.now().UTC().Truncate(time.Millisecond)

	p.transition(cycle, StateIdle, StateResolvingLocation)
	var location *models.Coordinates
	if p.resolver != nil {
		location = p.resolver.Resolve(ctx)
	}

	p.transition(cycle, StateResolvingLocation, StatePersisting)
	id, err := p.records.InsertImage(ctx, uri, timestamp, location)
	if err != nil {
		p.transition(cycle, StatePersisting, StateIdle)
		logger.Error("persist image failed", "uri", uri, "err", err)
		return models.ImageRecord{}, fmt.Errorf("persist image: %w", err)
	}

	record := models.ImageRecord{ID: id, URI: uri, Timestamp: timestamp, Location: location}
	logger.Info("image ingested", "id", id, "uri", uri, "geotagged", record.Geotagged())

	if p.refresher == nil {
		p.transition(cycle, StatePersisting, StateIdle)
		return record, nil
	}

	p.transition(cycle, StatePersisting, StateRefreshing)
	_, refreshErr := p.refresher.Refresh(ctx)
	p.transition(cycle, StateRefreshing, StateIdle)
	if refreshErr != nil {
		logger.Warn("view refresh failed after ingest", "id", id, "err", refreshErr)
		return record, &RefreshError{ID: id, Err: refreshErr}
	}
	return record, nil
}

func (p *Pipeline) transition(cycle string, from, to State) {
	p.logger.Debug("ingest state", "cycle", cycle, "from", from.String(), "to", to.String())
	if p.observer != nil {
		p.observer(Transition{CycleID: cycle, From: from, To: to})
	}
}
