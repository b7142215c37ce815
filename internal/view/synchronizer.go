package view

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"photomap/internal/models"
)

// Lister reads every stored record in ascending id order.
type Lister interface {
	ListImages(ctx context.Context) ([]models.ImageRecord, error)
}

// Synchronizer keeps a projection in step with the store.
//
// Refresh rebuilds the whole projection from a fresh listing and swaps it
// in at once. When the listing fails the last good projection stays.
type Synchronizer struct {
	lister Lister
	logger *slog.Logger
	now    func() time.Time

	refreshMu sync.Mutex

	mu      sync.RWMutex
	current Projection
	subs    map[int]chan Projection
	nextSub int
}

// New creates a synchronizer with an empty projection.
func New(lister Lister, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		lister:  lister,
		logger:  logger.With("component", "view"),
		now:     time.Now,
		current: Build(nil),
		subs:    make(map[int]chan Projection),
	}
}

// Refresh re-reads the store and replaces the projection.
// Calls are serialized so an older listing never overwrites a newer one.
func (s *Synchronizer) Refresh(ctx context.Context) (Projection, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	records, err := s.lister.ListImages(ctx)
	if err != nil {
		s.logger.Warn("refresh failed; keeping last projection", "err", err)
		return s.Current(), err
	}

	next := Build(records)
	next.RefreshedAt = s.now().UTC()

	s.mu.Lock()
	next.Revision = s.current.Revision + 1
	s.current = next
	for _, ch := range s.subs {
		publish(ch, next.Clone())
	}
	s.mu.Unlock()

	s.logger.Debug("projection refreshed",
		"revision", next.Revision,
		"gallery", len(next.Gallery),
		"markers", len(next.Markers),
	)
	return next.Clone(), nil
}

// Current returns a copy of the last good projection.
func (s *Synchronizer) Current() Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers for projections published by later refreshes.
// A subscriber that falls behind only keeps the newest projection.
// The returned cancel func unregisters and closes the channel.
func (s *Synchronizer) Subscribe(buffer int) (<-chan Projection, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Projection, buffer)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish delivers p without blocking, evicting the oldest pending
// projections when the channel is full. Callers hold s.mu.
func publish(ch chan Projection, p Projection) {
	for {
		select {
		case ch <- p:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
