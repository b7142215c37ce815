package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"photomap/internal/models"
	"photomap/internal/store"
)

type fakeLister struct {
	mu      sync.Mutex
	records []models.ImageRecord
	err     error
	calls   int
}

func (f *fakeLister) ListImages(context.Context) ([]models.ImageRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.ImageRecord(nil), f.records...), nil
}

func (f *fakeLister) set(records []models.ImageRecord, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
	f.err = err
}

func record(id int64, uri string, loc *models.Coordinates) models.ImageRecord {
	return models.ImageRecord{
		ID:        id,
		URI:       uri,
		Timestamp: time.Date(2024, 5, 1, 10, 0, int(id), 0, time.UTC),
		Location:  loc,
	}
}

func TestRefreshBuildsGalleryAndMarkers(t *testing.T) {
	lister := &fakeLister{records: []models.ImageRecord{
		record(1, "file://a.jpg", &models.Coordinates{Latitude: 37, Longitude: -122}),
		record(2, "file://b.jpg", nil),
		record(3, "file://c.jpg", &models.Coordinates{Latitude: 0, Longitude: 0}),
	}}
	s := New(lister, nil)

	p, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	wantGallery := []string{"file://a.jpg", "file://b.jpg", "file://c.jpg"}
	if len(p.Gallery) != len(wantGallery) {
		t.Fatalf("expected %d gallery items, got %d", len(wantGallery), len(p.Gallery))
	}
	for i, uri := range wantGallery {
		if p.Gallery[i].URI != uri {
			t.Fatalf("gallery[%d]: expected %q, got %q", i, uri, p.Gallery[i].URI)
		}
	}

	if len(p.Markers) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(p.Markers))
	}
	m, ok := p.Marker(1)
	if !ok || m.URI != "file://a.jpg" || m.Latitude != 37 || m.Longitude != -122 {
		t.Fatalf("unexpected marker 1: %+v (found=%v)", m, ok)
	}
	if _, ok := p.Marker(2); ok {
		t.Fatal("untagged record must not have a marker")
	}
	if _, ok := p.Marker(3); !ok {
		t.Fatal("record at the origin must have a marker")
	}
	if p.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", p.Revision)
	}
	if p.RefreshedAt.IsZero() {
		t.Fatal("expected refreshed_at to be set")
	}
}

func TestRefreshReplacesProjection(t *testing.T) {
	lister := &fakeLister{records: []models.ImageRecord{
		record(1, "file://a.jpg", &models.Coordinates{Latitude: 1, Longitude: 1}),
		record(2, "file://b.jpg", &models.Coordinates{Latitude: 2, Longitude: 2}),
	}}
	s := New(lister, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	lister.set([]models.ImageRecord{record(3, "file://c.jpg", nil)}, nil)
	p, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(p.Gallery) != 1 || p.Gallery[0].URI != "file://c.jpg" {
		t.Fatalf("expected gallery to be replaced, got %+v", p.Gallery)
	}
	if len(p.Markers) != 0 {
		t.Fatalf("expected stale markers to be gone, got %+v", p.Markers)
	}
	if p.Revision != 2 {
		t.Fatalf("expected revision 2, got %d", p.Revision)
	}
}

func TestRefreshFailureKeepsLastProjection(t *testing.T) {
	lister := &fakeLister{records: []models.ImageRecord{record(1, "file://a.jpg", nil)}}
	s := New(lister, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	readErr := fmt.Errorf("%w: list images: disk gone", store.ErrReadFailed)
	lister.set(nil, readErr)

	p, err := s.Refresh(context.Background())
	if !errors.Is(err, store.ErrReadFailed) {
		t.Fatalf("expected ErrReadFailed, got %v", err)
	}
	if p.Revision != 1 || len(p.Gallery) != 1 {
		t.Fatalf("expected last projection returned, got %+v", p)
	}
	if cur := s.Current(); cur.Revision != 1 || len(cur.Gallery) != 1 || cur.Gallery[0].URI != "file://a.jpg" {
		t.Fatalf("expected current projection to be kept, got %+v", cur)
	}
}

func TestRefreshEmptyStore(t *testing.T) {
	s := New(&fakeLister{}, nil)
	p, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if p.Gallery == nil || p.Markers == nil {
		t.Fatal("expected empty, non-nil projections")
	}
	if len(p.Gallery) != 0 || len(p.Markers) != 0 {
		t.Fatalf("expected empty projection, got %+v", p)
	}
}

func TestCurrentIsACopy(t *testing.T) {
	lister := &fakeLister{records: []models.ImageRecord{
		record(1, "file://a.jpg", &models.Coordinates{Latitude: 1, Longitude: 1}),
	}}
	s := New(lister, nil)
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	p := s.Current()
	p.Gallery[0].URI = "mutated"
	p.Markers[0].Latitude = 99

	again := s.Current()
	if again.Gallery[0].URI != "file://a.jpg" || again.Markers[0].Latitude != 1 {
		t.Fatalf("caller mutation leaked into synchronizer: %+v", again)
	}
}

func TestSubscribeReceivesRefreshes(t *testing.T) {
	lister := &fakeLister{}
	s := New(lister, nil)
	ch, cancel := s.Subscribe(1)
	defer cancel()

	for i := int64(1); i <= 3; i++ {
		lister.set(append(lister.records, record(i, fmt.Sprintf("file://%d.jpg", i), nil)), nil)
		if _, err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh %d: %v", i, err)
		}
	}

	// Only the newest projection survives for a subscriber that never read.
	select {
	case p := <-ch:
		if p.Revision != 3 || len(p.Gallery) != 3 {
			t.Fatalf("expected newest projection, got revision %d with %d items", p.Revision, len(p.Gallery))
		}
	case <-time.After(time.Second):
		t.Fatal("expected a published projection")
	}
	select {
	case p := <-ch:
		t.Fatalf("expected no further projections, got revision %d", p.Revision)
	default:
	}
}

func TestSubscribeCancelCloses(t *testing.T) {
	s := New(&fakeLister{}, nil)
	ch, cancel := s.Subscribe(0)
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel")
	}
	if _, err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after cancel: %v", err)
	}
}

func TestFailedRefreshDoesNotPublish(t *testing.T) {
	lister := &fakeLister{err: store.ErrReadFailed}
	s := New(lister, nil)
	ch, cancel := s.Subscribe(1)
	defer cancel()

	if _, err := s.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	select {
	case p := <-ch:
		t.Fatalf("unexpected publish of revision %d", p.Revision)
	default:
	}
}

func TestConcurrentRefreshRevisionsIncrease(t *testing.T) {
	lister := &fakeLister{records: []models.ImageRecord{record(1, "file://a.jpg", nil)}}
	s := New(lister, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Refresh(context.Background()); err != nil {
				t.Errorf("refresh: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := s.Current().Revision; got != 10 {
		t.Fatalf("expected revision 10, got %d", got)
	}
}

func TestRefreshAgainstStore(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/images.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	ctx := context.Background()
	now := time.Now()
	for i, loc := range []*models.Coordinates{nil, {Latitude: 10, Longitude: 20}, nil, {Latitude: -5, Longitude: 5}} {
		if _, err := st.InsertImage(ctx, fmt.Sprintf("file://%d.jpg", i), now, loc); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	p, err := New(st, nil).Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(p.Gallery) != 4 {
		t.Fatalf("expected 4 gallery items, got %d", len(p.Gallery))
	}
	if len(p.Markers) != 2 || p.Markers[0].ID != 2 || p.Markers[1].ID != 4 {
		t.Fatalf("unexpected markers %+v", p.Markers)
	}
}
