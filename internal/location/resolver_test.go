package location

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photomap/internal/config"
	"photomap/internal/models"
)

type fakeSource struct {
	granted  bool
	permErr  error
	coords   models.Coordinates
	posErr   error
	block    chan struct{}
	posCalls int
}

func (f *fakeSource) RequestPermission(context.Context) (bool, error) {
	if f.block != nil {
		<-f.block
	}
	return f.granted, f.permErr
}

func (f *fakeSource) CurrentPosition(context.Context) (models.Coordinates, error) {
	f.posCalls++
	return f.coords, f.posErr
}

func testLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		src      *fakeSource
		want     *models.Coordinates
		wantWarn string
		posCalls int
	}{
		{
			name:     "granted",
			src:      &fakeSource{granted: true, coords: models.Coordinates{Latitude: 37.7749, Longitude: -122.4194}},
			want:     &models.Coordinates{Latitude: 37.7749, Longitude: -122.4194},
			posCalls: 1,
		},
		{
			name:     "denied",
			src:      &fakeSource{granted: false},
			wantWarn: "location permission denied",
		},
		{
			name:     "permission error",
			src:      &fakeSource{permErr: errors.New("prompt crashed")},
			wantWarn: "prompt crashed",
		},
		{
			name:     "position error",
			src:      &fakeSource{granted: true, posErr: errors.New("no satellites")},
			wantWarn: "no satellites",
			posCalls: 1,
		},
		{
			name:     "out of range",
			src:      &fakeSource{granted: true, coords: models.Coordinates{Latitude: 91, Longitude: 0}},
			wantWarn: "out of range",
			posCalls: 1,
		},
		{
			name:     "origin is a real fix",
			src:      &fakeSource{granted: true},
			want:     &models.Coordinates{},
			posCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			r := NewSourceResolver(tt.src, time.Second, testLogger(&logs))

			got := r.Resolve(context.Background())
			switch {
			case tt.want == nil && got != nil:
				t.Fatalf("expected nil location, got %+v", *got)
			case tt.want != nil && got == nil:
				t.Fatalf("expected %+v, got nil", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Fatalf("expected %+v, got %+v", *tt.want, *got)
			}
			if tt.src.posCalls != tt.posCalls {
				t.Fatalf("expected %d position calls, got %d", tt.posCalls, tt.src.posCalls)
			}
			if tt.wantWarn != "" {
				if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), tt.wantWarn) {
					t.Fatalf("expected warning containing %q, got %q", tt.wantWarn, logs.String())
				}
			}
		})
	}
}

func TestResolveTimesOutOnUnresponsiveCapability(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	var logs bytes.Buffer
	r := NewSourceResolver(&fakeSource{granted: true, block: release}, 50*time.Millisecond, testLogger(&logs))

	start := time.Now()
	got := r.Resolve(context.Background())
	elapsed := time.Since(start)

	if got != nil {
		t.Fatalf("expected nil location on timeout, got %+v", *got)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("resolve was not bounded, took %v", elapsed)
	}
	if !strings.Contains(logs.String(), ErrTimeout.Error()) {
		t.Fatalf("expected timeout warning, got %q", logs.String())
	}
}

func TestResolveNilCapabilities(t *testing.T) {
	r := NewResolver(nil, nil, 0, nil)
	if r.Timeout() != DefaultTimeout {
		t.Fatalf("expected default timeout, got %v", r.Timeout())
	}
	if got := r.Resolve(context.Background()); got != nil {
		t.Fatalf("expected nil location, got %+v", *got)
	}

	var nilResolver *Resolver
	if got := nilResolver.Resolve(context.Background()); got != nil {
		t.Fatalf("expected nil location from nil resolver, got %+v", *got)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "location.yaml")
	src := File{Path: path}
	ctx := context.Background()

	granted, err := src.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if granted {
		t.Fatal("missing file must deny")
	}

	if err := os.WriteFile(path, []byte("granted: true\nlatitude: 51.5074\nlongitude: -0.1278\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := NewSourceResolver(src, time.Second, testLogger(&bytes.Buffer{}))
	got := r.Resolve(ctx)
	if got == nil || got.Latitude != 51.5074 || got.Longitude != -0.1278 {
		t.Fatalf("unexpected location %+v", got)
	}

	// Re-read on every call.
	if err := os.WriteFile(path, []byte("granted: true\nlatitude: 51.5074\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got := r.Resolve(ctx); got != nil {
		t.Fatalf("expected nil for half a fix, got %+v", *got)
	}
	if _, err := src.CurrentPosition(ctx); !errors.Is(err, ErrNoFix) {
		t.Fatalf("expected ErrNoFix, got %v", err)
	}

	if err := os.WriteFile(path, []byte("granted: [oops"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if _, err := src.RequestPermission(ctx); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestNewFromConfig(t *testing.T) {
	lat, lon := 35.6762, 139.6503
	badLat := 120.0

	tests := []struct {
		name    string
		cfg     config.LocationConfig
		want    *models.Coordinates
		wantErr bool
	}{
		{name: "default", cfg: config.LocationConfig{}},
		{name: "none", cfg: config.LocationConfig{Source: config.LocationSourceNone}},
		{
			name: "static",
			cfg:  config.LocationConfig{Source: config.LocationSourceStatic, Latitude: &lat, Longitude: &lon},
			want: &models.Coordinates{Latitude: lat, Longitude: lon},
		},
		{name: "static incomplete", cfg: config.LocationConfig{Source: config.LocationSourceStatic, Latitude: &lat}, wantErr: true},
		{name: "static out of range", cfg: config.LocationConfig{Source: config.LocationSourceStatic, Latitude: &badLat, Longitude: &lon}, wantErr: true},
		{name: "file without path", cfg: config.LocationConfig{Source: config.LocationSourceFile}, wantErr: true},
		{name: "unknown", cfg: config.LocationConfig{Source: "gps"}, wantErr: true},
		{name: "timeout beyond client request", cfg: config.LocationConfig{Source: config.LocationSourceNone, Timeout: time.Minute}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFromConfig(tt.cfg, testLogger(&bytes.Buffer{}))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			got := r.Resolve(context.Background())
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("expected %+v, got %+v", *tt.want, got)
			}
		})
	}
}
