package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"photomap/internal/config"
	"photomap/internal/models"
)

// ErrNoFix is returned by a positioner that has nothing to report.
var ErrNoFix = errors.New("no position fix")

// Denied never grants permission.
type Denied struct{}

func (Denied) RequestPermission(context.Context) (bool, error) { return false, nil }

func (Denied) CurrentPosition(context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, ErrNoFix
}

// Static always grants permission and reports fixed coordinates.
type Static struct {
	Coordinates models.Coordinates
}

func (Static) RequestPermission(context.Context) (bool, error) { return true, nil }

func (s Static) CurrentPosition(context.Context) (models.Coordinates, error) {
	return s.Coordinates, nil
}

// fileState is the YAML document read by File.
type fileState struct {
	Granted   bool     `yaml:"granted"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
}

// File reads permission and position from a YAML document on every call,
// so an external agent can update it while the server runs:
//
//	granted: true
//	latitude: 37.7749
//	longitude: -122.4194
type File struct {
	Path string
}

func (f File) read() (fileState, error) {
	var state fileState
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return state, nil
		}
		return state, err
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return state, nil
}

// RequestPermission reports the file's granted flag. A missing file denies.
func (f File) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	state, err := f.read()
	if err != nil {
		return false, err
	}
	return state.Granted, nil
}

// CurrentPosition reports the file's coordinates. Both must be present.
func (f File) CurrentPosition(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, err
	}
	state, err := f.read()
	if err != nil {
		return models.Coordinates{}, err
	}
	if state.Latitude == nil || state.Longitude == nil {
		return models.Coordinates{}, ErrNoFix
	}
	return models.Coordinates{Latitude: *state.Latitude, Longitude: *state.Longitude}, nil
}

// NewFromConfig builds the resolver selected by cfg.
func NewFromConfig(cfg config.LocationConfig, logger *slog.Logger) (*Resolver, error) {
	if err := config.ValidateLocationTimeout(cfg.Timeout); err != nil {
		return nil, err
	}
	src, err := sourceFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return NewSourceResolver(src, cfg.Timeout, logger), nil
}

func sourceFromConfig(cfg config.LocationConfig) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Source)) {
	case "", config.LocationSourceNone:
		return Denied{}, nil
	case config.LocationSourceStatic:
		if cfg.Latitude == nil || cfg.Longitude == nil {
			return nil, fmt.Errorf("static location requires latitude and longitude")
		}
		coords := models.Coordinates{Latitude: *cfg.Latitude, Longitude: *cfg.Longitude}
		if err := coords.Validate(); err != nil {
			return nil, err
		}
		return Static{Coordinates: coords}, nil
	case config.LocationSourceFile:
		if strings.TrimSpace(cfg.File) == "" {
			return nil, fmt.Errorf("file location requires a path")
		}
		return File{Path: cfg.File}, nil
	default:
		return nil, fmt.Errorf("unknown location source %q", cfg.Source)
	}
}
