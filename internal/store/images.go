package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"photomap/internal/models"
)

const imageColumns = "id, uri, timestamp, latitude, longitude"

// StoreInfo summarizes the database for diagnostics.
type StoreInfo struct {
	Path            string `json:"path"`
	SchemaVersion   int    `json:"schema_version"`
	TotalImages     int    `json:"total_images"`
	GeotaggedImages int    `json:"geotagged_images"`
}

// InsertImage appends one record and returns its store-assigned id.
// The row is durable and visible to reads issued after this returns.
// A nil location stores both coordinates as NULL.
func (s *Store) InsertImage(ctx context.Context, uri string, timestamp time.Time, location *models.Coordinates) (int64, error) {
	db, err := s.handle()
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(uri) == "" {
		return 0, writeFailed("insert image", fmt.Errorf("uri is required"))
	}
	if timestamp.IsZero() {
		return 0, writeFailed("insert image", fmt.Errorf("timestamp is required"))
	}

	var latitude, longitude sql.NullFloat64
	if location != nil {
		if err := location.Validate(); err != nil {
			return 0, writeFailed("insert image", err)
		}
		latitude = sql.NullFloat64{Float64: location.Latitude, Valid: true}
		longitude = sql.NullFloat64{Float64: location.Longitude, Valid: true}
	}

	var id int64
	err = retryOnBusy(ctx, func() error {
		res, execErr := db.ExecContext(ctx,
			"INSERT INTO images (uri, timestamp, latitude, longitude) VALUES (?, ?, ?, ?)",
			uri, models.FormatTimestamp(timestamp), latitude, longitude,
		)
		if execErr != nil {
			return execErr
		}
		id, execErr = res.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, writeFailed("insert image", err)
	}
	return id, nil
}

// ListImages returns every record in ascending id order.
// An empty table yields an empty slice and no error.
func (s *Store) ListImages(ctx context.Context) ([]models.ImageRecord, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var records []models.ImageRecord
	err = retryOnBusy(ctx, func() error {
		var queryErr error
		records, queryErr = queryImages(ctx, db)
		return queryErr
	})
	if err != nil {
		return nil, readFailed("list images", err)
	}
	return records, nil
}

// GetImage returns one record by id, or nil when it does not exist.
func (s *Store) GetImage(ctx context.Context, id int64) (*models.ImageRecord, error) {
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowContext(ctx, `SELECT `+imageColumns+` FROM images WHERE id = ?`, id)
	record, err := scanImage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, readFailed("get image", err)
	}
	return &record, nil
}

// StoreInfo reports schema version and record counts.
func (s *Store) StoreInfo(ctx context.Context) (StoreInfo, error) {
	info := StoreInfo{Path: s.path}
	db, err := s.handle()
	if err != nil {
		return info, err
	}

	if info.SchemaVersion, err = currentVersion(ctx, db); err != nil {
		return info, readFailed("schema version", err)
	}
	err = db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(latitude) FROM images",
	).Scan(&info.TotalImages, &info.GeotaggedImages)
	if err != nil {
		return info, readFailed("count images", err)
	}
	return info, nil
}

func queryImages(ctx context.Context, db *sql.DB) ([]models.ImageRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+imageColumns+` FROM images ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []models.ImageRecord{}
	for rows.Next() {
		record, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImage(row rowScanner) (models.ImageRecord, error) {
	var (
		record    models.ImageRecord
		timestamp string
		latitude  sql.NullFloat64
		longitude sql.NullFloat64
	)
	if err := row.Scan(&record.ID, &record.URI, &timestamp, &latitude, &longitude); err != nil {
		return models.ImageRecord{}, err
	}

	parsed, err := models.ParseTimestamp(timestamp)
	if err != nil {
		return models.ImageRecord{}, fmt.Errorf("image %d: %w", record.ID, err)
	}
	record.Timestamp = parsed

	switch {
	case latitude.Valid && longitude.Valid:
		record.Location = &models.Coordinates{Latitude: latitude.Float64, Longitude: longitude.Float64}
	case latitude.Valid != longitude.Valid:
		return models.ImageRecord{}, fmt.Errorf("image %d: half-tagged location", record.ID)
	}
	return record, nil
}
