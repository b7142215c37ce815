package store

import (
	"context"
	"time"

	"photomap/internal/models"
)

// ImageStore abstracts image record storage backends.
type ImageStore interface {
	Initialize(ctx context.Context) error
	InsertImage(ctx context.Context, uri string, timestamp time.Time, location *models.Coordinates) (int64, error)
	ListImages(ctx context.Context) ([]models.ImageRecord, error)
	GetImage(ctx context.Context, id int64) (*models.ImageRecord, error)
	StoreInfo(ctx context.Context) (StoreInfo, error)
	Close() error
}

var _ ImageStore = (*Store)(nil)
