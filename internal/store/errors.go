package store

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable means the database could not be opened or its
	// schema could not be created. There is no degraded mode without storage.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrNotInitialized is returned when reads or writes are issued before
	// a successful Initialize.
	ErrNotInitialized = errors.New("store not initialized")
	// ErrWriteFailed means an insert did not persist. No partial row exists.
	ErrWriteFailed = errors.New("write failed")
	// ErrReadFailed means records could not be read back.
	ErrReadFailed = errors.New("read failed")
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}

func writeFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrWriteFailed, op, err)
}

func readFailed(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrReadFailed, op, err)
}
