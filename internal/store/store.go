package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

const (
	busyTimeoutMS   = 5000
	maxOpenConns    = 1
	maxIdleConns    = 1
	connMaxLifetime = 5 * time.Minute

	busyTimeoutEnvKey     = "PHOTOMAP_DB_BUSY_TIMEOUT_MS"
	connMaxLifetimeEnvKey = "PHOTOMAP_DB_CONN_MAX_LIFETIME"

	lockFileSuffix = ".lock"
)

// Store wraps the SQLite database holding image records.
//
// A Store is created uninitialized by New and becomes usable after the
// first successful Initialize. It holds an exclusive lock file next to the
// database for as long as it is open, so only one process writes at a time.
type Store struct {
	path string

	mu   sync.RWMutex
	db   *sql.DB
	lock *flock.Flock
}

// New returns an uninitialized store for the database at path.
func New(path string) *Store {
	return &Store{path: path}
}

// Open creates a store for path and initializes it.
func Open(path string) (*Store, error) {
	st := New(path)
	if err := st.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return st, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Initialize opens the database and applies pending migrations.
// It is safe to call repeatedly; calls after the first success do nothing.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return unavailable("initialize", err)
	}

	dsn, err := sqliteDSN(s.path)
	if err != nil {
		return unavailable("resolve path", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return unavailable("create db directory", err)
	}

	lock := flock.New(s.path + lockFileSuffix)
	locked, err := lock.TryLock()
	if err != nil {
		return unavailable("acquire lock", err)
	}
	if !locked {
		return unavailable("acquire lock", fmt.Errorf("database %s is in use by another process", s.path))
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = lock.Unlock()
		return unavailable("open database", err)
	}

	configureDB(db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return unavailable("open database", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return unavailable("migrate schema", err)
	}

	s.db = db
	s.lock = lock
	return nil
}

// Initialized reports whether Initialize has completed successfully.
func (s *Store) Initialized() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Close closes the underlying database connection and releases the lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	s.db = nil
	s.lock = nil
	return err
}

func (s *Store) handle() (*sql.DB, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func configureDB(db *sql.DB) {
	// Tune connection pool for local usage.
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(durationFromEnv(connMaxLifetimeEnvKey, connMaxLifetime))
}

func sqliteDSN(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("db path is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	// Pragmas travel in the DSN so every pooled connection gets them.
	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "synchronous(NORMAL)")
	query.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", intFromEnv(busyTimeoutEnvKey, busyTimeoutMS)))

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: query.Encode()}
	return u.String(), nil
}

func intFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func durationFromEnv(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return fallback
		}
		return time.Duration(seconds) * time.Second
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
