package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Migration represents a schema migration step.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// MigrationStatus reports the current and available migration versions.
type MigrationStatus struct {
	CurrentVersion   int             `json:"current_version"`
	AvailableVersion int             `json:"available_version"`
	Pending          []MigrationInfo `json:"pending"`
}

// MigrationInfo describes a single migration.
type MigrationInfo struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// migrations is the ordered list of all schema migrations.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema: images table",
		SQL: `
CREATE TABLE IF NOT EXISTS images (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uri TEXT NOT NULL,
  timestamp TEXT NOT NULL,
  latitude REAL,
  longitude REAL
);
`,
	},
	{
		Version:     2,
		Description: "enforce paired coordinates and index geotagged rows",
		SQL: `
CREATE TABLE images_v2 (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  uri TEXT NOT NULL,
  timestamp TEXT NOT NULL,
  latitude REAL,
  longitude REAL,
  CHECK ((latitude IS NULL) = (longitude IS NULL))
);

INSERT INTO images_v2 (id, uri, timestamp, latitude, longitude)
  SELECT id, uri, timestamp,
    CASE WHEN latitude IS NULL OR longitude IS NULL THEN NULL ELSE latitude END,
    CASE WHEN latitude IS NULL OR longitude IS NULL THEN NULL ELSE longitude END
  FROM images
  ORDER BY id;

-- Keep the old high-water mark so ids of deleted rows are never reissued.
INSERT INTO sqlite_sequence (name, seq)
  SELECT 'images_v2', 0
  WHERE NOT EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = 'images_v2')
    AND EXISTS (SELECT 1 FROM sqlite_sequence WHERE name = 'images');
UPDATE sqlite_sequence
  SET seq = (SELECT MAX(seq) FROM sqlite_sequence WHERE name IN ('images', 'images_v2'))
  WHERE name = 'images_v2';

DROP TABLE images;
ALTER TABLE images_v2 RENAME TO images;

CREATE INDEX IF NOT EXISTS idx_images_geotagged ON images(id) WHERE latitude IS NOT NULL;
`,
	},
}

const migrationsTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TEXT NOT NULL
);
`

func orderedMigrations() []Migration {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	return sorted
}

// currentVersion returns the highest applied migration version, or 0 if none.
func currentVersion(ctx context.Context, q querier) (int, error) {
	var version int
	err := q.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// detectLegacyDB reports whether the images table exists without any
// recorded migration. Such files come from clients that only ever ran the
// bare CREATE TABLE, which matches migration 1.
func detectLegacyDB(ctx context.Context, db *sql.DB) (bool, error) {
	images, err := tableExists(ctx, db, "images")
	if err != nil || !images {
		return false, err
	}
	tracked, err := tableExists(ctx, db, "schema_migrations")
	if err != nil {
		return false, err
	}
	if !tracked {
		return true, nil
	}
	version, err := currentVersion(ctx, db)
	if err != nil {
		return false, err
	}
	return version == 0, nil
}

// runMigrations applies all pending migrations in order, one transaction each.
func runMigrations(ctx context.Context, db *sql.DB) error {
	// Must run before the migrations table exists.
	legacy, err := detectLegacyDB(ctx, db)
	if err != nil {
		return fmt.Errorf("detect legacy db: %w", err)
	}

	if _, err := db.ExecContext(ctx, migrationsTableSQL); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}
	if legacy {
		if _, err := db.ExecContext(ctx, "INSERT OR IGNORE INTO schema_migrations (version, applied_at) VALUES (1, datetime('now'))"); err != nil {
			return fmt.Errorf("stamp legacy db: %w", err)
		}
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("get current version: %w", err)
	}

	for _, m := range orderedMigrations() {
		if m.Version <= current {
			continue
		}
		if err := applyMigration(ctx, db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(ctx context.Context, db *sql.DB, m Migration) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Version, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
	}
	if _, err = tx.ExecContext(ctx, "INSERT INTO schema_migrations (version, applied_at) VALUES (?, datetime('now'))", m.Version); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Version, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %d: %w", m.Version, err)
	}
	return nil
}

// MigrationPlan returns the current migration status without applying anything.
func MigrationPlan(ctx context.Context, db *sql.DB) (*MigrationStatus, error) {
	legacy, err := detectLegacyDB(ctx, db)
	if err != nil {
		return nil, err
	}

	current := 0
	tracked, err := tableExists(ctx, db, "schema_migrations")
	if err != nil {
		return nil, err
	}
	if tracked {
		if current, err = currentVersion(ctx, db); err != nil {
			return nil, err
		}
	}
	if legacy && current == 0 {
		current = 1
	}

	sorted := orderedMigrations()
	status := &MigrationStatus{CurrentVersion: current, Pending: []MigrationInfo{}}
	if len(sorted) > 0 {
		status.AvailableVersion = sorted[len(sorted)-1].Version
	}
	for _, m := range sorted {
		if m.Version > current {
			status.Pending = append(status.Pending, MigrationInfo{Version: m.Version, Description: m.Description})
		}
	}
	return status, nil
}
