package store

import (
	"strings"
	"testing"
	"time"
)

func TestIntFromEnv(t *testing.T) {
	t.Setenv(busyTimeoutEnvKey, "")
	if got := intFromEnv(busyTimeoutEnvKey, 3); got != 3 {
		t.Fatalf("expected default 3, got %d", got)
	}

	t.Setenv(busyTimeoutEnvKey, "4")
	if got := intFromEnv(busyTimeoutEnvKey, 3); got != 4 {
		t.Fatalf("expected parsed 4, got %d", got)
	}

	t.Setenv(busyTimeoutEnvKey, "bad")
	if got := intFromEnv(busyTimeoutEnvKey, 3); got != 3 {
		t.Fatalf("expected default on invalid value, got %d", got)
	}

	t.Setenv(busyTimeoutEnvKey, "0")
	if got := intFromEnv(busyTimeoutEnvKey, 3); got != 3 {
		t.Fatalf("expected default on non-positive value, got %d", got)
	}
}

func TestDurationFromEnv(t *testing.T) {
	t.Setenv(connMaxLifetimeEnvKey, "")
	if got := durationFromEnv(connMaxLifetimeEnvKey, 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("expected default duration, got %v", got)
	}

	t.Setenv(connMaxLifetimeEnvKey, "45s")
	if got := durationFromEnv(connMaxLifetimeEnvKey, 2*time.Minute); got != 45*time.Second {
		t.Fatalf("expected parsed duration, got %v", got)
	}

	t.Setenv(connMaxLifetimeEnvKey, "30")
	if got := durationFromEnv(connMaxLifetimeEnvKey, 2*time.Minute); got != 30*time.Second {
		t.Fatalf("expected seconds duration, got %v", got)
	}

	t.Setenv(connMaxLifetimeEnvKey, "invalid")
	if got := durationFromEnv(connMaxLifetimeEnvKey, 2*time.Minute); got != 2*time.Minute {
		t.Fatalf("expected default on invalid duration, got %v", got)
	}
}

func TestSQLiteDSN(t *testing.T) {
	t.Setenv(busyTimeoutEnvKey, "")

	if _, err := sqliteDSN(" "); err == nil {
		t.Fatal("expected error for blank path")
	}

	dsn, err := sqliteDSN("/var/lib/photomap/images.db")
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:///var/lib/photomap/images.db?") {
		t.Fatalf("unexpected dsn prefix: %s", dsn)
	}
	for _, want := range []string{"journal_mode%28WAL%29", "busy_timeout%285000%29"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("expected dsn to contain %s, got %s", want, dsn)
		}
	}
}

func TestIsSQLiteBusy(t *testing.T) {
	if isSQLiteBusy(nil) {
		t.Fatal("nil is not busy")
	}
	if !isSQLiteBusy(errString("database is locked (5) (SQLITE_BUSY)")) {
		t.Fatal("expected busy message to be detected")
	}
	if isSQLiteBusy(errString("no such table: images")) {
		t.Fatal("unexpected busy classification")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
