package migrate

import (
	"errors"
	"io/fs"
	"os"
	"strings"
	"testing"

	"phone-verification/internal/db"
)

func TestRun_EmptyDSN(t *testing.T) {
	if err := Run("", "up", 0); !errors.Is(err, errNoDSN) {
		t.Fatalf("Run with empty DSN: err = %v, want errNoDSN", err)
	}
	if _, _, _, err := Version(""); !errors.Is(err, errNoDSN) {
		t.Fatalf("Version with empty DSN: err = %v, want errNoDSN", err)
	}
}

func TestRun_InvalidArguments(t *testing.T) {
	testCases := []struct {
		name      string
		direction string
		steps     int
		want      string
	}{
		{"empty direction", "", 0, "direction"},
		{"upcase", "UP", 0, "direction"},
		{"sideways", "left", 0, "direction"},
		{"negative steps", "up", -1, "steps"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Run("postgres://localhost/test", tc.direction, tc.steps)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("err = %q, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestMigrationFS_PairsUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(db.MigrationFS, "migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	if len(ups) == 0 {
		t.Fatal("no migrations embedded")
	}
	for v := range ups {
		if !downs[v] {
			t.Errorf("migration %s has no down file", v)
		}
	}
}

func TestRun_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := Run(dsn, "up", 0); err != nil {
		t.Fatalf("Run up: %v", err)
	}
	v, dirty, ok, err := Version(dsn)
	if err != nil || !ok || dirty || v < 3 {
		t.Errorf("Version = (%d, %v, %v, %v), want clean >= 3", v, dirty, ok, err)
	}
}
