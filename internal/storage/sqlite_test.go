package storage

import (
	"database/sql"
	"testing"
)

// newTestDB opens an in-memory database with the full schema applied.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("OpenDatabase() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := RunMigrations(db); err != nil {
		t.Fatalf("RunMigrations() error: %v", err)
	}
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(newTestDB(t))
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// A second pass must not re-apply anything.
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations() error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("got %d applied migrations, want 1", count)
	}
}

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		filename string
		want     int
	}{
		{"001_initial_schema.sql", 1},
		{"042_add_index.sql", 42},
		{"nonsense.sql", 0},
		{"abc_def.sql", 0},
	}
	for _, tt := range tests {
		if got := migrationVersion(tt.filename); got != tt.want {
			t.Errorf("migrationVersion(%q) = %d, want %d", tt.filename, got, tt.want)
		}
	}
}
