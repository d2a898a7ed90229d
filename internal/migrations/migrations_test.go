package migrations_test

import (
	"context"
	"testing"

	"github.com/brinda/clasico/internal/database"
	"github.com/brinda/clasico/internal/migrations"
	"github.com/brinda/clasico/internal/records"
)

func TestMigrations(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, migrations.SQLite); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{
		records.Archetypes, records.Challenges, records.Routes, records.Campaigns,
		records.Completions, records.UserRewards, records.UserArchetypes, records.Messages,
	}
	for _, table := range want {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := migrations.Run(db, migrations.SQLite); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db, migrations.SQLite); err != nil {
		t.Fatalf("second run (should be no-op): %v", err)
	}
}
