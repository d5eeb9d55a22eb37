package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const seedYAML = `
sections:
  - section: a
    shelf_count: 2
    rows_per_shelf: 3
    slots_per_row: 4
    description: General
  - section: B
    shelf_count: 1
    rows_per_shelf: 1
    slots_per_row: 10
categories:
  - code: GEN
    name: General
    section: a
    shelf: 2
    row: 3
    slot: 4
`

func TestParseSeed(t *testing.T) {
	seed, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	require.Len(t, seed.Sections, 2)
	assert.Equal(t, "A", seed.Sections[0].Section)
	assert.Equal(t, "General", seed.Sections[0].Description)
	require.Len(t, seed.Categories, 1)
	assert.Equal(t, "A", seed.Categories[0].Section)
}

func TestParseSeed_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero slots", "sections:\n  - section: A\n    shelf_count: 1\n    rows_per_shelf: 1\n    slots_per_row: 0\n"},
		{"unknown category section", "sections:\n  - section: A\n    shelf_count: 1\n    rows_per_shelf: 1\n    slots_per_row: 1\ncategories:\n  - code: X\n    section: Q\n    shelf: 1\n    row: 1\n    slot: 1\n"},
		{"category outside grid", "sections:\n  - section: A\n    shelf_count: 1\n    rows_per_shelf: 1\n    slots_per_row: 1\ncategories:\n  - code: X\n    section: A\n    shelf: 1\n    row: 1\n    slot: 2\n"},
		{"malformed", "sections: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSeed([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestShippedSeedFileIsValid(t *testing.T) {
	seed, err := LoadSeedFile(filepath.Join("..", "..", "configs", "section_grids.yaml"))
	require.NoError(t, err)
	assert.NotEmpty(t, seed.Sections)
	assert.NotEmpty(t, seed.Categories)
}

func TestSeeder_Run(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:seeder?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	path := filepath.Join(t.TempDir(), "grids.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	ctx := context.Background()
	seeder := NewSeeder(db, path, services.DefaultPolicy)
	require.NoError(t, seeder.Run(ctx))
	// Seeding twice updates in place
	require.NoError(t, seeder.Run(ctx))

	store := repositories.NewStore(db)
	grids, err := store.Grids.List(ctx)
	require.NoError(t, err)
	assert.Len(t, grids, 2)

	grid, err := store.Grids.Grid(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 24, grid.Capacity())

	category, err := store.Categories.GetByCode(ctx, "GEN")
	require.NoError(t, err)
	assert.Equal(t, "A-2-3-4", category.DefaultCoordinate().String())

	settings, err := store.Settings.List(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, settings)

	missing := NewSeeder(db, filepath.Join(t.TempDir(), "missing.yaml"), services.DefaultPolicy)
	assert.NoError(t, missing.Run(ctx))
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DEV_SQLITE_PATH", "test.db")
	t.Setenv("BORROW_DAYS", "21")
	t.Setenv("LATE_FEE_PER_DAY", "2.5")
	t.Setenv("HOLD_DAYS", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "test.db", cfg.Database.SQLitePath)

	policy := cfg.Policy()
	assert.Equal(t, 21, policy.BorrowDays)
	assert.Equal(t, 3, policy.HoldDays)
	assert.InDelta(t, 2.5, policy.LateFeePerDay, 0.001)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	assert.Error(t, err)
}
