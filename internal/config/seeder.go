package config

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"
	"library-circulation/internal/core/services"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedFile is the YAML layout of the section grid file
type SeedFile struct {
	Sections   []SectionSeed  `yaml:"sections"`
	Categories []CategorySeed `yaml:"categories"`
}

// SectionSeed describes one shelving section
type SectionSeed struct {
	Section      string `yaml:"section"`
	ShelfCount   int    `yaml:"shelf_count"`
	RowsPerShelf int    `yaml:"rows_per_shelf"`
	SlotsPerRow  int    `yaml:"slots_per_row"`
	Description  string `yaml:"description"`
}

// CategorySeed describes a category and its recommended start slot
type CategorySeed struct {
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Section string `yaml:"section"`
	Shelf   int    `yaml:"shelf"`
	Row     int    `yaml:"row"`
	Slot    int    `yaml:"slot"`
}

// LoadSeedFile reads and validates a section grid file
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes seed YAML
func ParseSeed(data []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	grids := make(map[string]allocator.Grid, len(f.Sections))
	for i := range f.Sections {
		s := &f.Sections[i]
		s.Section = strings.ToUpper(strings.TrimSpace(s.Section))
		g := allocator.Grid{
			Section:      s.Section,
			ShelfCount:   s.ShelfCount,
			RowsPerShelf: s.RowsPerShelf,
			SlotsPerRow:  s.SlotsPerRow,
		}
		if err := g.Validate(); err != nil {
			return nil, fmt.Errorf("section %q: %w", s.Section, err)
		}
		grids[s.Section] = g
	}

	for i := range f.Categories {
		c := &f.Categories[i]
		c.Section = strings.ToUpper(strings.TrimSpace(c.Section))
		g, ok := grids[c.Section]
		if !ok {
			return nil, fmt.Errorf("category %q: unknown section %q", c.Code, c.Section)
		}
		if !g.Contains(c.coordinate()) {
			return nil, fmt.Errorf("category %q: %s is outside section bounds", c.Code, c.coordinate())
		}
	}

	return &f, nil
}

func (c CategorySeed) coordinate() domain.Coordinate {
	return domain.Coordinate{Section: c.Section, Shelf: c.Shelf, Row: c.Row, Slot: c.Slot}
}

// Seeder handles database seeding
type Seeder struct {
	db     *gorm.DB
	file   string
	policy services.Policy
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, file string, policy services.Policy) *Seeder {
	return &Seeder{db: db, file: file, policy: policy}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	store := repositories.NewStore(s.db)

	if err := services.NewSettingsService(store.Settings).Seed(ctx, s.policy); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}

	seed, err := LoadSeedFile(s.file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Section grid seeder skipped: %s not found", s.file)
			log.Println("✅ Database seeding completed")
			return nil
		}
		return err
	}

	if err := s.seedSections(ctx, store, seed.Sections); err != nil {
		return err
	}
	if err := s.seedCategories(ctx, store, seed.Categories); err != nil {
		return err
	}

	log.Println("✅ Database seeding completed")
	return nil
}

func (s *Seeder) seedSections(ctx context.Context, store *repositories.Store, sections []SectionSeed) error {
	for _, sec := range sections {
		g := allocator.Grid{
			Section:      sec.Section,
			ShelfCount:   sec.ShelfCount,
			RowsPerShelf: sec.RowsPerShelf,
			SlotsPerRow:  sec.SlotsPerRow,
		}
		if err := store.Grids.Upsert(ctx, g, sec.Description); err != nil {
			return fmt.Errorf("seed section %s: %w", sec.Section, err)
		}
	}
	log.Printf("🗄️ Seeded %d section grids", len(sections))
	return nil
}

func (s *Seeder) seedCategories(ctx context.Context, store *repositories.Store, categories []CategorySeed) error {
	for _, c := range categories {
		category, err := store.Categories.GetByCode(ctx, c.Code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			category = &models.Category{Code: c.Code}
		} else if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Code, err)
		}

		category.Name = c.Name
		category.DefaultSection = c.Section
		category.DefaultShelf = c.Shelf
		category.DefaultRow = c.Row
		category.DefaultSlot = c.Slot

		if err := store.Categories.Save(ctx, category); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Code, err)
		}
	}
	log.Printf("🏷️ Seeded %d categories", len(categories))
	return nil
}
