package repositories

import (
	"context"
	"errors"
	"fmt"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GridRepository is the section grid configuration store
type GridRepository struct {
	db *gorm.DB
}

// NewGridRepository creates a new grid repository
func NewGridRepository(db *gorm.DB) *GridRepository {
	return &GridRepository{db: db}
}

// List lists all section grids
func (r *GridRepository) List(ctx context.Context) ([]*models.SectionGrid, error) {
	var grids []*models.SectionGrid
	err := r.db.WithContext(ctx).Order("section_code ASC").Find(&grids).Error
	return grids, err
}

// Grid returns the bounds of a section, wrapping domain.ErrNotFound when the
// section is not configured.
func (r *GridRepository) Grid(ctx context.Context, section string) (allocator.Grid, error) {
	var g models.SectionGrid
	err := r.db.WithContext(ctx).Where("section_code = ?", section).First(&g).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return allocator.Grid{}, fmt.Errorf("%w: section %s", domain.ErrNotFound, section)
	}
	if err != nil {
		return allocator.Grid{}, err
	}
	return ToGrid(&g), nil
}

// Upsert creates or replaces the grid of a section
func (r *GridRepository) Upsert(ctx context.Context, g allocator.Grid, description string) error {
	row := &models.SectionGrid{
		SectionCode:  g.Section,
		ShelfCount:   g.ShelfCount,
		RowsPerShelf: g.RowsPerShelf,
		SlotsPerRow:  g.SlotsPerRow,
		Description:  description,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "section_code"}},
			DoUpdates: clause.AssignmentColumns([]string{"shelf_count", "rows_per_shelf", "slots_per_row", "description", "updated_at"}),
		}).
		Create(row).Error
}

// ToGrid converts a stored row to allocator bounds
func ToGrid(g *models.SectionGrid) allocator.Grid {
	return allocator.Grid{
		Section:      g.SectionCode,
		ShelfCount:   g.ShelfCount,
		RowsPerShelf: g.RowsPerShelf,
		SlotsPerRow:  g.SlotsPerRow,
	}
}

// slotSource joins grid bounds and copy occupancy for the allocator
type slotSource struct {
	*GridRepository
	*CopyRepository
}

// Slots returns the allocator view of this store. Called on a transaction
// store, every lookup runs inside that transaction.
func (s *Store) Slots() allocator.Source {
	return slotSource{GridRepository: s.Grids, CopyRepository: s.Copies}
}
