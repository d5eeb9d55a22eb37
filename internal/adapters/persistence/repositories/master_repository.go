package repositories

import (
	"context"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/allocator"

	"gorm.io/gorm"
)

// CategoryRepository handles categories
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// GetByID gets a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// GetByCode gets a category by code
func (r *CategoryRepository) GetByCode(ctx context.Context, code string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// List lists all categories
func (r *CategoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := r.db.WithContext(ctx).Order("code ASC").Find(&categories).Error
	return categories, err
}

// Save creates or updates a category
func (r *CategoryRepository) Save(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

// CountOutsideGrid counts categories whose default slot lies in g's section
// beyond its bounds
func (r *CategoryRepository) CountOutsideGrid(ctx context.Context, g allocator.Grid) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("default_section = ?", g.Section).
		Where("default_shelf > ? OR default_row > ? OR default_slot > ?", g.ShelfCount, g.RowsPerShelf, g.SlotsPerRow).
		Count(&count).Error
	return count, err
}
