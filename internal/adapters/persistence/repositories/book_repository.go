package repositories

import (
	"context"

	"library-circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// BookRepository handles catalog entries and their cached counters
type BookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) *BookRepository {
	return &BookRepository{db: db}
}

// Create creates a new catalog entry
func (r *BookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID with its category
func (r *BookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Category").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetForUpdate gets a book and locks its row until the transaction ends
func (r *BookRepository) GetForUpdate(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := forUpdate(r.db.WithContext(ctx)).First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListIDs returns the IDs of every live catalog entry
func (r *BookRepository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// AdjustCounts applies deltas to total_copies and available_copies in one
// statement. It returns false without writing when the result would break
// 0 <= available <= total.
func (r *BookRepository) AdjustCounts(ctx context.Context, id uint, totalDelta, availableDelta int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Where("total_copies + ? >= 0", totalDelta).
		Where("available_copies + ? >= 0", availableDelta).
		Where("available_copies + ? <= total_copies + ?", availableDelta, totalDelta).
		Updates(map[string]interface{}{
			"total_copies":     gorm.Expr("total_copies + ?", totalDelta),
			"available_copies": gorm.Expr("available_copies + ?", availableDelta),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// SetCounts overwrites both counters
func (r *BookRepository) SetCounts(ctx context.Context, id uint, total, available int) error {
	return r.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_copies":     total,
			"available_copies": available,
		}).Error
}
