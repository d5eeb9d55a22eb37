package repositories

import (
	"context"
	"errors"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
)

// CopyRepository is the copy registry over book_copies
type CopyRepository struct {
	db *gorm.DB
}

// NewCopyRepository creates a new copy repository
func NewCopyRepository(db *gorm.DB) *CopyRepository {
	return &CopyRepository{db: db}
}

// Create creates a new copy
func (r *CopyRepository) Create(ctx context.Context, bookCopy *models.BookCopy) error {
	return r.db.WithContext(ctx).Create(bookCopy).Error
}

// GetByID gets a copy by ID
func (r *CopyRepository) GetByID(ctx context.Context, id uint) (*models.BookCopy, error) {
	var bookCopy models.BookCopy
	if err := r.db.WithContext(ctx).First(&bookCopy, id).Error; err != nil {
		return nil, err
	}
	return &bookCopy, nil
}

// GetForUpdate gets a copy and locks its row
func (r *CopyRepository) GetForUpdate(ctx context.Context, id uint) (*models.BookCopy, error) {
	var bookCopy models.BookCopy
	if err := forUpdate(r.db.WithContext(ctx)).First(&bookCopy, id).Error; err != nil {
		return nil, err
	}
	return &bookCopy, nil
}

// ListByBook lists every copy of a title, active or not
func (r *CopyRepository) ListByBook(ctx context.Context, bookID uint) ([]*models.BookCopy, error) {
	var copies []*models.BookCopy
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("copy_number ASC").
		Find(&copies).Error
	return copies, err
}

// ListAvailableForUpdate locks and returns the active available copies of a
// title in copy_number order, skipping the excluded IDs.
func (r *CopyRepository) ListAvailableForUpdate(ctx context.Context, bookID uint, exclude []uint) ([]*models.BookCopy, error) {
	var copies []*models.BookCopy
	query := forUpdate(r.db.WithContext(ctx)).
		Where("book_id = ? AND is_active = ? AND status = ?", bookID, true, domain.CopyAvailable)
	if len(exclude) > 0 {
		query = query.Where("id NOT IN ?", exclude)
	}
	err := query.Order("copy_number ASC").Order("id ASC").Find(&copies).Error
	return copies, err
}

// CompareAndSetStatus moves an active copy to status `to` only while its
// current status is one of `from`. It reports whether the row changed.
func (r *CopyRepository) CompareAndSetStatus(ctx context.Context, id uint, from []domain.CopyStatus, to domain.CopyStatus) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ? AND is_active = ? AND status IN ?", id, true, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateCondition records the physical condition
func (r *CopyRepository) UpdateCondition(ctx context.Context, id uint, condition domain.Condition) error {
	return r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ?", id).
		Update("condition", condition).Error
}

// UpdateLocation writes or clears the coordinate columns
func (r *CopyRepository) UpdateLocation(ctx context.Context, id uint, c *domain.Coordinate) error {
	var holder models.BookCopy
	holder.SetLocation(c)
	return r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"location_section": holder.Section,
			"location_shelf":   holder.Shelf,
			"location_row":     holder.Row,
			"location_slot":    holder.Slot,
		}).Error
}

// Deactivate soft-deletes an active copy and frees its slot
func (r *CopyRepository) Deactivate(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":        false,
			"location_section": nil,
			"location_shelf":   nil,
			"location_row":     nil,
			"location_slot":    nil,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// NextCopyNumber returns one past the highest copy number of a title,
// counting deactivated copies.
func (r *CopyRepository) NextCopyNumber(ctx context.Context, bookID uint) (int, error) {
	var max int
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("book_id = ?", bookID).
		Select("COALESCE(MAX(copy_number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// CountByBook returns the live registry counts for a title
func (r *CopyRepository) CountByBook(ctx context.Context, bookID uint) (total, available int64, err error) {
	type counts struct {
		Total     int64
		Available int64
	}
	var c counts
	err = r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS available", domain.CopyAvailable).
		Where("book_id = ? AND is_active = ?", bookID, true).
		Scan(&c).Error
	return c.Total, c.Available, err
}

// CountInStatus counts the active copies of a title in any of the statuses
func (r *CopyRepository) CountInStatus(ctx context.Context, bookID uint, statuses []domain.CopyStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("book_id = ? AND is_active = ? AND status IN ?", bookID, true, statuses).
		Count(&count).Error
	return count, err
}

// FindOccupant returns the active copy holding a coordinate, or nil when the
// slot is free. excludeID skips one copy (the one being moved).
func (r *CopyRepository) FindOccupant(ctx context.Context, c domain.Coordinate, excludeID uint) (*models.BookCopy, error) {
	var bookCopy models.BookCopy
	query := r.db.WithContext(ctx).
		Where("location_section = ? AND location_shelf = ? AND location_row = ? AND location_slot = ?",
			c.Section, c.Shelf, c.Row, c.Slot).
		Where("is_active = ?", true)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.First(&bookCopy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bookCopy, nil
}

// IsOccupied reports whether an active copy holds the coordinate
func (r *CopyRepository) IsOccupied(ctx context.Context, c domain.Coordinate) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("location_section = ? AND location_shelf = ? AND location_row = ? AND location_slot = ?",
			c.Section, c.Shelf, c.Row, c.Slot).
		Where("is_active = ?", true).
		Count(&count).Error
	return count > 0, err
}

// OccupiedInSection returns every coordinate held by an active copy
func (r *CopyRepository) OccupiedInSection(ctx context.Context, section string) (map[domain.Coordinate]bool, error) {
	type row struct {
		Shelf int `gorm:"column:location_shelf"`
		Row   int `gorm:"column:location_row"`
		Slot  int `gorm:"column:location_slot"`
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Select("location_shelf, location_row, location_slot").
		Where("location_section = ? AND is_active = ?", section, true).
		Where("location_shelf IS NOT NULL AND location_row IS NOT NULL AND location_slot IS NOT NULL").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	taken := make(map[domain.Coordinate]bool, len(rows))
	for _, o := range rows {
		taken[domain.Coordinate{Section: section, Shelf: o.Shelf, Row: o.Row, Slot: o.Slot}] = true
	}
	return taken, nil
}

// CountOutsideGrid counts active copies shelved in g's section beyond its
// bounds
func (r *CopyRepository) CountOutsideGrid(ctx context.Context, g allocator.Grid) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.BookCopy{}).
		Where("location_section = ? AND is_active = ?", g.Section, true).
		Where("location_shelf > ? OR location_row > ? OR location_slot > ?", g.ShelfCount, g.RowsPerShelf, g.SlotsPerRow).
		Count(&count).Error
	return count, err
}
