package repositories

import (
	"context"
	"errors"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
)

// ReservationRepository handles reservation data access
type ReservationRepository struct {
	db *gorm.DB
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

// Create creates a new reservation
func (r *ReservationRepository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// GetByID gets a reservation by ID
func (r *ReservationRepository) GetByID(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// GetForUpdate gets a reservation and locks its row
func (r *ReservationRepository) GetForUpdate(ctx context.Context, id uint) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := forUpdate(r.db.WithContext(ctx)).First(&reservation, id).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

// PendingQuery selects pending reservations for a (book, patron) pair
type PendingQuery struct {
	BookID   uint
	PatronID uint
	// From skips reservations queued before this one, in (reserved_at, id) order
	From *models.Reservation
	// Limit caps the result, 0 means no cap
	Limit int
}

// ListPendingForUpdate locks and returns pending reservations oldest first.
// Ties on reserved_at are broken by id.
func (r *ReservationRepository) ListPendingForUpdate(ctx context.Context, q PendingQuery) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	query := forUpdate(r.db.WithContext(ctx)).
		Where("book_id = ? AND patron_id = ? AND status = ?", q.BookID, q.PatronID, domain.ReservationPending)
	if q.From != nil {
		query = query.Where("(reserved_at > ?) OR (reserved_at = ? AND id >= ?)",
			q.From.ReservedAt, q.From.ReservedAt, q.From.ID)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	err := query.Order("reserved_at ASC").Order("id ASC").Find(&reservations).Error
	return reservations, err
}

// ListExpired lists pending reservations whose hold window has passed
func (r *ReservationRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Reservation, error) {
	var reservations []*models.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", domain.ReservationPending, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

// ListByPatron lists a patron's reservations, newest first
func (r *ReservationRepository) ListByPatron(ctx context.Context, patronID uint, offset, limit int) ([]*models.Reservation, int64, error) {
	var reservations []*models.Reservation
	var total int64

	r.db.WithContext(ctx).Model(&models.Reservation{}).Where("patron_id = ?", patronID).Count(&total)

	err := r.db.WithContext(ctx).
		Where("patron_id = ?", patronID).
		Order("reserved_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reservations).Error

	return reservations, total, err
}

// Finish moves a pending reservation to a terminal status. It reports
// whether the row was still pending.
func (r *ReservationRepository) Finish(ctx context.Context, id uint, status domain.ReservationStatus, updates map[string]interface{}) (bool, error) {
	values := map[string]interface{}{"status": status}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, domain.ReservationPending).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// Hold binds a copy to the reservation and marks it held
func (r *ReservationRepository) Hold(ctx context.Context, id, copyID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"copy_id":   copyID,
			"copy_held": true,
		}).Error
}

// FindHolder returns the pending reservation holding a copy, or nil
func (r *ReservationRepository) FindHolder(ctx context.Context, copyID uint) (*models.Reservation, error) {
	var reservation models.Reservation
	err := forUpdate(r.db.WithContext(ctx)).
		Where("copy_id = ? AND copy_held = ? AND status = ?", copyID, true, domain.ReservationPending).
		Order("reserved_at ASC").
		First(&reservation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

// ClearHolds drops the held flag of pending reservations on a copy
func (r *ReservationRepository) ClearHolds(ctx context.Context, copyID uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("copy_id = ? AND copy_held = ? AND status = ?", copyID, true, domain.ReservationPending).
		Update("copy_held", false).Error
}
