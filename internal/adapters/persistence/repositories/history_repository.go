package repositories

import (
	"context"
	"time"

	"library-circulation/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// HistoryRepository appends to and reads the copy transaction log
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends one history row
func (r *HistoryRepository) Create(ctx context.Context, tx *models.CopyTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByCopy lists the history of a copy, newest first
func (r *HistoryRepository) ListByCopy(ctx context.Context, copyID uint, offset, limit int) ([]*models.CopyTransaction, int64, error) {
	var rows []*models.CopyTransaction
	var total int64

	r.db.WithContext(ctx).Model(&models.CopyTransaction{}).Where("copy_id = ?", copyID).Count(&total)

	err := r.db.WithContext(ctx).
		Where("copy_id = ?", copyID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).Error

	return rows, total, err
}

// EventRepository is the circulation event outbox
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create queues an event
func (r *EventRepository) Create(ctx context.Context, event *models.CirculationEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListUndelivered lists queued events that still have attempts left
func (r *EventRepository) ListUndelivered(ctx context.Context, maxAttempts, limit int) ([]*models.CirculationEvent, error) {
	var events []*models.CirculationEvent
	err := r.db.WithContext(ctx).
		Where("delivered_at IS NULL AND attempts < ?", maxAttempts).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

// MarkDelivered stamps an event as delivered
func (r *EventRepository) MarkDelivered(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.CirculationEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"delivered_at": at,
			"attempts":     gorm.Expr("attempts + 1"),
			"last_error":   "",
		}).Error
}

// MarkFailed records a failed delivery attempt
func (r *EventRepository) MarkFailed(ctx context.Context, id uint, cause error) error {
	return r.db.WithContext(ctx).
		Model(&models.CirculationEvent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": cause.Error(),
		}).Error
}
