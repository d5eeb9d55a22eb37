package repositories

import (
	"context"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
)

// LoanRepository handles borrow records
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// Create creates a new loan
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with its copy
func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := r.db.WithContext(ctx).Preload("Copy").First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetForUpdate gets a loan and locks its row
func (r *LoanRepository) GetForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	if err := forUpdate(r.db.WithContext(ctx)).First(&loan, id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// CountOpenByCopy counts borrowed/overdue loans on a copy
func (r *LoanRepository) CountOpenByCopy(ctx context.Context, copyID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("copy_id = ? AND status IN ?", copyID, domain.OpenLoanStatuses).
		Count(&count).Error
	return count, err
}

// OpenCopyIDs returns the copies of a title a patron currently has out
func (r *LoanRepository) OpenCopyIDs(ctx context.Context, bookID, patronID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("book_id = ? AND patron_id = ? AND status IN ?", bookID, patronID, domain.OpenLoanStatuses).
		Pluck("copy_id", &ids).Error
	return ids, err
}

// Close marks an open loan returned. It reports whether the loan was open.
func (r *LoanRepository) Close(ctx context.Context, loan *models.Loan) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status IN ?", loan.ID, domain.OpenLoanStatuses).
		Updates(map[string]interface{}{
			"status":           domain.LoanReturned,
			"returned_at":      loan.ReturnedAt,
			"late_fee":         loan.LateFee,
			"damage_fee":       loan.DamageFee,
			"total_fee":        loan.TotalFee,
			"return_condition": loan.ReturnCondition,
			"damage_notes":     loan.DamageNotes,
			"processed_by":     loan.ProcessedBy,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListNewlyOverdue lists borrowed loans past their due date
func (r *LoanRepository) ListNewlyOverdue(ctx context.Context, now time.Time, limit int) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", domain.LoanBorrowed, now).
		Order("due_date ASC").
		Limit(limit).
		Find(&loans).Error
	return loans, err
}

// MarkOverdue moves one borrowed loan to overdue
func (r *LoanRepository) MarkOverdue(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", id, domain.LoanBorrowed).
		Update("status", domain.LoanOverdue)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByPatron lists a patron's loans, newest first
func (r *LoanRepository) ListByPatron(ctx context.Context, patronID uint, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	r.db.WithContext(ctx).Model(&models.Loan{}).Where("patron_id = ?", patronID).Count(&total)

	err := r.db.WithContext(ctx).
		Where("patron_id = ?", patronID).
		Order("borrowed_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}
