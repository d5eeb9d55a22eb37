package services

import (
	"context"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/domain"

	"gorm.io/gorm"
)

// DashboardService aggregates circulation figures for the staff dashboard
type DashboardService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db, now: time.Now}
}

// DashboardData represents the staff dashboard
type DashboardData struct {
	// Catalog
	TotalBooks      int64            `json:"total_books"`
	ActiveCopies    int64            `json:"active_copies"`
	CopiesByStatus  map[string]int64 `json:"copies_by_status"`
	UnshelvedCopies int64            `json:"unshelved_copies"`

	// Circulation
	OpenLoans           int64 `json:"open_loans"`
	OverdueLoans        int64 `json:"overdue_loans"`
	PendingReservations int64 `json:"pending_reservations"`
	HeldCopies          int64 `json:"held_copies"`

	// This month
	LoansThisMonth   int64   `json:"loans_this_month"`
	ReturnsThisMonth int64   `json:"returns_this_month"`
	FeesThisMonth    float64 `json:"fees_this_month"`

	// Notifications waiting for the dispatcher
	UndeliveredEvents int64 `json:"undelivered_events"`

	RecentLoans []LoanSummary `json:"recent_loans"`
}

// LoanSummary represents one recent loan
type LoanSummary struct {
	ID         uint      `json:"id"`
	BookID     uint      `json:"book_id"`
	Title      string    `json:"title"`
	CopyID     uint      `json:"copy_id"`
	Barcode    string    `json:"barcode"`
	PatronID   uint      `json:"patron_id"`
	Status     string    `json:"status"`
	BorrowedAt time.Time `json:"borrowed_at"`
	DueDate    time.Time `json:"due_date"`
}

// GetDashboard returns the staff dashboard
func (s *DashboardService) GetDashboard(ctx context.Context) (*DashboardData, error) {
	db := s.db.WithContext(ctx)
	data := &DashboardData{CopiesByStatus: map[string]int64{}}

	if err := db.Model(&models.Book{}).Count(&data.TotalBooks).Error; err != nil {
		return nil, err
	}

	// Copy counts by status
	var byStatus []struct {
		Status string
		Total  int64
	}
	if err := db.Model(&models.BookCopy{}).
		Select("status, COUNT(*) AS total").
		Where("is_active = ?", true).
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		data.CopiesByStatus[row.Status] = row.Total
		data.ActiveCopies += row.Total
	}
	db.Model(&models.BookCopy{}).
		Where("is_active = ? AND location_section IS NULL", true).
		Count(&data.UnshelvedCopies)

	// Loans
	db.Model(&models.Loan{}).
		Where("status IN ?", []domain.LoanStatus{domain.LoanBorrowed, domain.LoanOverdue}).
		Count(&data.OpenLoans)
	db.Model(&models.Loan{}).
		Where("status = ?", domain.LoanOverdue).
		Count(&data.OverdueLoans)

	// Reservations
	db.Model(&models.Reservation{}).
		Where("status = ?", domain.ReservationPending).
		Count(&data.PendingReservations)
	db.Model(&models.Reservation{}).
		Where("status = ? AND copy_held = ?", domain.ReservationPending, true).
		Count(&data.HeldCopies)

	// This month statistics
	now := s.now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	db.Model(&models.Loan{}).
		Where("borrowed_at >= ?", startOfMonth).
		Count(&data.LoansThisMonth)
	db.Model(&models.Loan{}).
		Where("returned_at >= ?", startOfMonth).
		Count(&data.ReturnsThisMonth)
	db.Model(&models.Loan{}).
		Where("returned_at >= ?", startOfMonth).
		Select("COALESCE(SUM(total_fee), 0)").
		Scan(&data.FeesThisMonth)

	db.Model(&models.CirculationEvent{}).
		Where("delivered_at IS NULL").
		Count(&data.UndeliveredEvents)

	// Recent loans
	data.RecentLoans = []LoanSummary{}
	if err := db.Table("borrow_records AS loans").
		Select("loans.id, loans.book_id, books.title, loans.copy_id, book_copies.barcode, loans.patron_id, loans.status, loans.borrowed_at, loans.due_date").
		Joins("LEFT JOIN books ON loans.book_id = books.id").
		Joins("LEFT JOIN book_copies ON loans.copy_id = book_copies.id").
		Order("loans.borrowed_at DESC").
		Order("loans.id DESC").
		Limit(10).
		Scan(&data.RecentLoans).Error; err != nil {
		return nil, err
	}

	return data, nil
}
