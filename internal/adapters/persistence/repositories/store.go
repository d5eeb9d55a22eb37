package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store bundles the circulation repositories over one *gorm.DB handle.
// Inside Transaction every repository shares the transaction handle.
type Store struct {
	db *gorm.DB

	Books        *BookRepository
	Categories   *CategoryRepository
	Copies       *CopyRepository
	Reservations *ReservationRepository
	Loans        *LoanRepository
	Grids        *GridRepository
	History      *HistoryRepository
	Events       *EventRepository
	Settings     SettingRepository
}

// NewStore creates a new store
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:           db,
		Books:        NewBookRepository(db),
		Categories:   NewCategoryRepository(db),
		Copies:       NewCopyRepository(db),
		Reservations: NewReservationRepository(db),
		Loans:        NewLoanRepository(db),
		Grids:        NewGridRepository(db),
		History:      NewHistoryRepository(db),
		Events:       NewEventRepository(db),
		Settings:     NewSettingRepository(db),
	}
}

// DB returns the underlying handle
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn inside one database transaction. Returning an error
// from fn rolls everything back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds SELECT ... FOR UPDATE. SQLite ignores the clause and
// serialises writers instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
