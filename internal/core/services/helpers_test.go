package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq int64

// newTestDB opens a private in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:circulation_%d?mode=memory&cache=shared", atomic.AddInt64(&dbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	db    *gorm.DB
	svc   *Container
	staff domain.Actor
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		staff: domain.Actor{ID: 900, Role: domain.RoleLibrarian, IPAddress: "10.0.0.9"},
		clock: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
	f.svc = NewContainer(db, Options{
		Policy:               DefaultPolicy,
		Schedule:             DefaultCronSchedule,
		SlotSearchRadius:     3,
		ReconcileParallelism: 2,
	})
	f.svc.Circulation.WithClock(func() time.Time { return f.clock })
	return f
}

// grid configures a section
func (f *fixture) grid(section string, shelves, rows, slots int) {
	f.t.Helper()
	require.NoError(f.t, f.svc.Store.Grids.Upsert(f.ctx, allocator.Grid{
		Section:      section,
		ShelfCount:   shelves,
		RowsPerShelf: rows,
		SlotsPerRow:  slots,
	}, ""))
}

// book creates a catalog entry with zeroed counters
func (f *fixture) book(title string) *models.Book {
	f.t.Helper()
	book := &models.Book{Title: title, Author: "Test Author"}
	require.NoError(f.t, f.svc.Store.Books.Create(f.ctx, book))
	return book
}

// copies registers n unshelved copies of a book
func (f *fixture) copies(bookID uint, n int) []*models.BookCopy {
	f.t.Helper()
	copies, err := f.svc.Copies.AddCopies(f.ctx, bookID, &AddCopiesInput{Count: n, Condition: "good"}, f.staff)
	require.NoError(f.t, err)
	require.Len(f.t, copies, n)
	return copies
}

// counts reads the cached counters of a book
func (f *fixture) counts(bookID uint) (total, available int) {
	f.t.Helper()
	var book models.Book
	require.NoError(f.t, f.db.First(&book, bookID).Error)
	return book.TotalCopies, book.AvailableCopies
}

// status reads the current status of a copy
func (f *fixture) status(copyID uint) domain.CopyStatus {
	f.t.Helper()
	var bookCopy models.BookCopy
	require.NoError(f.t, f.db.First(&bookCopy, copyID).Error)
	return bookCopy.CopyStatus()
}

// reserve places a reservation as the patron
func (f *fixture) reserve(bookID, patronID uint, copyID *uint) *models.Reservation {
	f.t.Helper()
	patron := domain.Actor{ID: patronID, Role: domain.RolePatron}
	r, err := f.svc.Reservations.ReserveCopy(f.ctx, &ReserveInput{BookID: bookID, PatronID: patronID, CopyID: copyID}, patron)
	require.NoError(f.t, err)
	return r
}

// advance moves the fixture clock forward
func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}
