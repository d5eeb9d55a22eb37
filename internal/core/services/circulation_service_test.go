package services

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCheckout_TakesLowestNumberedAvailableCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	copies := f.copies(book.ID, 2)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)

	assert.Equal(t, copies[0].ID, loan.CopyID)
	assert.Equal(t, string(domain.LoanBorrowed), loan.Status)
	assert.Equal(t, f.clock.AddDate(0, 0, DefaultPolicy.BorrowDays), loan.DueDate)
	assert.Equal(t, domain.CopyBorrowed, f.status(copies[0].ID))

	total, available := f.counts(book.ID)
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, available)

	history, n, err := f.svc.Copies.History(f.ctx, copies[0].ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, domain.TxCheckout, history[0].TransactionType)
	assert.Equal(t, "available", history[0].FromStatus)
	assert.Equal(t, "borrowed", history[0].ToStatus)
}

func TestCheckout_NoAvailableCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	f.copies(book.ID, 1)

	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)

	// The only copy is on loan: someone else got there first
	_, err = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 12}, f.staff)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
	assert.Equal(t, "conflict", domain.Code(err))
	assert.True(t, domain.Retryable(err))
}

func TestCheckout_NothingInCirculation(t *testing.T) {
	f := newFixture(t)
	empty := f.book("Dune")
	shelved := f.book("Emma")
	c := f.copies(shelved.ID, 1)[0]
	_, err := f.svc.Circulation.MarkStatus(f.ctx, c.ID, &MarkStatusInput{Status: "damaged"}, f.staff)
	require.NoError(t, err)

	for _, bookID := range []uint{empty.ID, shelved.ID} {
		_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: bookID, PatronID: 11}, f.staff)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCapacityExhausted)
		assert.NotErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, "capacity_exhausted", domain.Code(err))
	}
}

func TestCheckout_ConcurrentAnyCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	f.copies(book.ID, 1)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{
				BookID:   book.ID,
				PatronID: uint(100 + i),
			}, f.staff)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Equal(t, "conflict", domain.Code(err))
	}
	assert.Equal(t, 1, succeeded)

	total, available := f.counts(book.ID)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, available)
}

func TestCheckout_Validation(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	other := f.book("Emma")
	foreign := f.copies(other.ID, 1)[0]

	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{PatronID: 11}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: 999, PatronID: 11}, f.staff)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, CopyID: &foreign.ID}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCheckout_ConcurrentSameCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	target := f.copies(book.ID, 3)[1]

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(patron uint) {
			defer wg.Done()
			_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{
				BookID:   book.ID,
				PatronID: patron,
				CopyID:   &target.ID,
			}, f.staff)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case domain.Code(err) == "conflict":
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(uint(100 + i))
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)

	total, available := f.counts(book.ID)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, available)

	open, err := f.svc.Store.Loans.CountOpenByCopy(f.ctx, target.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, open)
}

func TestCheckout_StatusChangedUnderneath(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	c := f.copies(book.ID, 1)[0]

	// Another writer moves the copy between the locked read and the
	// status swap
	var armed atomic.Bool
	armed.Store(true)
	require.NoError(t, f.db.Callback().Update().Before("gorm:update").Register("test:interleave", func(db *gorm.DB) {
		if db.Statement.Table != "book_copies" {
			return
		}
		if values, ok := db.Statement.Dest.(map[string]interface{}); !ok || values["status"] == nil {
			return
		}
		if armed.CompareAndSwap(true, false) {
			db.Session(&gorm.Session{NewDB: true}).
				Exec("UPDATE book_copies SET status = ? WHERE id = ?", domain.CopyMaintenance, c.ID)
		}
	}))

	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, CopyID: &c.ID}, f.staff)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Contains(t, err.Error(), "changed concurrently")
	assert.False(t, armed.Load())

	// Everything, the interleaved write included, rolled back
	assert.Equal(t, domain.CopyAvailable, f.status(c.ID))
	total, available := f.counts(book.ID)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, available)
	open, err := f.svc.Store.Loans.CountOpenByCopy(f.ctx, c.ID)
	require.NoError(t, err)
	assert.Zero(t, open)
}

func TestReturn_SecondReturnConflicts(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	f.copies(book.ID, 1)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)

	returned, err := f.svc.Circulation.Return(f.ctx, loan.ID, &ReturnInput{}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LoanReturned), returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Zero(t, returned.TotalFee)

	_, err = f.svc.Circulation.Return(f.ctx, loan.ID, &ReturnInput{}, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)

	assert.Equal(t, domain.CopyAvailable, f.status(loan.CopyID))
	total, available := f.counts(book.ID)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, available)
}

func TestReturn_DamagedAndLate(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	f.copies(book.ID, 2)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, Days: 7}, f.staff)
	require.NoError(t, err)

	f.advance(9 * 24 * time.Hour)
	returned, err := f.svc.Circulation.Return(f.ctx, loan.ID, &ReturnInput{Condition: "damaged", DamageNotes: "water"}, f.staff)
	require.NoError(t, err)

	assert.Equal(t, 2*DefaultPolicy.LateFeePerDay, returned.LateFee)
	assert.Equal(t, DefaultPolicy.DamageFee, returned.DamageFee)
	assert.Equal(t, returned.LateFee+returned.DamageFee, returned.TotalFee)

	assert.Equal(t, domain.CopyDamaged, f.status(loan.CopyID))
	_, available := f.counts(book.ID)
	assert.Equal(t, 1, available, "a damaged copy does not return to the shelf")

	var event models.CirculationEvent
	require.NoError(t, f.db.Where("event_type = ?", models.EventLoanReturned).First(&event).Error)
	assert.Equal(t, uint(11), event.TargetID)
}

func TestMarkStatusAndRestore(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	c := f.copies(book.ID, 1)[0]

	marked, err := f.svc.Circulation.MarkStatus(f.ctx, c.ID, &MarkStatusInput{Status: "maintenance", Note: "rebind"}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CopyMaintenance), marked.Status)
	_, available := f.counts(book.ID)
	assert.Equal(t, 0, available)

	// Out of service copies only move back to available
	_, err = f.svc.Circulation.MarkStatus(f.ctx, c.ID, &MarkStatusInput{Status: "lost"}, f.staff)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	restored, err := f.svc.Circulation.Restore(f.ctx, c.ID, &RestoreInput{Condition: "fair"}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CopyAvailable), restored.Status)
	assert.Equal(t, "fair", restored.Condition)
	_, available = f.counts(book.ID)
	assert.Equal(t, 1, available)

	_, err = f.svc.Circulation.Restore(f.ctx, c.ID, &RestoreInput{}, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestMarkStatus_BorrowedCopyConflicts(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	c := f.copies(book.ID, 1)[0]

	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)

	_, err = f.svc.Circulation.MarkStatus(f.ctx, c.ID, &MarkStatusInput{Status: "lost"}, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.CopyBorrowed, f.status(c.ID))
}

func TestDeactivate(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	copies := f.copies(book.ID, 3)

	require.NoError(t, f.svc.Circulation.Deactivate(f.ctx, copies[0].ID, f.staff))
	total, available := f.counts(book.ID)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, available)

	_, err := f.svc.Circulation.MarkStatus(f.ctx, copies[1].ID, &MarkStatusInput{Status: "damaged"}, f.staff)
	require.NoError(t, err)
	require.NoError(t, f.svc.Circulation.Deactivate(f.ctx, copies[1].ID, f.staff))
	total, available = f.counts(book.ID)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, available)

	_, err = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)
	err = f.svc.Circulation.Deactivate(f.ctx, copies[2].ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)

	err = f.svc.Circulation.Deactivate(f.ctx, copies[0].ID, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Copy numbers are never reused
	added := f.copies(book.ID, 1)
	assert.Equal(t, 4, added[0].CopyNumber)
}

func TestMarkOverdue(t *testing.T) {
	f := newFixture(t)
	book := f.book("Dune")
	f.copies(book.ID, 2)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, Days: 3}, f.staff)
	require.NoError(t, err)
	_, err = f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 12, Days: 30}, f.staff)
	require.NoError(t, err)

	f.advance(4 * 24 * time.Hour)
	n, err := f.svc.Circulation.MarkOverdue(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Circulation.GetLoan(f.ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.LoanOverdue), got.Status)

	n, err = f.svc.Circulation.MarkOverdue(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Overdue loans still return normally
	returned, err := f.svc.Circulation.Return(f.ctx, loan.ID, &ReturnInput{Condition: "good"}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy.LateFeePerDay, returned.LateFee)
}
