package services

import (
	"testing"

	"library-circulation/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileBook_CorrectsDrift(t *testing.T) {
	f := newFixture(t)
	book := f.book("Ulysses")
	f.copies(book.ID, 3)

	require.NoError(t, f.svc.Store.Books.SetCounts(f.ctx, book.ID, 7, 1))

	result, err := f.svc.Reconcile.ReconcileBook(f.ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.Equal(t, 7, result.TotalBefore)
	assert.Equal(t, 1, result.AvailableBefore)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Available)

	total, available := f.counts(book.ID)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, available)

	again, err := f.svc.Reconcile.ReconcileBook(f.ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestReconcileBook_IgnoresDeactivatedAndCountsStatus(t *testing.T) {
	f := newFixture(t)
	book := f.book("Ulysses")
	copies := f.copies(book.ID, 3)

	require.NoError(t, f.svc.Circulation.Deactivate(f.ctx, copies[0].ID, f.staff))
	_, err := f.svc.Circulation.MarkStatus(f.ctx, copies[1].ID, &MarkStatusInput{Status: "maintenance"}, f.staff)
	require.NoError(t, err)

	result, err := f.svc.Reconcile.ReconcileBook(f.ctx, book.ID)
	require.NoError(t, err)
	assert.False(t, result.Changed)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Available)
}

func TestReconcileBook_UnknownBook(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Reconcile.ReconcileBook(f.ctx, 4242)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	clean := f.book("Clean")
	f.copies(clean.ID, 2)
	drifted := f.book("Drifted")
	f.copies(drifted.ID, 2)
	empty := f.book("Empty")

	require.NoError(t, f.svc.Store.Books.SetCounts(f.ctx, drifted.ID, 2, 0))
	require.NoError(t, f.svc.Store.Books.SetCounts(f.ctx, empty.ID, 1, 1))

	summary, err := f.svc.Reconcile.ReconcileAll(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Checked)
	assert.EqualValues(t, 2, summary.Corrected)

	total, available := f.counts(drifted.ID)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, available)

	total, available = f.counts(empty.ID)
	assert.Zero(t, total)
	assert.Zero(t, available)
}

func TestReturn_GuardMissRecounts(t *testing.T) {
	f := newFixture(t)
	book := f.book("Ulysses")
	f.copies(book.ID, 2)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)

	// Counters claim every copy is on the shelf, so +1 available would
	// overflow the total
	require.NoError(t, f.svc.Store.Books.SetCounts(f.ctx, book.ID, 3, 3))

	_, err = f.svc.Circulation.Return(f.ctx, loan.ID, &ReturnInput{Condition: "good"}, f.staff)
	require.NoError(t, err)

	total, available := f.counts(book.ID)
	assert.Equal(t, 2, total)
	assert.Equal(t, 2, available)
}

func TestGetBook_ReconcilesBeforeRead(t *testing.T) {
	f := newFixture(t)
	book := f.book("Ulysses")
	f.copies(book.ID, 2)
	require.NoError(t, f.svc.Store.Books.SetCounts(f.ctx, book.ID, 0, 0))

	got, err := f.svc.Reconcile.GetBook(f.ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalCopies)
	assert.Equal(t, 2, got.AvailableCopies)
}
