package services

import (
	"testing"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_FIFOWithShortCount(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	copies := f.copies(book.ID, 2)

	r1 := f.reserve(book.ID, 11, nil)
	f.advance(time.Minute)
	r2 := f.reserve(book.ID, 11, nil)
	f.advance(time.Minute)
	r3 := f.reserve(book.ID, 11, nil)

	result, err := f.svc.Reservations.ApprovePending(f.ctx, book.ID, 11, f.staff)
	require.NoError(t, err)

	assert.Equal(t, 2, result.LoansCreated)
	assert.Equal(t, 2, result.ReservationsProcessed)
	require.Len(t, result.Approved, 2)
	assert.Equal(t, r1.ID, result.Approved[0].ReservationID)
	assert.Equal(t, copies[0].ID, result.Approved[0].CopyID)
	assert.Equal(t, r2.ID, result.Approved[1].ReservationID)
	assert.Equal(t, copies[1].ID, result.Approved[1].CopyID)
	assert.Equal(t, []uint{r3.ID}, result.Pending)
	assert.Empty(t, result.Skipped)

	left, err := f.svc.Reservations.GetReservation(f.ctx, r3.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationPending), left.Status)

	done, err := f.svc.Reservations.GetReservation(f.ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationApproved), done.Status)
	require.NotNil(t, done.LoanID)
	assert.Equal(t, result.Approved[0].LoanID, *done.LoanID)

	total, available := f.counts(book.ID)
	assert.Equal(t, 2, total)
	assert.Equal(t, 0, available)
}

func TestApprove_StartingReservationAndCap(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	f.copies(book.ID, 3)

	r1 := f.reserve(book.ID, 11, nil)
	f.advance(time.Minute)
	r2 := f.reserve(book.ID, 11, nil)
	f.advance(time.Minute)
	r3 := f.reserve(book.ID, 11, nil)

	result, err := f.svc.Reservations.ApproveReservations(f.ctx, &ApproveInput{
		BookID:                book.ID,
		PatronID:              11,
		StartingReservationID: &r2.ID,
		MaxCopies:             1,
	}, f.staff)
	require.NoError(t, err)

	require.Len(t, result.Approved, 1)
	assert.Equal(t, r2.ID, result.Approved[0].ReservationID)
	assert.Equal(t, []uint{r3.ID}, result.Pending)

	first, err := f.svc.Reservations.GetReservation(f.ctx, r1.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationPending), first.Status)
}

func TestApprove_StartingReservationMustMatch(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	f.copies(book.ID, 1)
	other := f.reserve(book.ID, 12, nil)

	_, err := f.svc.Reservations.ApproveReservations(f.ctx, &ApproveInput{
		BookID:                book.ID,
		PatronID:              11,
		StartingReservationID: &other.ID,
	}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestApprove_NothingPending(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	f.copies(book.ID, 1)

	result, err := f.svc.Reservations.ApprovePending(f.ctx, book.ID, 11, f.staff)
	require.NoError(t, err)
	assert.Zero(t, result.LoansCreated)
	assert.Empty(t, result.Approved)
}

func TestReserveCopy_HoldsSpecificCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	copies := f.copies(book.ID, 2)

	r := f.reserve(book.ID, 11, &copies[1].ID)
	assert.Equal(t, string(domain.ReservationSpecificCopy), r.ReservationType)
	assert.True(t, r.CopyHeld)
	require.NotNil(t, r.ExpiresAt)
	assert.Equal(t, f.clock.AddDate(0, 0, DefaultPolicy.HoldDays), *r.ExpiresAt)

	assert.Equal(t, domain.CopyReserved, f.status(copies[1].ID))
	_, available := f.counts(book.ID)
	assert.Equal(t, 1, available)

	// Another patron cannot walk off with the held copy
	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 12, CopyID: &copies[1].ID}, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)

	result, err := f.svc.Reservations.ApprovePending(f.ctx, book.ID, 11, f.staff)
	require.NoError(t, err)
	require.Len(t, result.Approved, 1)
	assert.Equal(t, copies[1].ID, result.Approved[0].CopyID)

	assert.Equal(t, domain.CopyBorrowed, f.status(copies[1].ID))
	_, available = f.counts(book.ID)
	assert.Equal(t, 1, available)

	var event models.CirculationEvent
	require.NoError(t, f.db.Where("event_type = ?", models.EventReservationApproved).First(&event).Error)
	assert.Equal(t, models.TargetPatron, event.TargetType)
	assert.Equal(t, uint(11), event.TargetID)
}

func TestReserveCopy_AlreadyHeldWaitsForApproval(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	c := f.copies(book.ID, 1)[0]

	first := f.reserve(book.ID, 11, &c.ID)
	require.True(t, first.CopyHeld)

	// The copy is already held: the second reservation queues unheld
	second := f.reserve(book.ID, 12, &c.ID)
	assert.Equal(t, string(domain.ReservationPending), second.Status)
	assert.Equal(t, string(domain.ReservationSpecificCopy), second.ReservationType)
	assert.False(t, second.CopyHeld)
	require.NotNil(t, second.CopyID)
	assert.Equal(t, c.ID, *second.CopyID)

	assert.Equal(t, domain.CopyReserved, f.status(c.ID))
	_, available := f.counts(book.ID)
	assert.Equal(t, 0, available)

	// Approval for the second patron finds the copy taken and skips it
	result, err := f.svc.Reservations.ApprovePending(f.ctx, book.ID, 12, f.staff)
	require.NoError(t, err)
	assert.Empty(t, result.Approved)
	assert.Equal(t, []uint{second.ID}, result.Skipped)
}

func TestCheckout_HolderApprovesOwnReservation(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	c := f.copies(book.ID, 1)[0]
	r := f.reserve(book.ID, 11, &c.ID)

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, CopyID: &c.ID}, f.staff)
	require.NoError(t, err)
	require.NotNil(t, loan.ReservationID)
	assert.Equal(t, r.ID, *loan.ReservationID)

	got, err := f.svc.Reservations.GetReservation(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationApproved), got.Status)
	assert.False(t, got.CopyHeld)
}

func TestApprove_UnavailableSpecificCopyIsSkipped(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	copies := f.copies(book.ID, 2)

	_, err := f.svc.Circulation.MarkStatus(f.ctx, copies[0].ID, &MarkStatusInput{Status: "damaged"}, f.staff)
	require.NoError(t, err)

	r := f.reserve(book.ID, 11, &copies[0].ID)
	assert.False(t, r.CopyHeld)

	result, err := f.svc.Reservations.ApprovePending(f.ctx, book.ID, 11, f.staff)
	require.NoError(t, err)
	assert.Zero(t, result.LoansCreated)
	assert.Equal(t, []uint{r.ID}, result.Skipped)

	got, err := f.svc.Reservations.GetReservation(f.ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationPending), got.Status)
	assert.Equal(t, domain.CopyAvailable, f.status(copies[1].ID))
}

func TestDecline_ReleasesHeldCopy(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	c := f.copies(book.ID, 1)[0]
	r := f.reserve(book.ID, 11, &c.ID)

	_, err := f.svc.Reservations.Decline(f.ctx, r.ID, &DeclineInput{}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)

	declined, err := f.svc.Reservations.Decline(f.ctx, r.ID, &DeclineInput{Reason: "patron account suspended"}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationDeclined), declined.Status)
	assert.Equal(t, "patron account suspended", declined.DeclineReason)
	assert.False(t, declined.CopyHeld)

	assert.Equal(t, domain.CopyAvailable, f.status(c.ID))
	_, available := f.counts(book.ID)
	assert.Equal(t, 1, available)

	_, err = f.svc.Reservations.Decline(f.ctx, r.ID, &DeclineInput{Reason: "again"}, f.staff)
	assert.ErrorIs(t, err, domain.ErrConflict)

	var count int64
	require.NoError(t, f.db.Model(&models.CirculationEvent{}).Where("event_type = ?", models.EventReservationDeclined).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCancel_OnlyOwnerOrStaff(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	f.copies(book.ID, 1)
	r := f.reserve(book.ID, 11, nil)

	_, err := f.svc.Reservations.Cancel(f.ctx, r.ID, domain.Actor{ID: 12, Role: domain.RolePatron})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	cancelled, err := f.svc.Reservations.Cancel(f.ctx, r.ID, domain.Actor{ID: 11, Role: domain.RolePatron})
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationCancelled), cancelled.Status)
}

func TestExpireStale(t *testing.T) {
	f := newFixture(t)
	book := f.book("Middlemarch")
	copies := f.copies(book.ID, 2)

	held := f.reserve(book.ID, 11, &copies[0].ID)
	f.advance(48 * time.Hour)
	fresh := f.reserve(book.ID, 12, nil)

	f.advance(25 * time.Hour)
	n, err := f.svc.Reservations.ExpireStale(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Reservations.GetReservation(f.ctx, held.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationExpired), got.Status)
	assert.Equal(t, domain.CopyAvailable, f.status(copies[0].ID))

	still, err := f.svc.Reservations.GetReservation(f.ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.ReservationPending), still.Status)

	_, available := f.counts(book.ID)
	assert.Equal(t, 2, available)
}
