package services

import (
	"testing"
	"time"

	"library-circulation/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureSection(t *testing.T) {
	f := newFixture(t)
	admin := domain.Actor{ID: 1, Role: domain.RoleAdmin}

	grid, err := f.svc.Master.ConfigureSection(f.ctx, &SectionInput{Section: "c", ShelfCount: 2, RowsPerShelf: 2, SlotsPerRow: 5}, admin)
	require.NoError(t, err)
	assert.Equal(t, "C", grid.SectionCode)

	book := f.book("Emma")
	_, err = f.svc.Copies.AddCopies(f.ctx, book.ID, &AddCopiesInput{Count: 1, Location: at("C", 2, 2, 5)}, f.staff)
	require.NoError(t, err)

	_, err = f.svc.Master.ConfigureSection(f.ctx, &SectionInput{Section: "C", ShelfCount: 2, RowsPerShelf: 2, SlotsPerRow: 4}, admin)
	assert.ErrorIs(t, err, domain.ErrConflict)

	grid, err = f.svc.Master.ConfigureSection(f.ctx, &SectionInput{Section: "C", ShelfCount: 3, RowsPerShelf: 2, SlotsPerRow: 5, Description: "Fiction"}, admin)
	require.NoError(t, err)
	assert.Equal(t, 3, grid.ShelfCount)
	assert.Equal(t, "Fiction", grid.Description)

	_, err = f.svc.Master.ConfigureSection(f.ctx, &SectionInput{Section: "C", ShelfCount: 0, RowsPerShelf: 2, SlotsPerRow: 5}, admin)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSaveCategory(t *testing.T) {
	f := newFixture(t)
	f.grid("A", 2, 3, 5)

	category, err := f.svc.Master.SaveCategory(f.ctx, &CategoryInput{Code: "ref", Name: "Reference", Location: *at("a", 2, 1, 1)}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, "REF", category.Code)
	assert.Equal(t, "A-2-1-1", category.DefaultCoordinate().String())

	updated, err := f.svc.Master.SaveCategory(f.ctx, &CategoryInput{Code: "REF", Name: "Reference Desk", Location: *at("A", 1, 1, 1)}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, category.ID, updated.ID)

	_, err = f.svc.Master.SaveCategory(f.ctx, &CategoryInput{Code: "X", Name: "Nowhere", Location: *at("Q", 1, 1, 1)}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.Master.SaveCategory(f.ctx, &CategoryInput{Code: "X", Name: "Too far", Location: *at("A", 1, 1, 6)}, f.staff)
	assert.ErrorIs(t, err, domain.ErrValidation)

	categories, err := f.svc.Master.ListCategories(f.ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestUpdateSetting_ChangesLoanPeriod(t *testing.T) {
	f := newFixture(t)
	book := f.book("Emma")
	f.copies(book.ID, 1)

	assert.ErrorIs(t, f.svc.Master.UpdateSetting(f.ctx, "colour", "blue", f.staff), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Master.UpdateSetting(f.ctx, SettingBorrowDays, "many", f.staff), domain.ErrValidation)
	assert.ErrorIs(t, f.svc.Master.UpdateSetting(f.ctx, SettingLateFeePerDay, "-1", f.staff), domain.ErrValidation)
	require.NoError(t, f.svc.Master.UpdateSetting(f.ctx, SettingBorrowDays, "7", f.staff))

	loan, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11}, f.staff)
	require.NoError(t, err)
	assert.Equal(t, f.clock.AddDate(0, 0, 7), loan.DueDate)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)
	f.svc.Dashboard.now = func() time.Time { return f.clock }
	book := f.book("Emma")
	copies := f.copies(book.ID, 3)

	_, err := f.svc.Circulation.Checkout(f.ctx, &CheckoutInput{BookID: book.ID, PatronID: 11, CopyID: &copies[0].ID}, f.staff)
	require.NoError(t, err)
	f.reserve(book.ID, 12, &copies[1].ID)

	data, err := f.svc.Dashboard.GetDashboard(f.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, data.TotalBooks)
	assert.EqualValues(t, 3, data.ActiveCopies)
	assert.EqualValues(t, 1, data.CopiesByStatus[string(domain.CopyBorrowed)])
	assert.EqualValues(t, 1, data.CopiesByStatus[string(domain.CopyReserved)])
	assert.EqualValues(t, 1, data.CopiesByStatus[string(domain.CopyAvailable)])
	assert.EqualValues(t, 3, data.UnshelvedCopies)
	assert.EqualValues(t, 1, data.OpenLoans)
	assert.EqualValues(t, 1, data.PendingReservations)
	assert.EqualValues(t, 1, data.HeldCopies)
	assert.EqualValues(t, 1, data.LoansThisMonth)
	require.Len(t, data.RecentLoans, 1)
	assert.Equal(t, "Emma", data.RecentLoans[0].Title)
	assert.Equal(t, copies[0].Barcode, data.RecentLoans[0].Barcode)
}
