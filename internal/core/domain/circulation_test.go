package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	legal := [][2]CopyStatus{
		{CopyAvailable, CopyReserved},
		{CopyAvailable, CopyBorrowed},
		{CopyAvailable, CopyMaintenance},
		{CopyReserved, CopyBorrowed},
		{CopyReserved, CopyAvailable},
		{CopyBorrowed, CopyAvailable},
		{CopyBorrowed, CopyLost},
		{CopyBorrowed, CopyDamaged},
		{CopyLost, CopyAvailable},
		{CopyDamaged, CopyAvailable},
		{CopyMaintenance, CopyAvailable},
	}
	for _, tc := range legal {
		assert.NoError(t, CheckTransition(tc[0], tc[1]), "%s -> %s", tc[0], tc[1])
	}

	illegal := [][2]CopyStatus{
		{CopyReserved, CopyLost},
		{CopyReserved, CopyReserved},
		{CopyBorrowed, CopyReserved},
		{CopyBorrowed, CopyBorrowed},
		{CopyLost, CopyBorrowed},
		{CopyDamaged, CopyReserved},
		{CopyMaintenance, CopyBorrowed},
	}
	for _, tc := range illegal {
		err := CheckTransition(tc[0], tc[1])
		require.Error(t, err, "%s -> %s", tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
}

func TestParseCopyStatus(t *testing.T) {
	s, err := ParseCopyStatus("maintenance")
	require.NoError(t, err)
	assert.Equal(t, CopyMaintenance, s)
	assert.True(t, s.IsOutOfService())
	assert.False(t, CopyReserved.IsOutOfService())

	_, err = ParseCopyStatus("shredded")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailabilityDelta(t *testing.T) {
	assert.Equal(t, -1, AvailabilityDelta(CopyAvailable, CopyReserved))
	assert.Equal(t, -1, AvailabilityDelta(CopyAvailable, CopyBorrowed))
	assert.Equal(t, 0, AvailabilityDelta(CopyReserved, CopyBorrowed))
	assert.Equal(t, 1, AvailabilityDelta(CopyReserved, CopyAvailable))
	assert.Equal(t, 1, AvailabilityDelta(CopyBorrowed, CopyAvailable))
	assert.Equal(t, 0, AvailabilityDelta(CopyBorrowed, CopyDamaged))
	assert.Equal(t, 1, AvailabilityDelta(CopyLost, CopyAvailable))
	assert.Equal(t, 0, AvailabilityDelta(CopyAvailable, CopyAvailable))
}

func TestStatusAfterReturn(t *testing.T) {
	cases := map[Condition]CopyStatus{
		"":               CopyAvailable,
		ConditionGood:    CopyAvailable,
		ConditionPoor:    CopyAvailable,
		ConditionDamaged: CopyDamaged,
		ConditionLost:    CopyLost,
	}
	for cond, want := range cases {
		got, err := StatusAfterReturn(cond)
		require.NoError(t, err)
		assert.Equal(t, want, got, "condition %q", cond)
	}

	_, err := StatusAfterReturn("soggy")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestComputeFees(t *testing.T) {
	due := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	onTime := ComputeFees(due, due.Add(-time.Hour), 5, ConditionGood, 100, 500)
	assert.Zero(t, onTime.Total)

	// 2 days and 1 hour late counts as 3 days
	late := ComputeFees(due, due.Add(49*time.Hour), 5, ConditionGood, 100, 500)
	assert.Equal(t, 15.0, late.LateFee)
	assert.Equal(t, 15.0, late.Total)

	damaged := ComputeFees(due, due.Add(24*time.Hour), 5, ConditionDamaged, 100, 500)
	assert.Equal(t, 5.0, damaged.LateFee)
	assert.Equal(t, 100.0, damaged.DamageFee)
	assert.Equal(t, 105.0, damaged.Total)

	lost := ComputeFees(due, due, 5, ConditionLost, 100, 500)
	assert.Equal(t, 500.0, lost.Total)
}

func TestCoordinateString(t *testing.T) {
	assert.Equal(t, "A-1-2-3", Coordinate{Section: "A", Shelf: 1, Row: 2, Slot: 3}.String())
}

func TestErrorCodes(t *testing.T) {
	wrapped := fmt.Errorf("%w: copy 7 is borrowed", ErrConflict)
	assert.Equal(t, "conflict", Code(wrapped))
	assert.True(t, Retryable(wrapped))

	assert.Equal(t, "capacity_exhausted", Code(ErrCapacityExhausted))
	assert.True(t, Retryable(ErrCapacityExhausted))

	assert.Equal(t, "invalid_transition", Code(ErrInvalidTransition))
	assert.False(t, Retryable(ErrInvalidTransition))
	assert.False(t, Retryable(ErrValidation))

	assert.Equal(t, "not_found", Code(ErrNotFound))
	assert.Equal(t, "internal", Code(errors.New("boom")))
}

func TestRoleIsStaff(t *testing.T) {
	assert.True(t, RoleLibrarian.IsStaff())
	assert.True(t, RoleAdmin.IsStaff())
	assert.False(t, RolePatron.IsStaff())
	assert.True(t, SystemActor.Role.IsStaff())
}
