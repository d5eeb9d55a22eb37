package domain

import (
	"fmt"
	"time"
)

// Role represents user role in the system
type Role string

const (
	RolePatron    Role = "PATRON"
	RoleLibrarian Role = "LIBRARIAN"
	RoleAdmin     Role = "ADMIN"
)

// IsStaff returns true for roles allowed to run circulation desk actions
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// Actor is the authenticated caller, supplied by the identity provider.
// The zero value is the system itself (cron jobs, CLI).
type Actor struct {
	ID        uint
	Role      Role
	IPAddress string
}

// SystemActor is used by scheduled jobs
var SystemActor = Actor{Role: RoleAdmin}

// Coordinate is a physical storage address inside a section
type Coordinate struct {
	Section string `json:"section"`
	Shelf   int    `json:"shelf"`
	Row     int    `json:"row"`
	Slot    int    `json:"slot"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s-%d-%d-%d", c.Section, c.Shelf, c.Row, c.Slot)
}

// Condition is the physical condition recorded on a copy
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
	ConditionDamaged Condition = "damaged"
	ConditionLost    Condition = "lost"
)

// ReservationStatus is the lifecycle state of a reservation
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationApproved  ReservationStatus = "approved"
	ReservationDeclined  ReservationStatus = "declined"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
)

// IsTerminal returns true once a reservation can no longer change
func (s ReservationStatus) IsTerminal() bool {
	return s != ReservationPending
}

// ReservationType tells the converter whether any copy will do
type ReservationType string

const (
	ReservationAnyCopy      ReservationType = "any_copy"
	ReservationSpecificCopy ReservationType = "specific_copy"
)

// LoanStatus is the lifecycle state of a borrow record
type LoanStatus string

const (
	LoanBorrowed LoanStatus = "borrowed"
	LoanOverdue  LoanStatus = "overdue"
	LoanReturned LoanStatus = "returned"
)

// IsOpen returns true while the copy is out with the patron
func (s LoanStatus) IsOpen() bool {
	return s == LoanBorrowed || s == LoanOverdue
}

// OpenLoanStatuses lists statuses that count as an open loan
var OpenLoanStatuses = []string{string(LoanBorrowed), string(LoanOverdue)}

// Fees recorded on a returned loan. Fees are never charged here.
type Fees struct {
	LateFee   float64 `json:"late_fee"`
	DamageFee float64 `json:"damage_fee"`
	Total     float64 `json:"total"`
}

// ComputeFees calculates fees for a return at returnedAt. Overdue days are
// counted in started 24h periods past the due date.
func ComputeFees(dueDate, returnedAt time.Time, perDay float64, condition Condition, damageFee, lostFee float64) Fees {
	var fees Fees
	if returnedAt.After(dueDate) {
		late := returnedAt.Sub(dueDate)
		days := int(late / (24 * time.Hour))
		if late%(24*time.Hour) > 0 {
			days++
		}
		fees.LateFee = float64(days) * perDay
	}
	switch condition {
	case ConditionDamaged:
		fees.DamageFee = damageFee
	case ConditionLost:
		fees.DamageFee = lostFee
	}
	fees.Total = fees.LateFee + fees.DamageFee
	return fees
}
