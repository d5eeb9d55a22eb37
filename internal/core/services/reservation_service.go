package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/domain"
)

// ReservationService turns pending reservations into loans
type ReservationService struct {
	store *repositories.Store
	circ  *CirculationService
}

// NewReservationService creates a new reservation service
func NewReservationService(store *repositories.Store, circ *CirculationService) *ReservationService {
	return &ReservationService{store: store, circ: circ}
}

// ReserveInput represents a patron reservation request
type ReserveInput struct {
	BookID   uint  `json:"book_id" validate:"required"`
	PatronID uint  `json:"patron_id" validate:"required"`
	CopyID   *uint `json:"copy_id,omitempty"`
}

// ReserveCopy creates a pending reservation. When a specific copy is named
// and currently available it is held right away; otherwise availability is
// checked at approval time.
func (s *ReservationService) ReserveCopy(ctx context.Context, input *ReserveInput, actor domain.Actor) (reservation *models.Reservation, err error) {
	defer observe("reserve_copy", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	policy := s.circ.Policy(ctx)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Books.GetByID(ctx, input.BookID); err != nil {
			return notFound(err, "book", input.BookID)
		}

		now := s.circ.now()
		reservation = &models.Reservation{
			BookID:          input.BookID,
			PatronID:        input.PatronID,
			ReservationType: string(domain.ReservationAnyCopy),
			Status:          string(domain.ReservationPending),
			ReservedAt:      now,
		}
		if policy.HoldDays > 0 {
			expires := now.AddDate(0, 0, policy.HoldDays)
			reservation.ExpiresAt = &expires
		}

		var target *models.BookCopy
		if input.CopyID != nil {
			var err error
			// Locked so a concurrent hold is seen committed and this
			// reservation falls back to waiting for approval
			target, err = tx.Copies.GetForUpdate(ctx, *input.CopyID)
			if err != nil {
				return notFound(err, "copy", *input.CopyID)
			}
			if target.BookID != input.BookID {
				return fmt.Errorf("%w: copy %d does not belong to book %d", domain.ErrValidation, target.ID, input.BookID)
			}
			if !target.IsActive {
				return fmt.Errorf("%w: copy %d is deactivated", domain.ErrConflict, target.ID)
			}
			reservation.ReservationType = string(domain.ReservationSpecificCopy)
			reservation.CopyID = &target.ID
		}

		if err := tx.Reservations.Create(ctx, reservation); err != nil {
			return storeErr(err)
		}

		if target != nil && target.CopyStatus() == domain.CopyAvailable {
			if _, err := s.circ.reserveTx(ctx, tx, fx, target.ID, reservation, actor); err != nil {
				return err
			}
		}

		fx.audit("reserve_copy", "reservation", reservation.ID, actor, map[string]interface{}{
			"book_id": input.BookID,
			"copy_id": input.CopyID,
		})
		return queueEvent(ctx, tx, fx, models.EventReservationCreated, models.TargetStaff, 0,
			reservationCreatedMessage(reservation.ID, reservation.BookID),
			map[string]interface{}{
				"reservation_id": reservation.ID,
				"book_id":        reservation.BookID,
				"patron_id":      reservation.PatronID,
				"copy_id":        reservation.CopyID,
			})
	})
	if err != nil {
		return nil, err
	}

	s.circ.hooks.flush(ctx, fx)
	return reservation, nil
}

// ApproveInput represents a batch approval request
type ApproveInput struct {
	BookID   uint `json:"book_id" validate:"required"`
	PatronID uint `json:"patron_id" validate:"required"`
	// StartingReservationID skips reservations queued before it
	StartingReservationID *uint `json:"starting_reservation_id,omitempty"`
	// MaxCopies caps the loans created, 0 means no cap
	MaxCopies int `json:"max_copies,omitempty" validate:"min=0,max=100"`
}

// ApprovedPair is one reservation bound to a copy and loan
type ApprovedPair struct {
	ReservationID uint      `json:"reservation_id"`
	CopyID        uint      `json:"copy_id"`
	LoanID        uint      `json:"loan_id"`
	DueDate       time.Time `json:"due_date"`
}

// ApproveResult reports a batch approval. Reservations that could not be
// matched stay pending and are listed in Pending.
type ApproveResult struct {
	ReservationsProcessed int            `json:"reservations_processed"`
	LoansCreated          int            `json:"loans_created"`
	Approved              []ApprovedPair `json:"approved"`
	Skipped               []uint         `json:"skipped"`
	Pending               []uint         `json:"pending"`
}

// ApprovePending approves every pending reservation of a (book, patron) pair
// as far as available copies allow.
func (s *ReservationService) ApprovePending(ctx context.Context, bookID, patronID uint, actor domain.Actor) (*ApproveResult, error) {
	return s.ApproveReservations(ctx, &ApproveInput{BookID: bookID, PatronID: patronID}, actor)
}

// ApproveReservations pairs pending reservations, oldest first, with
// available copies in copy number order and checks each pair out. The whole
// batch commits or rolls back together. Running out of copies is not an
// error: the rest stay pending.
func (s *ReservationService) ApproveReservations(ctx context.Context, input *ApproveInput, actor domain.Actor) (result *ApproveResult, err error) {
	defer observe("approve_reservations", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	policy := s.circ.Policy(ctx)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		result = &ApproveResult{Approved: []ApprovedPair{}, Skipped: []uint{}, Pending: []uint{}}

		query := repositories.PendingQuery{BookID: input.BookID, PatronID: input.PatronID}
		if input.StartingReservationID != nil {
			start, err := tx.Reservations.GetForUpdate(ctx, *input.StartingReservationID)
			if err != nil {
				return notFound(err, "reservation", *input.StartingReservationID)
			}
			if start.BookID != input.BookID || start.PatronID != input.PatronID {
				return fmt.Errorf("%w: reservation %d is not for book %d and patron %d",
					domain.ErrValidation, start.ID, input.BookID, input.PatronID)
			}
			if domain.ReservationStatus(start.Status) != domain.ReservationPending {
				return fmt.Errorf("%w: reservation %d is %s", domain.ErrConflict, start.ID, start.Status)
			}
			query.From = start
		}

		pending, err := tx.Reservations.ListPendingForUpdate(ctx, query)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return nil
		}

		exclude, err := tx.Loans.OpenCopyIDs(ctx, input.BookID, input.PatronID)
		if err != nil {
			return err
		}
		available, err := tx.Copies.ListAvailableForUpdate(ctx, input.BookID, exclude)
		if err != nil {
			return err
		}
		availableByID := make(map[uint]bool, len(available))
		for _, c := range available {
			availableByID[c.ID] = true
		}
		claimed := make(map[uint]bool)
		next := 0

		for _, reservation := range pending {
			if input.MaxCopies > 0 && result.LoansCreated >= input.MaxCopies {
				result.Pending = append(result.Pending, reservation.ID)
				continue
			}

			var copyID uint
			switch {
			case reservation.CopyID != nil && reservation.CopyHeld:
				copyID = *reservation.CopyID
			case reservation.CopyID != nil:
				// Specific copy must still be on the shelf and unclaimed
				if !availableByID[*reservation.CopyID] || claimed[*reservation.CopyID] {
					result.Skipped = append(result.Skipped, reservation.ID)
					continue
				}
				copyID = *reservation.CopyID
			default:
				for next < len(available) && claimed[available[next].ID] {
					next++
				}
				if next == len(available) {
					result.Pending = append(result.Pending, reservation.ID)
					continue
				}
				copyID = available[next].ID
				next++
			}

			loan, err := s.circ.checkoutTx(ctx, tx, fx, checkoutArgs{
				bookID:        input.BookID,
				patronID:      input.PatronID,
				copyID:        &copyID,
				reservationID: &reservation.ID,
				days:          policy.BorrowDays,
				actor:         actor,
			})
			if err != nil {
				return err
			}
			if err := s.circ.approveTx(ctx, tx, fx, reservation, copyID, loan, actor); err != nil {
				return err
			}
			claimed[copyID] = true

			result.Approved = append(result.Approved, ApprovedPair{
				ReservationID: reservation.ID,
				CopyID:        copyID,
				LoanID:        loan.ID,
				DueDate:       loan.DueDate,
			})
			result.LoansCreated++
		}
		result.ReservationsProcessed = len(result.Approved)

		fx.audit("approve_reservations", "book", input.BookID, actor, map[string]interface{}{
			"patron_id": input.PatronID,
			"approved":  result.LoansCreated,
			"skipped":   len(result.Skipped),
			"pending":   len(result.Pending),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	reservationsProcessed.WithLabelValues("approved").Add(float64(result.LoansCreated))
	reservationsProcessed.WithLabelValues("skipped").Add(float64(len(result.Skipped)))
	reservationsProcessed.WithLabelValues("pending").Add(float64(len(result.Pending)))
	s.circ.hooks.flush(ctx, fx)
	return result, nil
}

// DeclineInput represents a staff decline
type DeclineInput struct {
	Reason string `json:"reason" validate:"required,max=255"`
}

// Decline ends a pending reservation and releases a held copy
func (s *ReservationService) Decline(ctx context.Context, id uint, input *DeclineInput, actor domain.Actor) (reservation *models.Reservation, err error) {
	defer observe("decline", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	return s.finish(ctx, id, domain.ReservationDeclined, input.Reason, actor)
}

// Cancel ends a pending reservation on the patron's request. Patrons may
// only cancel their own reservations.
func (s *ReservationService) Cancel(ctx context.Context, id uint, actor domain.Actor) (reservation *models.Reservation, err error) {
	defer observe("cancel", time.Now(), &err)
	return s.finish(ctx, id, domain.ReservationCancelled, "", actor)
}

// ExpireStale expires pending reservations whose hold window has passed
func (s *ReservationService) ExpireStale(ctx context.Context) (count int, err error) {
	defer observe("expire_reservations", time.Now(), &err)

	expired, err := s.store.Reservations.ListExpired(ctx, s.circ.now(), 500)
	if err != nil {
		return 0, err
	}
	for _, r := range expired {
		if _, err := s.finish(ctx, r.ID, domain.ReservationExpired, "", domain.SystemActor); err != nil {
			log.Printf("❌ Expire reservation %d error: %v", r.ID, err)
			continue
		}
		count++
	}
	if count > 0 {
		log.Printf("⌛ Expired %d reservations", count)
	}
	return count, nil
}

func (s *ReservationService) finish(ctx context.Context, id uint, status domain.ReservationStatus, reason string, actor domain.Actor) (*models.Reservation, error) {
	var reservation *models.Reservation
	fx := &effects{}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		reservation, err = tx.Reservations.GetForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "reservation", id)
		}
		if status == domain.ReservationCancelled && !actor.Role.IsStaff() && reservation.PatronID != actor.ID {
			return fmt.Errorf("%w: reservation %d belongs to another patron", domain.ErrForbidden, id)
		}
		if domain.ReservationStatus(reservation.Status).IsTerminal() {
			return fmt.Errorf("%w: reservation %d is already %s", domain.ErrConflict, id, reservation.Status)
		}
		if status == domain.ReservationExpired && (reservation.ExpiresAt == nil || !reservation.ExpiresAt.Before(s.circ.now())) {
			return fmt.Errorf("%w: reservation %d has not expired", domain.ErrConflict, id)
		}

		if reservation.CopyHeld && reservation.CopyID != nil {
			note := fmt.Sprintf("reservation #%d %s", reservation.ID, status)
			if _, err := s.circ.releaseTx(ctx, tx, fx, *reservation.CopyID, &reservation.ID, note, actor); err != nil {
				return err
			}
		}

		updates := map[string]interface{}{"copy_held": false}
		if reason != "" {
			updates["decline_reason"] = reason
		}
		ok, err := tx.Reservations.Finish(ctx, reservation.ID, status, updates)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reservation %d is no longer pending", domain.ErrConflict, id)
		}
		reservation.Status = string(status)
		reservation.CopyHeld = false
		reservation.DeclineReason = reason

		fx.audit(string(status), "reservation", reservation.ID, actor, map[string]interface{}{"reason": reason})

		switch status {
		case domain.ReservationDeclined:
			return queueEvent(ctx, tx, fx, models.EventReservationDeclined, models.TargetPatron, reservation.PatronID,
				reservationDeclinedMessage(reservation.ID, reason),
				map[string]interface{}{"reservation_id": reservation.ID, "reason": reason})
		case domain.ReservationExpired:
			return queueEvent(ctx, tx, fx, models.EventReservationExpired, models.TargetPatron, reservation.PatronID,
				reservationExpiredMessage(reservation.ID),
				map[string]interface{}{"reservation_id": reservation.ID})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.circ.hooks.flush(ctx, fx)
	return reservation, nil
}

// GetReservation gets a reservation by ID
func (s *ReservationService) GetReservation(ctx context.Context, id uint) (*models.Reservation, error) {
	reservation, err := s.store.Reservations.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	return reservation, nil
}

// ListReservations lists a patron's reservations
func (s *ReservationService) ListReservations(ctx context.Context, patronID uint, offset, limit int) ([]*models.Reservation, int64, error) {
	return s.store.Reservations.ListByPatron(ctx, patronID, offset, limit)
}
