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

// CirculationService is the copy state machine. Every status change locks the
// copy row, checks the transition table, swaps the status, adjusts the
// catalog counters and appends a history row in one transaction.
type CirculationService struct {
	store    *repositories.Store
	settings Settings
	policy   Policy
	hooks    hooks
	now      func() time.Time
}

// NewCirculationService creates a new circulation service
func NewCirculationService(
	store *repositories.Store,
	settings Settings,
	policy Policy,
	outbox *OutboxService,
	auditor Auditor,
	receipts ReceiptRenderer,
) *CirculationService {
	return &CirculationService{
		store:    store,
		settings: settings,
		policy:   policy,
		hooks:    hooks{auditor: auditor, receipts: receipts, outbox: outbox},
		now:      time.Now,
	}
}

// WithClock replaces the time source
func (s *CirculationService) WithClock(now func() time.Time) *CirculationService {
	s.now = now
	return s
}

// Policy returns the policy currently in effect
func (s *CirculationService) Policy(ctx context.Context) Policy {
	return ResolvePolicy(ctx, s.settings, s.policy)
}

// move describes one requested copy status change
type move struct {
	copyID        uint
	from          []domain.CopyStatus
	to            domain.CopyStatus
	txType        string
	note          string
	loanID        *uint
	reservationID *uint
	actor         domain.Actor
}

// transition applies m inside tx. A copy whose current status is not in
// m.from yields domain.ErrConflict.
func (s *CirculationService) transition(ctx context.Context, tx *repositories.Store, fx *effects, m move) (*models.BookCopy, error) {
	bookCopy, err := tx.Copies.GetForUpdate(ctx, m.copyID)
	if err != nil {
		return nil, notFound(err, "copy", m.copyID)
	}
	if !bookCopy.IsActive {
		return nil, fmt.Errorf("%w: copy %d is deactivated", domain.ErrConflict, bookCopy.ID)
	}

	current := bookCopy.CopyStatus()
	if !containsStatus(m.from, current) {
		return nil, fmt.Errorf("%w: copy %d is %s, want one of %v", domain.ErrConflict, bookCopy.ID, current, m.from)
	}
	if err := domain.CheckTransition(current, m.to); err != nil {
		return nil, err
	}

	swapped, err := tx.Copies.CompareAndSetStatus(ctx, bookCopy.ID, []domain.CopyStatus{current}, m.to)
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, fmt.Errorf("%w: copy %d changed concurrently", domain.ErrConflict, bookCopy.ID)
	}

	if err := s.adjustCounts(ctx, tx, bookCopy.BookID, 0, domain.AvailabilityDelta(current, m.to)); err != nil {
		return nil, err
	}

	if err := tx.History.Create(ctx, &models.CopyTransaction{
		CopyID:          bookCopy.ID,
		BookID:          bookCopy.BookID,
		TransactionType: m.txType,
		FromStatus:      string(current),
		ToStatus:        string(m.to),
		LoanID:          m.loanID,
		ReservationID:   m.reservationID,
		Note:            m.note,
		PerformedBy:     actorID(m.actor),
		IPAddress:       m.actor.IPAddress,
	}); err != nil {
		return nil, err
	}

	fx.moves = append(fx.moves, moveRecord{from: current, to: m.to, txType: m.txType})
	bookCopy.Status = string(m.to)
	return bookCopy, nil
}

// adjustCounts applies counter deltas, recounting from the registry when the
// guarded update is refused.
func (s *CirculationService) adjustCounts(ctx context.Context, tx *repositories.Store, bookID uint, totalDelta, availableDelta int) error {
	if totalDelta == 0 && availableDelta == 0 {
		return nil
	}
	ok, err := tx.Books.AdjustCounts(ctx, bookID, totalDelta, availableDelta)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	counterGuardMisses.Inc()
	log.Printf("⚠️ Counter guard refused book %d (total %+d, available %+d), recounting", bookID, totalDelta, availableDelta)
	_, err = reconcileBook(ctx, tx, bookID)
	return err
}

// ============================================================
// Reserve / Release
// ============================================================

// Reserve holds an available copy for a pending reservation
func (s *CirculationService) Reserve(ctx context.Context, copyID, reservationID uint, actor domain.Actor) (bookCopy *models.BookCopy, err error) {
	defer observe("reserve", time.Now(), &err)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		reservation, err := tx.Reservations.GetForUpdate(ctx, reservationID)
		if err != nil {
			return notFound(err, "reservation", reservationID)
		}
		if domain.ReservationStatus(reservation.Status) != domain.ReservationPending {
			return fmt.Errorf("%w: reservation %d is %s", domain.ErrConflict, reservation.ID, reservation.Status)
		}
		if reservation.CopyHeld {
			return fmt.Errorf("%w: reservation %d already holds a copy", domain.ErrConflict, reservation.ID)
		}
		if reservation.CopyID != nil && *reservation.CopyID != copyID {
			return fmt.Errorf("%w: reservation %d is for copy %d", domain.ErrConflict, reservation.ID, *reservation.CopyID)
		}

		bookCopy, err = s.reserveTx(ctx, tx, fx, copyID, reservation, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return bookCopy, nil
}

// reserveTx moves a copy to reserved and binds it to the reservation
func (s *CirculationService) reserveTx(ctx context.Context, tx *repositories.Store, fx *effects, copyID uint, reservation *models.Reservation, actor domain.Actor) (*models.BookCopy, error) {
	target, err := tx.Copies.GetByID(ctx, copyID)
	if err != nil {
		return nil, notFound(err, "copy", copyID)
	}
	if target.BookID != reservation.BookID {
		return nil, fmt.Errorf("%w: copy %d does not belong to book %d", domain.ErrValidation, copyID, reservation.BookID)
	}

	bookCopy, err := s.transition(ctx, tx, fx, move{
		copyID:        copyID,
		from:          []domain.CopyStatus{domain.CopyAvailable},
		to:            domain.CopyReserved,
		txType:        domain.TxReserve,
		note:          fmt.Sprintf("held for reservation #%d", reservation.ID),
		reservationID: &reservation.ID,
		actor:         actor,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Reservations.Hold(ctx, reservation.ID, copyID); err != nil {
		return nil, err
	}
	reservation.CopyID = &bookCopy.ID
	reservation.CopyHeld = true

	fx.audit("reserve", "copy", bookCopy.ID, actor, map[string]interface{}{"reservation_id": reservation.ID})
	return bookCopy, nil
}

// Release returns a reserved copy to the shelf
func (s *CirculationService) Release(ctx context.Context, copyID uint, actor domain.Actor) (bookCopy *models.BookCopy, err error) {
	defer observe("release", time.Now(), &err)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookCopy, err = s.releaseTx(ctx, tx, fx, copyID, nil, "released by staff", actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return bookCopy, nil
}

func (s *CirculationService) releaseTx(ctx context.Context, tx *repositories.Store, fx *effects, copyID uint, reservationID *uint, note string, actor domain.Actor) (*models.BookCopy, error) {
	bookCopy, err := s.transition(ctx, tx, fx, move{
		copyID:        copyID,
		from:          []domain.CopyStatus{domain.CopyReserved},
		to:            domain.CopyAvailable,
		txType:        domain.TxRelease,
		note:          note,
		reservationID: reservationID,
		actor:         actor,
	})
	if err != nil {
		return nil, err
	}
	if err := tx.Reservations.ClearHolds(ctx, copyID); err != nil {
		return nil, err
	}
	fx.audit("release", "copy", copyID, actor, nil)
	return bookCopy, nil
}

// ============================================================
// Checkout / Return
// ============================================================

// CheckoutInput represents a direct checkout request
type CheckoutInput struct {
	BookID   uint  `json:"book_id" validate:"required"`
	PatronID uint  `json:"patron_id" validate:"required"`
	CopyID   *uint `json:"copy_id,omitempty"`
	Days     int   `json:"days,omitempty" validate:"omitempty,min=1,max=365"`
}

// checkoutArgs is the transaction-scoped checkout request
type checkoutArgs struct {
	bookID        uint
	patronID      uint
	copyID        *uint
	reservationID *uint
	days          int
	actor         domain.Actor
}

// Checkout lends a copy to a patron. Without a copy ID the first available
// copy by copy number is taken.
func (s *CirculationService) Checkout(ctx context.Context, input *CheckoutInput, actor domain.Actor) (loan *models.Loan, err error) {
	defer observe("checkout", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	days := input.Days
	if days == 0 {
		days = s.Policy(ctx).BorrowDays
	}

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		loan, err = s.checkoutTx(ctx, tx, fx, checkoutArgs{
			bookID:   input.BookID,
			patronID: input.PatronID,
			copyID:   input.CopyID,
			days:     days,
			actor:    actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return loan, nil
}

func (s *CirculationService) checkoutTx(ctx context.Context, tx *repositories.Store, fx *effects, args checkoutArgs) (*models.Loan, error) {
	if _, err := tx.Books.GetByID(ctx, args.bookID); err != nil {
		return nil, notFound(err, "book", args.bookID)
	}

	var copyID uint
	if args.copyID != nil {
		copyID = *args.copyID
	} else {
		exclude, err := tx.Loans.OpenCopyIDs(ctx, args.bookID, args.patronID)
		if err != nil {
			return nil, err
		}
		available, err := tx.Copies.ListAvailableForUpdate(ctx, args.bookID, exclude)
		if err != nil {
			return nil, err
		}
		if len(available) == 0 {
			return nil, noCopyLeft(ctx, tx, args.bookID)
		}
		copyID = available[0].ID
	}

	bookCopy, err := tx.Copies.GetForUpdate(ctx, copyID)
	if err != nil {
		return nil, notFound(err, "copy", copyID)
	}
	if bookCopy.BookID != args.bookID {
		return nil, fmt.Errorf("%w: copy %d does not belong to book %d", domain.ErrValidation, copyID, args.bookID)
	}

	open, err := tx.Loans.CountOpenByCopy(ctx, copyID)
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, fmt.Errorf("%w: copy %d already has an open loan", domain.ErrConflict, copyID)
	}

	// A reserved copy only goes to the patron whose reservation holds it
	reservationID := args.reservationID
	var directHold *models.Reservation
	if bookCopy.CopyStatus() == domain.CopyReserved {
		holder, err := tx.Reservations.FindHolder(ctx, copyID)
		if err != nil {
			return nil, err
		}
		switch {
		case holder == nil:
			return nil, fmt.Errorf("%w: copy %d is reserved without a holder", domain.ErrConflict, copyID)
		case reservationID != nil && holder.ID != *reservationID:
			return nil, fmt.Errorf("%w: copy %d is held by reservation %d", domain.ErrConflict, copyID, holder.ID)
		case reservationID == nil && holder.PatronID != args.patronID:
			return nil, fmt.Errorf("%w: copy %d is held for another patron", domain.ErrConflict, copyID)
		case reservationID == nil:
			directHold = holder
			reservationID = &holder.ID
		}
	}

	now := s.now()
	loan := &models.Loan{
		BookID:        args.bookID,
		CopyID:        copyID,
		PatronID:      args.patronID,
		ReservationID: reservationID,
		BorrowedAt:    now,
		DueDate:       now.AddDate(0, 0, args.days),
		Status:        string(domain.LoanBorrowed),
		ProcessedBy:   actorID(args.actor),
	}
	if err := tx.Loans.Create(ctx, loan); err != nil {
		return nil, storeErr(err)
	}

	if _, err := s.transition(ctx, tx, fx, move{
		copyID:        copyID,
		from:          []domain.CopyStatus{domain.CopyAvailable, domain.CopyReserved},
		to:            domain.CopyBorrowed,
		txType:        domain.TxCheckout,
		note:          fmt.Sprintf("loan #%d to patron #%d", loan.ID, args.patronID),
		loanID:        &loan.ID,
		reservationID: reservationID,
		actor:         args.actor,
	}); err != nil {
		return nil, err
	}

	if directHold != nil {
		if err := s.approveTx(ctx, tx, fx, directHold, copyID, loan, args.actor); err != nil {
			return nil, err
		}
	}

	fx.audit("checkout", "loan", loan.ID, args.actor, map[string]interface{}{
		"copy_id":   copyID,
		"patron_id": args.patronID,
	})
	fx.receipts = append(fx.receipts, receiptJob{kind: ReceiptCheckout, payload: map[string]interface{}{
		"loan_id":   loan.ID,
		"book_id":   loan.BookID,
		"copy_id":   loan.CopyID,
		"barcode":   bookCopy.Barcode,
		"patron_id": loan.PatronID,
		"borrowed":  loan.BorrowedAt.Format(time.RFC3339),
		"due":       loan.DueDate.Format("2006-01-02"),
	}})
	return loan, nil
}

// approveTx marks a pending reservation approved with its copy and loan
func (s *CirculationService) approveTx(ctx context.Context, tx *repositories.Store, fx *effects, reservation *models.Reservation, copyID uint, loan *models.Loan, actor domain.Actor) error {
	now := s.now()
	ok, err := tx.Reservations.Finish(ctx, reservation.ID, domain.ReservationApproved, map[string]interface{}{
		"copy_id":     copyID,
		"loan_id":     loan.ID,
		"copy_held":   false,
		"approved_at": now,
		"approved_by": actorID(actor),
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: reservation %d is no longer pending", domain.ErrConflict, reservation.ID)
	}
	reservation.Status = string(domain.ReservationApproved)
	reservation.CopyID = &copyID
	reservation.LoanID = &loan.ID
	reservation.CopyHeld = false
	reservation.ApprovedAt = &now
	reservation.ApprovedBy = actorID(actor)

	return queueEvent(ctx, tx, fx, models.EventReservationApproved, models.TargetPatron, reservation.PatronID,
		reservationApprovedMessage(reservation.ID, copyID, loan.ID, loan.DueDate),
		map[string]interface{}{
			"reservation_id": reservation.ID,
			"book_id":        reservation.BookID,
			"copy_id":        copyID,
			"loan_id":        loan.ID,
			"due_date":       loan.DueDate,
		})
}

// ReturnInput represents a return condition report
type ReturnInput struct {
	Condition   string `json:"condition" validate:"omitempty,oneof=new good fair poor damaged lost"`
	DamageNotes string `json:"damage_notes,omitempty" validate:"max=1000"`
}

// Return closes an open loan and puts the copy into the status its
// condition report implies. A second return of the same loan is a conflict.
func (s *CirculationService) Return(ctx context.Context, loanID uint, input *ReturnInput, actor domain.Actor) (loan *models.Loan, err error) {
	defer observe("return", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	condition := domain.Condition(input.Condition)
	target, err := domain.StatusAfterReturn(condition)
	if err != nil {
		return nil, err
	}
	policy := s.Policy(ctx)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		loan, err = tx.Loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return notFound(err, "loan", loanID)
		}
		if !loan.LoanStatus().IsOpen() {
			return fmt.Errorf("%w: loan %d is already %s", domain.ErrConflict, loan.ID, loan.Status)
		}

		now := s.now()
		fees := domain.ComputeFees(loan.DueDate, now, policy.LateFeePerDay, condition, policy.DamageFee, policy.LostFee)
		loan.ReturnedAt = &now
		loan.LateFee = fees.LateFee
		loan.DamageFee = fees.DamageFee
		loan.TotalFee = fees.Total
		loan.ReturnCondition = string(condition)
		loan.DamageNotes = input.DamageNotes
		loan.ProcessedBy = actorID(actor)

		closed, err := tx.Loans.Close(ctx, loan)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("%w: loan %d was closed concurrently", domain.ErrConflict, loan.ID)
		}
		loan.Status = string(domain.LoanReturned)

		note := fmt.Sprintf("loan #%d returned", loan.ID)
		if condition != "" {
			note += " in " + string(condition) + " condition"
		}
		if _, err := s.transition(ctx, tx, fx, move{
			copyID: loan.CopyID,
			from:   []domain.CopyStatus{domain.CopyBorrowed},
			to:     target,
			txType: domain.TxReturn,
			note:   note,
			loanID: &loan.ID,
			actor:  actor,
		}); err != nil {
			return err
		}
		if condition != "" && condition != domain.ConditionLost {
			if err := tx.Copies.UpdateCondition(ctx, loan.CopyID, condition); err != nil {
				return err
			}
		}

		fx.audit("return", "loan", loan.ID, actor, map[string]interface{}{
			"condition": condition,
			"total_fee": fees.Total,
		})
		fx.receipts = append(fx.receipts, receiptJob{kind: ReceiptReturn, payload: map[string]interface{}{
			"loan_id":    loan.ID,
			"copy_id":    loan.CopyID,
			"patron_id":  loan.PatronID,
			"returned":   now.Format(time.RFC3339),
			"condition":  condition,
			"late_fee":   fmt.Sprintf("%.2f", fees.LateFee),
			"damage_fee": fmt.Sprintf("%.2f", fees.DamageFee),
			"total_fee":  fmt.Sprintf("%.2f", fees.Total),
		}})
		return queueEvent(ctx, tx, fx, models.EventLoanReturned, models.TargetPatron, loan.PatronID,
			loanReturnedMessage(loan.ID, fees.Total),
			map[string]interface{}{
				"loan_id": loan.ID,
				"copy_id": loan.CopyID,
				"fees":    fees,
			})
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return loan, nil
}

// ============================================================
// Staff status changes
// ============================================================

// MarkStatusInput represents a staff report of loss, damage or maintenance
type MarkStatusInput struct {
	Status string `json:"status" validate:"required,oneof=lost damaged maintenance"`
	Note   string `json:"note,omitempty" validate:"max=500"`
}

// MarkStatus takes an available copy out of service. Borrowed copies go
// through Return with a condition report instead.
func (s *CirculationService) MarkStatus(ctx context.Context, copyID uint, input *MarkStatusInput, actor domain.Actor) (bookCopy *models.BookCopy, err error) {
	defer observe("mark_status", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}
	target := domain.CopyStatus(input.Status)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.Copies.GetForUpdate(ctx, copyID)
		if err != nil {
			return notFound(err, "copy", copyID)
		}
		if err := domain.CheckTransition(current.CopyStatus(), target); err != nil {
			return err
		}

		bookCopy, err = s.transition(ctx, tx, fx, move{
			copyID: copyID,
			from:   []domain.CopyStatus{domain.CopyAvailable},
			to:     target,
			txType: domain.TxStatus,
			note:   input.Note,
			actor:  actor,
		})
		if err != nil {
			return err
		}
		if target == domain.CopyDamaged {
			if err := tx.Copies.UpdateCondition(ctx, copyID, domain.ConditionDamaged); err != nil {
				return err
			}
			bookCopy.Condition = string(domain.ConditionDamaged)
		}
		fx.audit("mark_status", "copy", copyID, actor, map[string]interface{}{"status": target, "note": input.Note})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return bookCopy, nil
}

// RestoreInput represents a staff restoration
type RestoreInput struct {
	Condition string `json:"condition,omitempty" validate:"omitempty,oneof=new good fair poor"`
	Note      string `json:"note,omitempty" validate:"max=500"`
}

// Restore returns a lost, damaged or maintenance copy to available
func (s *CirculationService) Restore(ctx context.Context, copyID uint, input *RestoreInput, actor domain.Actor) (bookCopy *models.BookCopy, err error) {
	defer observe("restore", time.Now(), &err)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookCopy, err = s.transition(ctx, tx, fx, move{
			copyID: copyID,
			from:   []domain.CopyStatus{domain.CopyLost, domain.CopyDamaged, domain.CopyMaintenance},
			to:     domain.CopyAvailable,
			txType: domain.TxRestore,
			note:   input.Note,
			actor:  actor,
		})
		if err != nil {
			return err
		}
		if input.Condition != "" {
			if err := tx.Copies.UpdateCondition(ctx, copyID, domain.Condition(input.Condition)); err != nil {
				return err
			}
			bookCopy.Condition = input.Condition
		}
		fx.audit("restore", "copy", copyID, actor, map[string]interface{}{"condition": input.Condition})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.hooks.flush(ctx, fx)
	return bookCopy, nil
}

// Deactivate soft-deletes a copy that is not reserved or on loan. Its slot
// is freed and the catalog counters shrink accordingly.
func (s *CirculationService) Deactivate(ctx context.Context, copyID uint, actor domain.Actor) (err error) {
	defer observe("deactivate", time.Now(), &err)

	fx := &effects{}
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		bookCopy, err := tx.Copies.GetForUpdate(ctx, copyID)
		if err != nil {
			return notFound(err, "copy", copyID)
		}
		if !bookCopy.IsActive {
			return fmt.Errorf("%w: copy %d is already deactivated", domain.ErrConflict, copyID)
		}
		status := bookCopy.CopyStatus()
		if status == domain.CopyReserved || status == domain.CopyBorrowed {
			return fmt.Errorf("%w: copy %d is %s", domain.ErrConflict, copyID, status)
		}

		ok, err := tx.Copies.Deactivate(ctx, copyID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: copy %d changed concurrently", domain.ErrConflict, copyID)
		}

		availableDelta := 0
		if status == domain.CopyAvailable {
			availableDelta = -1
		}
		if err := s.adjustCounts(ctx, tx, bookCopy.BookID, -1, availableDelta); err != nil {
			return err
		}

		note := "deactivated"
		if loc := bookCopy.Location(); loc != nil {
			note += ", freed " + loc.String()
		}
		if err := tx.History.Create(ctx, &models.CopyTransaction{
			CopyID:          copyID,
			BookID:          bookCopy.BookID,
			TransactionType: domain.TxDeactivate,
			FromStatus:      string(status),
			ToStatus:        string(status),
			Note:            note,
			PerformedBy:     actorID(actor),
			IPAddress:       actor.IPAddress,
		}); err != nil {
			return err
		}
		fx.audit("deactivate", "copy", copyID, actor, nil)
		return nil
	})
	if err != nil {
		return err
	}

	s.hooks.flush(ctx, fx)
	return nil
}

// ============================================================
// Overdue marking
// ============================================================

// MarkOverdue flags borrowed loans past their due date and queues a
// reminder for each. It returns how many loans changed.
func (s *CirculationService) MarkOverdue(ctx context.Context) (count int, err error) {
	defer observe("mark_overdue", time.Now(), &err)

	now := s.now()
	loans, err := s.store.Loans.ListNewlyOverdue(ctx, now, 500)
	if err != nil {
		return 0, err
	}

	fx := &effects{}
	for _, loan := range loans {
		changed := false
		err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
			ok, err := tx.Loans.MarkOverdue(ctx, loan.ID)
			if err != nil || !ok {
				return err
			}
			changed = true
			return queueEvent(ctx, tx, fx, models.EventLoanOverdue, models.TargetPatron, loan.PatronID,
				loanOverdueMessage(loan.ID, loan.DueDate),
				map[string]interface{}{"loan_id": loan.ID, "copy_id": loan.CopyID, "due_date": loan.DueDate})
		})
		if err != nil {
			log.Printf("❌ Mark overdue loan %d error: %v", loan.ID, err)
			continue
		}
		if changed {
			count++
		}
	}

	if count > 0 {
		log.Printf("⏰ Marked %d loans overdue", count)
	}
	s.hooks.flush(ctx, fx)
	return count, nil
}

// GetLoan gets a loan by ID
func (s *CirculationService) GetLoan(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.store.Loans.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "loan", id)
	}
	return loan, nil
}

// ListLoans lists a patron's loans
func (s *CirculationService) ListLoans(ctx context.Context, patronID uint, offset, limit int) ([]*models.Loan, int64, error) {
	return s.store.Loans.ListByPatron(ctx, patronID, offset, limit)
}

// noCopyLeft explains an empty available list. Copies held by a reservation
// or a loan mean another request got there first, which is a conflict; a
// title with nothing in circulation is plain exhausted capacity.
func noCopyLeft(ctx context.Context, tx *repositories.Store, bookID uint) error {
	taken, err := tx.Copies.CountInStatus(ctx, bookID, []domain.CopyStatus{domain.CopyReserved, domain.CopyBorrowed})
	if err != nil {
		return err
	}
	if taken > 0 {
		return fmt.Errorf("%w: every copy of book %d is reserved or on loan: %w", domain.ErrConflict, bookID, domain.ErrCapacityExhausted)
	}
	return fmt.Errorf("%w: book %d has no copy in circulation", domain.ErrCapacityExhausted, bookID)
}
