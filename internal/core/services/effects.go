package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"library-circulation/internal/adapters/persistence/models"
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/allocator"
	"library-circulation/internal/core/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// effects collects work that must only happen after a commit
type effects struct {
	moves       []moveRecord
	allocations []allocator.Strategy
	audits      []AuditEntry
	receipts    []receiptJob
	events      int
}

type moveRecord struct {
	from, to domain.CopyStatus
	txType   string
}

type receiptJob struct {
	kind    string
	payload map[string]interface{}
}

func (fx *effects) audit(action, entity string, id uint, actor domain.Actor, payload map[string]interface{}) {
	fx.audits = append(fx.audits, AuditEntry{
		Action:   action,
		Entity:   entity,
		EntityID: id,
		Actor:    actor,
		Payload:  payload,
	})
}

// hooks are the post-commit collaborators shared by the services
type hooks struct {
	auditor  Auditor
	receipts ReceiptRenderer
	outbox   *OutboxService
}

// flush runs post-commit side effects. Failures are logged only.
func (h hooks) flush(ctx context.Context, fx *effects) {
	for _, m := range fx.moves {
		copyTransitions.WithLabelValues(string(m.from), string(m.to), m.txType).Inc()
	}
	for _, strategy := range fx.allocations {
		slotAllocations.WithLabelValues(string(strategy)).Inc()
	}
	if h.auditor != nil {
		for _, entry := range fx.audits {
			h.auditor.Audit(ctx, entry)
		}
	}
	if h.receipts != nil {
		for _, job := range fx.receipts {
			ref, err := h.receipts.RenderReceipt(ctx, job.kind, job.payload)
			if err != nil {
				log.Printf("⚠️ Failed to render %s receipt: %v", job.kind, err)
				continue
			}
			log.Printf("🧾 %s receipt written: %s", job.kind, ref)
		}
	}
	if fx.events > 0 && h.outbox != nil {
		h.outbox.Kick()
	}
}

// queueEvent writes an outbox row inside the current transaction
func queueEvent(ctx context.Context, tx *repositories.Store, fx *effects, eventType, target string, targetID uint, message string, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	event := &models.CirculationEvent{
		EventType:  eventType,
		TargetType: target,
		TargetID:   targetID,
		Message:    message,
		Payload:    datatypes.JSON(raw),
	}
	if err := tx.Events.Create(ctx, event); err != nil {
		return err
	}
	fx.events++
	return nil
}

// notFound maps a missing row onto domain.ErrNotFound
func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, entity, id)
	}
	return err
}

// storeErr maps unique index violations onto domain.ErrConflict
func storeErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	}
	return err
}

// observe records duration and failures of an operation. Use with a named
// error result: defer observe("checkout", time.Now(), &err).
func observe(operation string, start time.Time, err *error) {
	operationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil && *err != nil {
		operationErrors.WithLabelValues(operation, domain.Code(*err)).Inc()
	}
}

func actorID(actor domain.Actor) *uint {
	if actor.ID == 0 {
		return nil
	}
	id := actor.ID
	return &id
}

func containsStatus(list []domain.CopyStatus, s domain.CopyStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
