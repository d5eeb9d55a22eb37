package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"library-circulation/internal/adapters/persistence/repositories"
)

// OutboxService delivers queued circulation events to the notifier
type OutboxService struct {
	store       *repositories.Store
	notifier    Notifier
	batchSize   int
	maxAttempts int
	kick        chan struct{}
	stopChan    chan struct{}
	now         func() time.Time

	// mu keeps the loop and the cron job from delivering the same batch
	mu sync.Mutex
}

// NewOutboxService creates a new outbox service
func NewOutboxService(store *repositories.Store, notifier Notifier) *OutboxService {
	return &OutboxService{
		store:       store,
		notifier:    notifier,
		batchSize:   50,
		maxAttempts: 5,
		kick:        make(chan struct{}, 1),
		stopChan:    make(chan struct{}),
		now:         time.Now,
	}
}

// Kick asks the dispatcher loop to run soon. It never blocks.
func (s *OutboxService) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Start launches the dispatcher loop
func (s *OutboxService) Start() {
	log.Println("🚀 OutboxService started")
	go s.run()
}

// Stop stops the dispatcher loop
func (s *OutboxService) Stop() {
	close(s.stopChan)
	log.Println("🛑 OutboxService stopped")
}

func (s *OutboxService) run() {
	for {
		select {
		case <-s.kick:
			if _, err := s.Dispatch(context.Background()); err != nil {
				log.Printf("❌ Outbox dispatch error: %v", err)
			}
		case <-s.stopChan:
			return
		}
	}
}

// Dispatch delivers one batch of undelivered events and returns how many
// were delivered. Failed deliveries are retried on later runs until
// maxAttempts is reached.
func (s *OutboxService) Dispatch(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.store.Events.ListUndelivered(ctx, s.maxAttempts, s.batchSize)
	if err != nil {
		return 0, err
	}

	delivered := 0
	for _, event := range events {
		n := Notification{
			Target:   event.TargetType,
			TargetID: event.TargetID,
			Type:     event.EventType,
			Message:  event.Message,
		}
		if len(event.Payload) > 0 {
			if err := json.Unmarshal(event.Payload, &n.Payload); err != nil {
				log.Printf("⚠️ Event %d payload unreadable: %v", event.ID, err)
			}
		}

		if err := s.notifier.Notify(ctx, n); err != nil {
			outboxDeliveries.WithLabelValues("failed").Inc()
			log.Printf("❌ Deliver event %d (%s) error: %v", event.ID, event.EventType, err)
			if markErr := s.store.Events.MarkFailed(ctx, event.ID, err); markErr != nil {
				return delivered, markErr
			}
			continue
		}

		if err := s.store.Events.MarkDelivered(ctx, event.ID, s.now()); err != nil {
			return delivered, err
		}
		outboxDeliveries.WithLabelValues("delivered").Inc()
		delivered++
	}
	return delivered, nil
}
