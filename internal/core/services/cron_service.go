package services

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// CronSchedule holds the cron specs of the background jobs. An empty spec
// disables that job.
type CronSchedule struct {
	Reconcile          string
	ExpireReservations string
	MarkOverdue        string
	DispatchOutbox     string
}

// DefaultCronSchedule runs reconciliation nightly and the rest frequently
var DefaultCronSchedule = CronSchedule{
	Reconcile:          "0 3 * * *",
	ExpireReservations: "*/15 * * * *",
	MarkOverdue:        "5 0 * * *",
	DispatchOutbox:     "* * * * *",
}

// CronService runs the scheduled circulation jobs
type CronService struct {
	cron         *cron.Cron
	schedule     CronSchedule
	circulation  *CirculationService
	reservations *ReservationService
	reconcile    *ReconcileService
	outbox       *OutboxService
}

// NewCronService creates a new cron service
func NewCronService(
	schedule CronSchedule,
	circulation *CirculationService,
	reservations *ReservationService,
	reconcile *ReconcileService,
	outbox *OutboxService,
) *CronService {
	return &CronService{
		cron:         cron.New(),
		schedule:     schedule,
		circulation:  circulation,
		reservations: reservations,
		reconcile:    reconcile,
		outbox:       outbox,
	}
}

// Start registers the jobs and starts the scheduler
func (s *CronService) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"reconcile", s.schedule.Reconcile, s.runReconcile},
		{"expire-reservations", s.schedule.ExpireReservations, s.runExpire},
		{"mark-overdue", s.schedule.MarkOverdue, s.runOverdue},
		{"dispatch-outbox", s.schedule.DispatchOutbox, s.runOutbox},
	}

	for _, job := range jobs {
		if job.spec == "" {
			log.Printf("⏸️ Cron job %s disabled", job.name)
			continue
		}
		name, run := job.name, job.run
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := run(context.Background()); err != nil {
				log.Printf("❌ Cron job %s error: %v", name, err)
			}
		}); err != nil {
			return err
		}
		log.Printf("⏰ Cron job %s scheduled [%s]", job.name, job.spec)
	}

	s.cron.Start()
	log.Println("🚀 CronService started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 CronService stopped")
}

func (s *CronService) runReconcile(ctx context.Context) error {
	_, err := s.reconcile.ReconcileAll(ctx)
	return err
}

func (s *CronService) runExpire(ctx context.Context) error {
	_, err := s.reservations.ExpireStale(ctx)
	return err
}

func (s *CronService) runOverdue(ctx context.Context) error {
	_, err := s.circulation.MarkOverdue(ctx)
	return err
}

func (s *CronService) runOutbox(ctx context.Context) error {
	if s.outbox == nil {
		return nil
	}
	_, err := s.outbox.Dispatch(ctx)
	return err
}
