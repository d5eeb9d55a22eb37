package services

import (
	"library-circulation/internal/adapters/persistence/repositories"
	"library-circulation/internal/core/allocator"

	"gorm.io/gorm"
)

// Options configures the service graph
type Options struct {
	Policy               Policy
	Schedule             CronSchedule
	SlotSearchRadius     int
	ReconcileParallelism int
	WebhookURL           string
	ReceiptDir           string
}

// Container holds the wired circulation services
type Container struct {
	Store        *repositories.Store
	Settings     *SettingsService
	Outbox       *OutboxService
	Circulation  *CirculationService
	Reservations *ReservationService
	Copies       *CopyService
	Reconcile    *ReconcileService
	Master       *MasterService
	Dashboard    *DashboardService
	Cron         *CronService
}

// NewContainer wires every service over one database handle
func NewContainer(db *gorm.DB, opts Options) *Container {
	store := repositories.NewStore(db)
	settings := NewSettingsService(store.Settings)
	outbox := NewOutboxService(store, NewNotificationService(opts.WebhookURL))

	var receipts ReceiptRenderer
	if opts.ReceiptDir != "" {
		receipts = NewTextReceiptRenderer(opts.ReceiptDir)
	}

	auditor := NewLogAuditor()
	circulation := NewCirculationService(store, settings, opts.Policy, outbox, auditor, receipts)
	reservations := NewReservationService(store, circulation)
	copies := NewCopyService(store, allocator.New(opts.SlotSearchRadius), circulation)
	reconcile := NewReconcileService(store, opts.ReconcileParallelism)

	return &Container{
		Store:        store,
		Settings:     settings,
		Outbox:       outbox,
		Circulation:  circulation,
		Reservations: reservations,
		Copies:       copies,
		Reconcile:    reconcile,
		Master:       NewMasterService(store, auditor),
		Dashboard:    NewDashboardService(db),
		Cron:         NewCronService(opts.Schedule, circulation, reservations, reconcile, outbox),
	}
}
