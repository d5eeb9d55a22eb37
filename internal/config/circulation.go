package config

import "library-circulation/internal/core/services"

// Policy returns the circulation policy defaults
func (c *Config) Policy() services.Policy {
	return services.Policy{
		BorrowDays:    c.Circulation.BorrowDays,
		HoldDays:      c.Circulation.HoldDays,
		LateFeePerDay: c.Circulation.LateFeePerDay,
		DamageFee:     c.Circulation.DamageFee,
		LostFee:       c.Circulation.LostFee,
	}
}

// CronSchedule returns the background job schedule
func (c *Config) CronSchedule() services.CronSchedule {
	return services.CronSchedule{
		Reconcile:          c.Cron.Reconcile,
		ExpireReservations: c.Cron.ExpireReservations,
		MarkOverdue:        c.Cron.MarkOverdue,
		DispatchOutbox:     c.Cron.DispatchOutbox,
	}
}

// ServiceOptions returns the options the service graph is built from
func (c *Config) ServiceOptions() services.Options {
	return services.Options{
		Policy:               c.Policy(),
		Schedule:             c.CronSchedule(),
		SlotSearchRadius:     c.Circulation.SlotSearchRadius,
		ReconcileParallelism: c.Circulation.ReconcileParallelism,
		WebhookURL:           c.Notify.WebhookURL,
		ReceiptDir:           c.Files.ReceiptDir,
	}
}
