package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NotificationService posts circulation notifications to a webhook
type NotificationService struct {
	webhookURL string
	enabled    bool
	timeout    time.Duration
}

// NewNotificationService creates a new notification service. An empty URL
// disables delivery; notifications are then only logged.
func NewNotificationService(webhookURL string) *NotificationService {
	return &NotificationService{
		webhookURL: webhookURL,
		enabled:    webhookURL != "",
		timeout:    5 * time.Second,
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// Notify sends one notification
func (s *NotificationService) Notify(ctx context.Context, n Notification) error {
	if !s.enabled {
		log.Printf("📨 [%s → %s #%d] %s", n.Type, n.Target, n.TargetID, n.Message)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify webhook: %w", err)
	}
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	agent := fiber.Post(s.webhookURL).
		Timeout(timeout).
		JSON(n)
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("notify webhook: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("notify webhook: status %d: %s", code, string(body))
	}
	return nil
}

// Messages

func reservationCreatedMessage(reservationID, bookID uint) string {
	return fmt.Sprintf("📚 Reservation #%d placed for book #%d", reservationID, bookID)
}

func reservationApprovedMessage(reservationID, copyID, loanID uint, due time.Time) string {
	return fmt.Sprintf("✅ Reservation #%d approved: copy #%d on loan #%d, due %s",
		reservationID, copyID, loanID, due.Format("2006-01-02"))
}

func reservationDeclinedMessage(reservationID uint, reason string) string {
	return fmt.Sprintf("❌ Reservation #%d declined: %s", reservationID, reason)
}

func reservationExpiredMessage(reservationID uint) string {
	return fmt.Sprintf("⌛ Reservation #%d expired", reservationID)
}

func loanReturnedMessage(loanID uint, total float64) string {
	if total > 0 {
		return fmt.Sprintf("📗 Loan #%d returned, fees due %.2f", loanID, total)
	}
	return fmt.Sprintf("📗 Loan #%d returned", loanID)
}

func loanOverdueMessage(loanID uint, due time.Time) string {
	return fmt.Sprintf("⏰ Loan #%d is overdue since %s", loanID, due.Format("2006-01-02"))
}
