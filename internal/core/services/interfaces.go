package services

import (
	"context"

	"library-circulation/internal/core/domain"
)

// Collaborators the circulation core calls after a transaction commits.
// Their failures are logged and never roll back circulation state.

// Notification is one message for the external notification sink
type Notification struct {
	Target   string                 `json:"target"`
	TargetID uint                   `json:"target_id"`
	Type     string                 `json:"type"`
	Message  string                 `json:"message"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AuditEntry is one audit record
type AuditEntry struct {
	Action   string                 `json:"action"`
	Entity   string                 `json:"entity"`
	EntityID uint                   `json:"entity_id"`
	Actor    domain.Actor           `json:"actor"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Auditor persists audit records
type Auditor interface {
	Audit(ctx context.Context, entry AuditEntry)
}

// ReceiptRenderer renders a receipt and returns a document reference
type ReceiptRenderer interface {
	RenderReceipt(ctx context.Context, kind string, payload map[string]interface{}) (string, error)
}

// Settings reads runtime settings
type Settings interface {
	Get(ctx context.Context, key, defaultValue string) string
}

// Receipt kinds
const (
	ReceiptCheckout = "checkout"
	ReceiptReturn   = "return"
)
