package services

import (
	"context"
	"encoding/json"
	"log"
)

// LogAuditor writes audit entries to the process log. A persistent audit
// sink can replace it through the Auditor interface.
type LogAuditor struct{}

// NewLogAuditor creates a new log auditor
func NewLogAuditor() *LogAuditor {
	return &LogAuditor{}
}

// Audit logs one entry
func (a *LogAuditor) Audit(ctx context.Context, entry AuditEntry) {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		payload = []byte("{}")
	}
	log.Printf("📝 AUDIT %s %s#%d by user=%d role=%s ip=%s %s",
		entry.Action, entry.Entity, entry.EntityID,
		entry.Actor.ID, entry.Actor.Role, entry.Actor.IPAddress, payload)
}
