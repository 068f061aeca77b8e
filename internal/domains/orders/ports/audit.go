package ports

import (
	"context"
	"time"
)

// Audit severities.
const (
	SeverityInfo     = "info"
	SeveritySecurity = "security"
)

// AuditEvent is one append-only structured audit entry.
type AuditEvent struct {
	ID          string            `json:"id"`
	Action      string            `json:"action"`
	ActorID     string            `json:"actorId"`
	EntityType  string            `json:"entityType"`
	EntityID    string            `json:"entityId"`
	Before      string            `json:"before,omitempty"`
	After       string            `json:"after,omitempty"`
	AffectedIDs []string          `json:"affectedIds,omitempty"`
	Severity    string            `json:"severity"`
	OccurredAt  time.Time         `json:"occurredAt"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// AuditSink accepts audit entries.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// NoopAuditSink discards every entry.
var NoopAuditSink AuditSink = noopAuditSink{}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuditEvent) error { return nil }
