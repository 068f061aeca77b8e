package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.AuditSink = (*GormSink)(nil)

// GormSink appends audit entries to the audit_logs table.
type GormSink struct {
	db *gorm.DB
}

func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// auditRecord is append-only; rows are never updated.
type auditRecord struct {
	ID          string            `gorm:"primaryKey;column:id;size:64"`
	Action      string            `gorm:"column:action;size:128;index"`
	ActorID     string            `gorm:"column:actor_id;size:64;index"`
	EntityType  string            `gorm:"column:entity_type;size:32"`
	EntityID    string            `gorm:"column:entity_id;size:64;index"`
	Before      string            `gorm:"column:before_value"`
	After       string            `gorm:"column:after_value"`
	AffectedIDs pq.StringArray    `gorm:"column:affected_ids;type:text[]"`
	Severity    string            `gorm:"column:severity;size:16"`
	Metadata    map[string]string `gorm:"column:metadata;serializer:json"`
	OccurredAt  time.Time         `gorm:"column:occurred_at;index"`
}

func (auditRecord) TableName() string { return "audit_logs" }

func (s *GormSink) Record(ctx context.Context, event ports.AuditEvent) error {
	if s == nil || s.db == nil {
		return errors.New("postgres audit sink not configured")
	}
	record := auditRecord{
		ID:          event.ID,
		Action:      event.Action,
		ActorID:     event.ActorID,
		EntityType:  event.EntityType,
		EntityID:    event.EntityID,
		Before:      event.Before,
		After:       event.After,
		AffectedIDs: pq.StringArray(event.AffectedIDs),
		Severity:    event.Severity,
		Metadata:    event.Metadata,
		OccurredAt:  event.OccurredAt,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(&record).Error
}
