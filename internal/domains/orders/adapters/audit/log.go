package audit

import (
	"context"
	"log/slog"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.AuditSink = (*LogSink)(nil)

// LogSink writes audit entries as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, event ports.AuditEvent) error {
	level := slog.LevelInfo
	if event.Severity == ports.SeveritySecurity {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("audit.id", event.ID),
		slog.String("audit.action", event.Action),
		slog.String("audit.actor_id", event.ActorID),
		slog.String("audit.entity_type", event.EntityType),
		slog.String("audit.entity_id", event.EntityID),
		slog.String("audit.severity", event.Severity),
		slog.Time("audit.occurred_at", event.OccurredAt),
	}
	if event.Before != "" || event.After != "" {
		attrs = append(attrs, slog.String("audit.before", event.Before), slog.String("audit.after", event.After))
	}
	if len(event.AffectedIDs) > 0 {
		attrs = append(attrs, slog.Any("audit.affected_ids", event.AffectedIDs))
	}
	if len(event.Metadata) > 0 {
		attrs = append(attrs, slog.Any("audit.metadata", event.Metadata))
	}
	s.logger.LogAttrs(ctx, level, "audit", attrs...)
	return nil
}
