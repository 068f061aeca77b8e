package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.AuditSink = (*MultiSink)(nil)

// MultiSink fans an entry out to every sink. Every sink is attempted; failures are logged and joined.
type MultiSink struct {
	sinks  []ports.AuditSink
	logger *slog.Logger
}

func NewMultiSink(logger *slog.Logger, sinks ...ports.AuditSink) *MultiSink {
	if logger == nil {
		logger = slog.Default()
	}
	filtered := make([]ports.AuditSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &MultiSink{sinks: filtered, logger: logger}
}

// Len is the number of sinks entries are fanned out to.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) Record(ctx context.Context, event ports.AuditEvent) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Record(ctx, event); err != nil {
			m.logger.LogAttrs(ctx, slog.LevelWarn, "audit sink failed",
				slog.String("audit.action", event.Action),
				slog.String("audit.entity_id", event.EntityID),
				slog.String("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
