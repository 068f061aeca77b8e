package application

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/domain"
	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

const (
	entityOrder     = "order"
	entityOrderItem = "order_item"
)

func auditEventFor(event domain.Event) ports.AuditEvent {
	entry := ports.AuditEvent{
		ID:         uuid.NewString(),
		Action:     event.EventName(),
		Severity:   ports.SeverityInfo,
		OccurredAt: event.OccurredAt(),
	}
	switch ev := event.(type) {
	case domain.OrderStatusChanged:
		entry.ActorID = ev.ActorID
		entry.EntityType = entityOrder
		entry.EntityID = ev.OrderID
		entry.Before = string(ev.FromStatus)
		entry.After = string(ev.ToStatus)
		entry.AffectedIDs = append([]string(nil), ev.CascadedItemIDs...)
		entry.Metadata = map[string]string{"cascaded": strconv.Itoa(len(ev.CascadedItemIDs))}
	case domain.ItemStatusChanged:
		entry.ActorID = ev.ActorID
		entry.EntityType = entityOrderItem
		entry.EntityID = ev.ItemID
		entry.Before = string(ev.FromStatus)
		entry.After = string(ev.ToStatus)
		entry.Metadata = map[string]string{"orderId": ev.OrderID}
	case domain.TrackingAttached:
		entry.ActorID = ev.ActorID
		entry.EntityType = entityOrderItem
		entry.EntityID = ev.ItemID
		entry.After = ev.Carrier + ":" + ev.TrackingNumber
		entry.Metadata = map[string]string{"orderId": ev.OrderID}
	case domain.DownloadDenied:
		entry.ActorID = ev.UserID
		entry.EntityType = entityOrderItem
		entry.EntityID = ev.ItemID
		entry.Severity = ports.SeveritySecurity
		entry.Metadata = map[string]string{
			"orderId":   ev.OrderID,
			"productId": ev.ProductID,
			"reason":    ev.Reason,
		}
	}
	return entry
}

// audit records the event. Audit failures never fail the business operation.
func (s *Service) audit(ctx context.Context, event domain.Event) {
	entry := auditEventFor(event)
	if err := s.auditSink.Record(ctx, entry); err != nil {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "audit record failed",
			slog.String("action", entry.Action),
			slog.String("entity_id", entry.EntityID),
			slog.String("error", err.Error()),
		)
	}
}
