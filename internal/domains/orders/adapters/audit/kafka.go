package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/KwakOri/lucent-sub001/internal/domains/orders/ports"
)

var _ ports.AuditSink = (*KafkaSink)(nil)

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes audit entries as JSON, keyed by entity id so one entity stays on one partition.
type KafkaSink struct {
	writer MessageWriter
}

func NewKafkaSink(writer MessageWriter) *KafkaSink {
	return &KafkaSink{writer: writer}
}

func (s *KafkaSink) Record(ctx context.Context, event ports.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	carrier := headerCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, &carrier)

	msg := kafka.Message{
		Key:     []byte(event.EntityID),
		Value:   payload,
		Headers: append(carrier.headers, kafka.Header{Key: "audit-action", Value: []byte(event.Action)}),
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

// headerCarrier adapts kafka headers to the otel propagation carrier.
type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}
