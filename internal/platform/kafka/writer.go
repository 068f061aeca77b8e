package kafka

import (
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// WriterConfig describes a producer for one topic.
type WriterConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(raw string) []string {
	var brokers []string
	for _, part := range strings.Split(raw, ",") {
		if broker := strings.TrimSpace(part); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// NewWriter builds a keyed producer. Messages with the same key land on the same partition.
func NewWriter(cfg WriterConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return nil, errors.New("kafka topic is required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 50 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}, nil
}
