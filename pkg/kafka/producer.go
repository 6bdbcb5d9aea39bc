package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Producer publishes resolution outcomes and duplicate reports to Kafka
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	config ProducerConfig
}

// NewProducer creates a new Kafka producer
func NewProducer(config ProducerConfig, logger ectologger.Logger) (*Producer, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	var compression kafka.Compression
	switch config.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "snappy":
		compression = kafka.Snappy
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	default:
		compression = 0 // No compression
	}

	// Topic is left empty on the writer so each message can pick its
	// destination topic.
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{}, // Hash by key for partition affinity
		BatchSize:              config.BatchSize,
		BatchTimeout:           config.BatchTimeout,
		MaxAttempts:            config.MaxAttempts,
		WriteTimeout:           config.WriteTimeout,
		Async:                  config.Async,
		Compression:            compression,
		RequiredAcks:           kafka.RequiredAcks(config.RequiredAcks),
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		config: config,
	}, nil
}

// PublishMatchOutcome publishes one resolution outcome to the default topic.
// Keyed by reference name for partition affinity.
func (p *Producer) PublishMatchOutcome(ctx context.Context, msg *MatchOutcomeMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize match outcome: %w", err)
	}
	return p.publish(ctx, p.config.Topic, msg.ReferenceName, data)
}

// PublishDuplicateReport publishes one detection run's report to topic.
func (p *Producer) PublishDuplicateReport(ctx context.Context, topic string, msg *DuplicateReportMessage) error {
	data, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize duplicate report: %w", err)
	}
	return p.publish(ctx, topic, string(msg.EntityKind), data)
}

func (p *Producer) publish(ctx context.Context, topic, key string, value []byte) error {
	headers := MessageHeaders{
		TraceParent: tracing.GetTraceParent(ctx),
	}

	kafkaHeaders := make([]kafka.Header, 0)
	for _, h := range headers.ToKafkaHeaders() {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: h.Key, Value: h.Value})
	}

	kafkaMsg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
		Time:    time.Now().UTC(),
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		metrics.RecordKafkaPublish(topic, "error")
		return fmt.Errorf("failed to publish message: %w", err)
	}

	metrics.RecordKafkaPublish(topic, "ok")
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close producer: %w", err)
	}
	p.logger.Info("Kafka producer closed")
	return nil
}

// Stats returns producer statistics
func (p *Producer) Stats() kafka.WriterStats {
	return p.writer.Stats()
}
