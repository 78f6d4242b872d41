// Package mq publishes audit records to Kafka.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Fattieportal/boekhouding-saas/internal/core/domain"
	"github.com/Fattieportal/boekhouding-saas/internal/core/ports"
	"github.com/Fattieportal/boekhouding-saas/internal/middleware"
	"github.com/IBM/sarama"
)

// NewSyncProducer creates a producer that waits for all in-sync replicas.
func NewSyncProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Idempotent = true
	cfg.Net.MaxOpenRequests = 1

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return producer, nil
}

// AuditPublisher writes each audit record as JSON, keyed by tenant so one tenant's
// records stay ordered within a partition.
type AuditPublisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewAuditPublisher creates a publisher on topic.
func NewAuditPublisher(producer sarama.SyncProducer, topic string) *AuditPublisher {
	return &AuditPublisher{producer: producer, topic: topic}
}

var _ ports.AuditPublisher = (*AuditPublisher)(nil)

func (p *AuditPublisher) PublishAudit(ctx context.Context, record domain.AuditRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal audit record %s: %w", record.RecordID, err)
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(record.TenantID),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("record-id"), Value: []byte(record.RecordID)},
			{Key: []byte("action"), Value: []byte(record.Action)},
		},
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish audit record %s: %w", record.RecordID, err)
	}
	middleware.GetLoggerFromCtx(ctx).Debug("Audit record published",
		slog.String("record_id", record.RecordID),
		slog.Int("partition", int(partition)),
		slog.Int64("offset", offset))
	return nil
}

// Close flushes and closes the producer.
func (p *AuditPublisher) Close() error {
	return p.producer.Close()
}
