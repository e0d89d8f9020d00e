package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/freedombydesign/connections-service/internal/events"
)

// Producer publishes CloudEvents to a single Kafka topic.
type Producer struct {
	producer sarama.SyncProducer
	logger   *zap.Logger
	topic    string
	source   string
}

// NewProducer creates a synchronous Kafka producer.
// source identifies this service in the CloudEvent envelope, e.g.
// "/connections-service".
func NewProducer(brokers []string, topic string, source string, logger *zap.Logger) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // required by the idempotent producer

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   logger.Named("kafka_producer"),
		topic:    topic,
		source:   source,
	}, nil
}

// PublishConnectionUpserted wraps the payload in a CloudEvent and sends it,
// keyed by platform so per-platform ordering is preserved.
func (p *Producer) PublishConnectionUpserted(ctx context.Context, ev events.ConnectionUpsertedEvent) error {
	subject := ev.Platform + "/" + ev.PlatformUserID
	contentType := events.CloudEventDataContentType
	envelope := events.CloudEvent{
		SpecVersion:     events.CloudEventSpecVersion,
		Type:            events.TypeConnectionUpserted,
		Source:          p.source,
		Subject:         &subject,
		ID:              uuid.NewString(),
		Time:            time.Now().UTC(),
		DataContentType: &contentType,
		Data:            ev,
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal CloudEvent: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Platform),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send CloudEvent to topic %s: %w", p.topic, err)
	}
	p.logger.Debug("Published connection event",
		zap.String("type", events.TypeConnectionUpserted),
		zap.String("subject", subject),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close shuts the underlying producer down.
func (p *Producer) Close() error {
	return p.producer.Close()
}

var _ events.Publisher = (*Producer)(nil)
