package repository

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"CanSlim/internal/domain/models"
	domrepo "CanSlim/internal/domain/repository"
	pkgkafka "CanSlim/pkg/kafka"
)

type batchProducer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaPublisher ships CANSLI_all hits keyed by ticker.
type KafkaPublisher struct {
	producer batchProducer
	topic    string
}

// NewKafkaPublisher creates Kafka publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishHits(ctx context.Context, hits []models.SignalHit) error {
	if len(hits) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(hits))
	for i, h := range hits {
		msgs[i] = pkgkafka.Message{
			Key: []byte(h.Ticker),
			Value: map[string]interface{}{
				"run_id": h.RunID,
				"ticker": h.Ticker,
				"date":   h.Date.Format(time.DateOnly),
				"close":  h.Close,
				"M":      h.M,
			},
			Headers: []kafka.Header{{Key: "run_id", Value: []byte(h.RunID)}},
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher is used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishHits(context.Context, []models.SignalHit) error { return nil }

func (NopPublisher) Close() error { return nil }
