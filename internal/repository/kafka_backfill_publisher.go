package repository

import (
	"context"

	"HistPull/internal/domain/models"
	domrepo "HistPull/internal/domain/repository"
	pkgkafka "HistPull/pkg/kafka"
)

// KafkaBackfillPublisher emits completed-backfill events, keyed by symbol
// so consumers see per-symbol ordering.
type KafkaBackfillPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaBackfillPublisher(producer *pkgkafka.Producer, topic string) domrepo.BackfillPublisher {
	return &KafkaBackfillPublisher{producer: producer, topic: topic}
}

func (p *KafkaBackfillPublisher) PublishBackfill(ctx context.Context, ev *models.BackfillEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaBackfillPublisher) Close() error {
	return p.producer.Close()
}
