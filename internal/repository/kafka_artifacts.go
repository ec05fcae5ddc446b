package repository

import (
	"context"
	"strconv"

	"TrendPull/internal/domain/models"
	domrepo "TrendPull/internal/domain/repository"
	pkgkafka "TrendPull/pkg/kafka"
)

type messageProducer interface {
	Publish(ctx context.Context, topic string, msg pkgkafka.Message) error
	Close() error
}

// KafkaArtifactPublisher implements ArtifactPublisher for Kafka. Messages
// are keyed by the artifact's last_updated stamp so replays are idempotent
// for compacted topics.
type KafkaArtifactPublisher struct {
	producer messageProducer
	topic    string
}

var _ domrepo.ArtifactPublisher = (*KafkaArtifactPublisher)(nil)

// NewKafkaArtifactPublisher creates Kafka publisher.
func NewKafkaArtifactPublisher(producer *pkgkafka.Producer, topic string) *KafkaArtifactPublisher {
	return &KafkaArtifactPublisher{producer: producer, topic: topic}
}

func (p *KafkaArtifactPublisher) Publish(ctx context.Context, a *models.Artifact) error {
	return p.producer.Publish(ctx, p.topic, pkgkafka.Message{
		Key:   []byte(a.LastUpdated),
		Value: a,
		Headers: map[string]string{
			"content-type": "application/json",
			"points":       strconv.Itoa(len(a.Dates)),
		},
	})
}

func (p *KafkaArtifactPublisher) Close() error {
	return p.producer.Close()
}
