// Package stream publishes persisted activity events to the downstream
// ML feature pipeline over Kafka.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/sentrasec/sentra/internal/config"
	"github.com/sentrasec/sentra/internal/domain/models"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/logger"
)

// messageWriter is the slice of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// activityMessage is the wire shape consumed by the feature pipeline.
type activityMessage struct {
	ID             uuid.UUID               `json:"id"`
	OrganizationID uuid.UUID               `json:"organization_id"`
	ProfileID      uuid.UUID               `json:"profile_id"`
	UserID         uuid.UUID               `json:"user_id"`
	ActivityType   string                  `json:"activity_type"`
	Description    string                  `json:"description,omitempty"`
	ResourceType   string                  `json:"resource_type,omitempty"`
	ResourceID     string                  `json:"resource_id,omitempty"`
	Metadata       models.ActivityMetadata `json:"metadata,omitempty"`
	OccurredAt     time.Time               `json:"occurred_at"`
}

// KafkaPublisher streams activity events to Kafka. Messages are keyed by
// profile so one profile's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger logger.Logger
}

// NewKafkaPublisher creates the activity stream publisher.
func NewKafkaPublisher(cfg *config.KafkaConfig, log logger.Logger) *KafkaPublisher {
	topic := cfg.Topic
	if topic == "" {
		topic = constants.ActivityStreamTopic
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
	}
	return &KafkaPublisher{
		writer: writer,
		logger: log.WithComponent("KafkaPublisher"),
	}
}

// Publish sends one activity event to the stream.
func (p *KafkaPublisher) Publish(ctx context.Context, event *models.ActivityEvent) error {
	payload, err := json.Marshal(activityMessage{
		ID:             event.ID,
		OrganizationID: event.OrganizationID,
		ProfileID:      event.ProfileID,
		UserID:         event.UserID,
		ActivityType:   string(event.ActivityType),
		Description:    event.Description,
		ResourceType:   event.ResourceType,
		ResourceID:     event.ResourceID,
		Metadata:       event.Metadata,
		OccurredAt:     event.OccurredAt,
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to encode activity message", err,
			logger.String("activity_id", event.ID.String()),
		)
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProfileID.String()),
		Value: payload,
	})
	if err != nil {
		p.logger.Error(ctx, "Failed to write activity message to Kafka", err,
			logger.String("activity_id", event.ID.String()),
		)
	}
	return err
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ domainservice.ActivityPublisher = (*KafkaPublisher)(nil)
