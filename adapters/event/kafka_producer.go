package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/internal/domain/profile"
	"github.com/encorestage/encore/pkg/logger"
)

const (
	TopicProfileEvents = "profile.events"
	TopicMediaEvents   = "media.events"
)

type ProfileEventType string
type MediaEventType string

const (
	ProfileEventTypeSaved  ProfileEventType = "profile.saved"
	MediaEventTypeUploaded MediaEventType   = "media.uploaded"
)

type ProfileEventPayload struct {
	EventType  ProfileEventType `json:"event_type"`
	OwnerID    string           `json:"owner_id"`
	MediaCount int              `json:"media_count"`
	SavedAt    time.Time        `json:"saved_at"`
}

// MediaEventPayload announces one stored object. Bucket and Path address it
// in object storage, URL is its public URL.
type MediaEventPayload struct {
	EventType MediaEventType    `json:"event_type"`
	OwnerID   string            `json:"owner_id"`
	MediaID   string            `json:"media_id"`
	Kind      profile.MediaKind `json:"kind"`
	Bucket    string            `json:"bucket"`
	Path      string            `json:"path"`
	URL       string            `json:"url"`
}

type KafkaProducerClient struct {
	ProfileEventsWriter *kafka.Writer
	MediaEventsWriter   *kafka.Writer
	logger              logger.Logger
}

func NewKafkaProducerClient(cfg config.Config, log logger.Logger) (*KafkaProducerClient, error) {
	brokers := cfg.Kafka.Brokers
	if len(brokers) == 0 {
		return nil, fmt.Errorf("config Kafka brokers not found")
	}

	profileWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicProfileEvents,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}

	mediaWriter := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  TopicMediaEvents,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}

	log.Info("Initialize Kafka Producers successfully.", zap.Strings("brokers", brokers))

	return &KafkaProducerClient{
		ProfileEventsWriter: profileWriter,
		MediaEventsWriter:   mediaWriter,
		logger:              log,
	}, nil
}

func (c *KafkaProducerClient) PublishProfileEvent(ctx context.Context, payload ProfileEventPayload) error {
	return c.publish(ctx, c.ProfileEventsWriter, payload.OwnerID, payload)
}

func (c *KafkaProducerClient) PublishMediaEvent(ctx context.Context, payload MediaEventPayload) error {
	return c.publish(ctx, c.MediaEventsWriter, payload.MediaID, payload)
}

func (c *KafkaProducerClient) publish(ctx context.Context, w *kafka.Writer, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("failed to write to %s: %w", w.Topic, err)
	}
	return nil
}

func (c *KafkaProducerClient) Close() {
	if c.ProfileEventsWriter != nil {
		c.ProfileEventsWriter.Close()
	}
	if c.MediaEventsWriter != nil {
		c.MediaEventsWriter.Close()
	}
	c.logger.Info("Closed Kafka Producers")
}

// NopPublisher drops every event. It stands in when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishProfileEvent(context.Context, ProfileEventPayload) error { return nil }
func (NopPublisher) PublishMediaEvent(context.Context, MediaEventPayload) error     { return nil }
