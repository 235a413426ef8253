package main

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/encorestage/encore/internal/config"
	"github.com/encorestage/encore/pkg/logger"
)

const (
	retryInitialDelay = time.Second
	retryMaxDelay     = time.Minute
)

// handleFunc reports parsed=false when the message can never be processed.
type handleFunc func(ctx context.Context, value []byte) (parsed bool, err error)

// messageReader is the part of *kafka.Reader the loop needs.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consume reads one topic with a consumer group until ctx ends.
func consume(ctx context.Context, cfg config.Config, topic, group string, appLogger logger.Logger, handle handleFunc) error {
	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	appLogger.Info("Worker listening", zap.String("topic", topic), zap.String("group", group))
	return runConsumer(ctx, consumer, appLogger.With(zap.String("topic", topic)), handle, retryInitialDelay)
}

// runConsumer handles messages in offset order. Group commits are cumulative,
// so a message that fails is retried in place with a growing delay instead
// of being passed over; it is committed only once handled. A message that
// cannot be decoded is committed and skipped. When ctx ends during a retry
// the message stays uncommitted and is redelivered after a restart.
func runConsumer(ctx context.Context, reader messageReader, appLogger logger.Logger, handle handleFunc, initialDelay time.Duration) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			appLogger.Error("Failed to read message from Kafka", err)
			continue
		}

		l := appLogger.With(zap.String("key", string(msg.Key)), zap.Int64("offset", msg.Offset))

		delay := initialDelay
		for attempt := 1; ; attempt++ {
			parsed, err := handle(ctx, msg.Value)
			if !parsed {
				l.Error("Failed to unmarshal event, skipping", err)
				break
			}
			if err == nil {
				break
			}
			l.Error("Failed to process event, retrying", err, zap.Int("attempt", attempt), zap.Duration("delay", delay))
			if !sleep(ctx, delay) {
				l.Info("Stopping with event uncommitted")
				return nil
			}
			delay = min(delay*2, retryMaxDelay)
		}

		commitMessage(reader, msg, l)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func commitMessage(reader messageReader, msg kafka.Message, l logger.Logger) {
	if err := reader.CommitMessages(context.Background(), msg); err != nil {
		l.Error("Failed to commit message", err)
	}
}
