package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/encorestage/encore/pkg/logger"
)

// scriptedReader serves queued messages, then blocks until ctx ends. It
// records the commits like a group coordinator: the committed position is
// the last committed offset plus one.
type scriptedReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *scriptedReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func messages(values ...string) []kafka.Message {
	out := make([]kafka.Message, len(values))
	for i, v := range values {
		out[i] = kafka.Message{Offset: int64(5 + i), Value: []byte(v)}
	}
	return out
}

func TestRunConsumer_FailedEventIsRetriedBeforeLaterOnes(t *testing.T) {
	reader := &scriptedReader{queue: messages("a", "b")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu      sync.Mutex
		handled []string
		fails   = 2
	)
	handle := func(_ context.Context, value []byte) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, string(value))
		if string(value) == "a" && fails > 0 {
			fails--
			return true, errors.New("storage unavailable")
		}
		if string(value) == "b" {
			cancel()
		}
		return true, nil
	}

	err := runConsumer(ctx, reader, logger.NewNop(), handle, time.Millisecond)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "a", "a", "b"}, handled)
	assert.Equal(t, []int64{5, 6}, reader.commits())
}

func TestRunConsumer_StopsWithoutCommittingAFailingEvent(t *testing.T) {
	reader := &scriptedReader{queue: messages("a", "b")}
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	handle := func(_ context.Context, value []byte) (bool, error) {
		require.Equal(t, "a", string(value), "later events must wait for the failing one")
		attempts++
		if attempts == 3 {
			cancel()
		}
		return true, errors.New("connection refused")
	}

	err := runConsumer(ctx, reader, logger.NewNop(), handle, time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, 3, attempts)
	assert.Empty(t, reader.commits())
}

func TestRunConsumer_UndecodableEventIsCommittedAndSkipped(t *testing.T) {
	reader := &scriptedReader{queue: messages("garbage", "ok")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handle := func(_ context.Context, value []byte) (bool, error) {
		if string(value) == "garbage" {
			return false, errors.New("invalid character 'g'")
		}
		cancel()
		return true, nil
	}

	require.NoError(t, runConsumer(ctx, reader, logger.NewNop(), handle, time.Millisecond))
	assert.Equal(t, []int64{5, 6}, reader.commits())
}
