package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent() *usecase.CartEvent {
	return &usecase.CartEvent{
		EventID:    "evt-1",
		Type:       usecase.CartItemAdded,
		SessionID:  "s1",
		ProductID:  7,
		Quantity:   2,
		CartItems:  1,
		OccurredAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestGetPayloadBytes(t *testing.T) {
	data, err := GetPayloadBytes(testEvent())
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"event_id": "evt-1",
		"event_type": "cart.item_added",
		"event_timestamp": 1700000000000000000,
		"session_id": "s1",
		"product_id": 7,
		"quantity": 2,
		"cart_items": 1
	}`, string(data))

	_, err = GetPayloadBytes(nil)
	require.Error(t, err)
}

func TestProducer_PublishCartEventKeysBySession(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, logger.NewNop(), &cfg.KafkaCfg{Topic: "cart-events"})

	require.NoError(t, p.PublishCartEvent(context.Background(), testEvent()))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("s1"), w.msgs[0].Key)
	assert.Equal(t, testEvent().OccurredAt, w.msgs[0].Time)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishCartEventError(t *testing.T) {
	boom := errors.New("broker unreachable")
	p := newProducer(&fakeWriter{err: boom}, logger.NewNop(), &cfg.KafkaCfg{})

	err := p.PublishCartEvent(context.Background(), testEvent())
	require.ErrorIs(t, err, boom)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(logger.NewNop(), &cfg.KafkaCfg{})
	require.Error(t, err)

	p, err := NewProducer(logger.NewNop(), &cfg.KafkaCfg{Brokers: []string{"localhost:9092"}, Topic: "cart-events"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}
