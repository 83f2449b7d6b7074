package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/instrument-shop/internal/cfg"
	"github.com/DRSN-tech/instrument-shop/internal/usecase"
	"github.com/DRSN-tech/instrument-shop/pkg/e"
	"github.com/DRSN-tech/instrument-shop/pkg/logger"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

// messageWriter - часть *kafka.Writer, которой пользуется Producer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer публикует события корзины в Kafka. Сообщения одной сессии попадают
// в одну партицию (ключ - id сессии), поэтому их порядок сохраняется.
type Producer struct {
	writer messageWriter
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("kafka brokers are not configured"))
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		BatchSize:    10,
		BatchTimeout: 100 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warnf("Kafka producer error: %s, dropped %d cart events", err.Error(), len(messages))
			}
		},
	}

	return newProducer(writer, logger, cfg), nil
}

func newProducer(writer messageWriter, logger logger.Logger, cfg *cfg.KafkaCfg) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		cfg:    cfg,
	}
}

// PublishCartEvent ставит событие в очередь отправки. Writer асинхронный,
// ошибки доставки приходят в Completion и только логируются.
func (p *Producer) PublishCartEvent(ctx context.Context, event *usecase.CartEvent) error {
	value, err := GetPayloadBytes(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Time:  event.OccurredAt,
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (p *Producer) EnsureTopic(timeout time.Duration) error {
	conn, err := kafka.Dial(p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions(p.cfg.Topic)
	if err == nil && len(partitions) > 0 {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		err := conn.CreateTopics(kafka.TopicConfig{
			Topic:             p.cfg.Topic,
			NumPartitions:     p.cfg.Partitions,
			ReplicationFactor: p.cfg.ReplicationFactor,
		})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), fmt.Errorf("failed to create topic %s: %w", p.cfg.Topic, err))
		}
		return nil
	case <-time.After(timeout):
		_ = conn.Close()
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("timeout: %v, topic: %s", timeout, p.cfg.Topic))
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// cartEventMessage - JSON-представление события корзины в топике.
type cartEventMessage struct {
	EventID        string `json:"event_id"`
	EventType      string `json:"event_type"`
	EventTimestamp int64  `json:"event_timestamp"` // unix nano
	SessionID      string `json:"session_id"`
	ProductID      int64  `json:"product_id,omitempty"`
	Quantity       int    `json:"quantity,omitempty"`
	CartItems      int    `json:"cart_items"`
}

func GetPayloadBytes(event *usecase.CartEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("nil cart event")
	}

	return json.Marshal(cartEventMessage{
		EventID:        event.EventID,
		EventType:      string(event.Type),
		EventTimestamp: event.OccurredAt.UnixNano(),
		SessionID:      event.SessionID,
		ProductID:      event.ProductID,
		Quantity:       event.Quantity,
		CartItems:      event.CartItems,
	})
}
