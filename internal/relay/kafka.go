package relay

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/carousell/ct-go/pkg/logger"
	"go.uber.org/fx"

	"github.com/nguyentranbao-ct/chat-server/internal/chat"
	"github.com/nguyentranbao-ct/chat-server/internal/config"
)

// NewEventRelay mirrors every outbound chat broadcast onto a Kafka topic so
// other systems can follow the stream. Disabled brokers get a noop relay.
func NewEventRelay(lc fx.Lifecycle, conf *config.Config) (chat.EventRelay, error) {
	log := logger.MustNamed("event_relay")

	if !conf.Kafka.Enabled {
		log.Infow("kafka relay is disabled")
		return noopRelay{}, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(conf.Kafka.Brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	r := &kafkaRelay{
		log:      log,
		producer: producer,
		topic:    conf.Kafka.Topic,
	}
	go r.drainErrors()

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return producer.Close()
		},
	})
	return r, nil
}

type kafkaRelay struct {
	log      *logger.Logger
	producer sarama.AsyncProducer
	topic    string
}

// Publish hands the event to the async producer without blocking. The relay
// is an observer of the chat stream, so a saturated producer drops events
// rather than slowing the hub down.
func (r *kafkaRelay) Publish(event string, payload []byte) {
	msg := &sarama.ProducerMessage{
		Topic: r.topic,
		Key:   sarama.StringEncoder(event),
		Value: sarama.ByteEncoder(payload),
	}
	select {
	case r.producer.Input() <- msg:
	default:
		r.log.Warnw("kafka producer saturated, dropping event", "event", event)
	}
}

func (r *kafkaRelay) drainErrors() {
	for err := range r.producer.Errors() {
		r.log.Warnw("failed to publish event", "error", err.Err, "topic", err.Msg.Topic)
	}
}

type noopRelay struct{}

func (noopRelay) Publish(string, []byte) {}
