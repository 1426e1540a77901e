package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"affiliate/kit/observability"
)

// Writer is the part of *kafka.Writer the relay needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	batch := cfg.BatchTimeout
	if batch <= 0 {
		batch = 10 * time.Millisecond
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batch,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// KafkaRelay exports bus events to a topic as JSON. Events implementing
// Keyed are partitioned by their key so one aggregate stays ordered.
type KafkaRelay struct {
	w      Writer
	logger *observability.Logger
}

func NewKafkaRelay(w Writer, logger *observability.Logger) *KafkaRelay {
	return &KafkaRelay{w: w, logger: logger}
}

func (r *KafkaRelay) Handle(ctx context.Context, evt Event) error {
	msg, err := Encode(evt)
	if err != nil {
		r.logger.Error("kafka relay error", "layer", "broker", "component", "kafka", "event", evt.Name(), "error", err.Error())
		return err
	}
	if err := r.w.WriteMessages(ctx, msg); err != nil {
		r.logger.Error("kafka relay error", "layer", "broker", "component", "kafka", "event", evt.Name(), "error", err.Error())
		return fmt.Errorf("broker: relay %s: %w", evt.Name(), err)
	}
	return nil
}

// Attach subscribes the relay to every listed event name.
func (r *KafkaRelay) Attach(s Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		s.Subscribe(name, r.Handle)
	}
}

func (r *KafkaRelay) Close() error {
	return r.w.Close()
}

// Encode builds the message for evt: JSON payload, event name header.
func Encode(evt Event) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("broker: encode %s: %w", evt.Name(), err)
	}
	msg := kafka.Message{
		Value:   payload,
		Headers: []kafka.Header{{Key: "event", Value: []byte(evt.Name())}},
		Time:    time.Now().UTC(),
	}
	if k, ok := evt.(Keyed); ok {
		msg.Key = []byte(k.PartitionKey())
	}
	return msg, nil
}
