// Package kafkarelay mirrors order lifecycle events to a Kafka topic so
// services outside this process can follow orders.
package kafkarelay

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"tracking/internal/core/domain/model/order"
	"tracking/internal/core/ports"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

var _ ports.EventPublisher = &Relay{}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Record is the value written for every event. The message key is the
// order id, so one order's events stay on one partition.
type Record struct {
	Event      order.EventName `json:"event"`
	Order      order.Snapshot  `json:"order"`
	OccurredAt time.Time       `json:"occurredAt"`
}

type Relay struct {
	writer messageWriter
	now    func() time.Time
}

func New(writer messageWriter) *Relay {
	return &Relay{writer: writer, now: time.Now}
}

// ParseBrokers splits a comma separated broker list.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewWriter builds an async writer. Delivery failures are reported to
// logger since WriteMessages returns before the broker acknowledges.
func NewWriter(brokers []string, topic string, logger zerolog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error().Err(err).Int("messages", len(messages)).Msg("kafka delivery failed")
			}
		},
	}
}

func (r *Relay) Publish(ctx context.Context, event order.Event) error {
	now := r.now().UTC()
	value, err := json.Marshal(Record{Event: event.Name, Order: event.Order, OccurredAt: now})
	if err != nil {
		return err
	}

	return r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Order.ID.String()),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event.Name.String())},
		},
	})
}

func (r *Relay) Close() error {
	return r.writer.Close()
}
