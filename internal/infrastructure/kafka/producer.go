package kafka

import (
	"context"
	"fmt"

	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/kafka/producer"
	"github.com/segmentio/kafka-go"
)

// EventProducer publishes outbox events to the gallery updates topic, keyed
// by record name so updates for one image stay ordered.
type EventProducer struct {
	*producer.Producer
	topic string
}

func NewEventProducer(producer *producer.Producer, topic string) *EventProducer {
	return &EventProducer{
		producer,
		topic,
	}
}

func (ep *EventProducer) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	var msgsToSend []kafka.Message

	for _, event := range events {
		msg := kafka.Message{
			Topic: ep.topic,
			Key:   []byte(event.AggregateID),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.ID.String())},
				{Key: "event_kind", Value: []byte(event.Kind)},
			},
		}
		msgsToSend = append(msgsToSend, msg)
	}

	if len(msgsToSend) == 0 {
		return nil
	}

	err := ep.Writer.WriteMessages(ctx, msgsToSend...)
	if err != nil {
		return fmt.Errorf("EventProducer - SendEvents - ep.Writer.WriteMessages: %w", err)
	}

	return nil
}

func (ep *EventProducer) Close() error {
	err := ep.Producer.Close()
	if err != nil {
		return fmt.Errorf("EventProducer - Close: %w", err)
	}

	return nil
}
