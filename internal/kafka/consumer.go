package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/errors"
	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// Events adapts an event handler to Consume. Undecodable messages are
// skipped so one bad payload cannot wedge the group.
func Events(handle func(context.Context, Event) error) func(context.Context, kafka.Message) error {
	return func(ctx context.Context, msg kafka.Message) error {
		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			logger.Warningf("skipping malformed event at offset %d: %v", msg.Offset, err)
			return nil
		}
		return errors.Trace(handle(ctx, ev))
	}
}
