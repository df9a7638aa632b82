package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/segmentio/kafka-go"
)

var logger = loggo.GetLogger("ticketbari.kafka")

const retryBackoff = 200 * time.Millisecond

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

var _ Publisher = (*Producer)(nil)

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Annotate(err, "failed to marshal payload")
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return errors.Annotatef(err, "failed to write message to %s", topic)
	}

	logger.Debugf("published to %s key=%s", topic, key)
	return nil
}

// PublishWithRetry publishes through pub, making up to attempts tries
// with a linear backoff between them.
func PublishWithRetry(ctx context.Context, pub Publisher, clk clock.Clock, topic, key string, payload any, attempts int) error {
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := pub.Publish(ctx, topic, key, payload)
		if err == nil {
			return nil
		}

		lastErr = err
		logger.Warningf("publish attempt %d failed: %v", i+1, err)

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return errors.Trace(ctx.Err())
			case <-clk.After(time.Duration(i+1) * retryBackoff):
			}
		}
	}

	return errors.Annotatef(lastErr, "failed after %d attempts", attempts)
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.NotValidf("empty broker list")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return errors.Annotate(err, "failed to connect to kafka")
	}
	defer conn.Close()

	if _, err := conn.ReadPartitions(); err != nil {
		return errors.Annotate(err, "failed to read partitions")
	}
	return nil
}
