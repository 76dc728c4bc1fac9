package broker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type kafkaPublisher struct {
	w *kafka.Writer
}

// NewKafka writes each message to the partition picked by its key, so events of
// one customer stay ordered.
func NewKafka(brokers []string) (Publisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &kafkaPublisher{w: w}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, msg Message) error {
	return p.w.WriteMessages(ctx, kafka.Message{
		Topic: msg.Topic,
		Key:   []byte(msg.Key),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "outbox_id", Value: []byte(strconv.FormatInt(msg.ID, 10))},
		},
	})
}

func (p *kafkaPublisher) Close() error { return p.w.Close() }
