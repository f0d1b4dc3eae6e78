package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"

	"github.com/example/product-catalog/internal/listener"
)

// Transport subscribes listeners to Kafka topics. Each subscription gets
// its own reader so topic failures stay independent.
type Transport struct {
	brokers []string
	groupID string
}

func NewTransport(brokers []string, groupID string) *Transport {
	return &Transport{brokers: brokers, groupID: groupID}
}

func (t *Transport) Subscribe(ctx context.Context, topic string) (listener.Subscription, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  t.brokers,
		Topic:    topic,
		GroupID:  t.groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &subscription{reader: reader}, nil
}

type subscription struct {
	reader *kafka.Reader
}

// Next blocks until a message arrives; messages are delivered one at a
// time so handling stays strictly sequential per topic.
func (s *subscription) Next(ctx context.Context) ([]byte, error) {
	msg, err := s.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Value, nil
}

func (s *subscription) Close() error {
	return s.reader.Close()
}
