package kstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"marketplace-catalog/internal/model"
)

// NewReader creates a consumer-group reader on topic.
func NewReader(broker, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        []string{broker},
		Topic:          topic,
		GroupID:        groupID, // segmentio/kafka-go: consumer group, offsets committed for us
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends catalog changes to the changes topic.
type Publisher struct {
	w MessageWriter
}

// NewPublisher constructs a kafka-go writer for topic.
func NewPublisher(broker, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same entity key -> same partition, so its changes stay ordered
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// NewPublisherWithWriter is used by tests and by callers that manage the writer.
func NewPublisherWithWriter(w MessageWriter) *Publisher {
	return &Publisher{w: w}
}

// Publish writes all changes in one call; kafka-go batches them.
func (p *Publisher) Publish(ctx context.Context, changes ...model.CatalogChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(changes))
	for _, c := range changes {
		msg, err := EncodeChange(c)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	return p.w.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

// EncodeChange turns a change into a kafka message keyed by entity.
func EncodeChange(c model.CatalogChange) (kafka.Message, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(c.Key()),
		Value: data,
		Time:  c.Timestamp,
	}, nil
}

// DecodeChange is the inverse of EncodeChange.
func DecodeChange(msg kafka.Message) (model.CatalogChange, error) {
	var c model.CatalogChange
	err := json.Unmarshal(msg.Value, &c)
	return c, err
}
