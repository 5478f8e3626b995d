package kafka

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

// NotificationHeader is a message header with the notification name
const NotificationHeader = "notification"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Sink publishes notifications to a kafka topic. Messages are keyed by
// tenant so notifications of a tenant land on the same partition
type Sink struct {
	writer messageWriter
	topic  string
}

var _ events.Sink = &Sink{}

// Publish writes the notification envelope
func (s *Sink) Publish(ctx context.Context, notification events.Notification) error {
	value, err := events.MarshalEnvelope(notification)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(notification.NotificationTenant().String()),
		Value: value,
		Time:  notification.NotificationTime(),
		Headers: []kafka.Header{
			{Key: NotificationHeader, Value: []byte(notification.NotificationName())},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrapf(err, "Failed to write %v to %v", notification.NotificationName(), s.topic)
	}
	logger.Debug(ctx, "Published %v to %v", notification.NotificationName(), s.topic)
	return nil
}

// Close flushes pending messages and closes the writer
func (s *Sink) Close() error {
	return s.writer.Close()
}

// SinkOpt is an option of the kafka sink
type SinkOpt func(s *Sink, w *kafka.Writer)

// WithWriteTimeout sets a timeout of a single write
func WithWriteTimeout(timeout time.Duration) SinkOpt {
	return func(s *Sink, w *kafka.Writer) {
		w.WriteTimeout = timeout
	}
}

func withMessageWriter(writer messageWriter) SinkOpt {
	return func(s *Sink, w *kafka.Writer) {
		s.writer = writer
	}
}

// NewSink creates a sink that writes to the topic on given brokers
func NewSink(brokers []string, topic string, opts ...SinkOpt) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("Failed to create kafka sink: no brokers")
	}
	if topic == "" {
		return nil, errors.New("Failed to create kafka sink: no topic")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	sink := &Sink{writer: writer, topic: topic}
	for _, opt := range opts {
		opt(sink, writer)
	}
	return sink, nil
}
