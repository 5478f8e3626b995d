package events

//go:generate mockgen -source=events.go -destination=mocks/mock_events.go -package=mocks

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

// Notification is a domain notification produced by the core
type Notification interface {
	// NotificationName is a stable name used for routing, e.g. ledger.RideChargeRecorded
	NotificationName() string

	// NotificationTenant is a tenant the notification belongs to
	NotificationTenant() uuid.UUID

	// NotificationTime is a time the underlying fact happened
	NotificationTime() time.Time
}

// Sink accepts notifications. Delivery guarantees are sink specific
type Sink interface {
	Publish(ctx context.Context, notification Notification) error
}

// Envelope is a transport neutral representation of a notification
type Envelope struct {
	Name       string       `json:"name"`
	TenantID   string       `json:"tenantId"`
	OccurredAt time.Time    `json:"occurredAt"`
	Payload    Notification `json:"payload"`
}

// NewEnvelope wraps a notification
func NewEnvelope(notification Notification) Envelope {
	return Envelope{
		Name:       notification.NotificationName(),
		TenantID:   notification.NotificationTenant().String(),
		OccurredAt: notification.NotificationTime(),
		Payload:    notification,
	}
}

// MarshalEnvelope returns json of the notification envelope
func MarshalEnvelope(notification Notification) ([]byte, error) {
	data, err := json.Marshal(NewEnvelope(notification))
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to marshal %v", notification.NotificationName())
	}
	return data, nil
}

type logSink struct {
	logger diag.Logger
}

func (s *logSink) Publish(ctx context.Context, notification Notification) error {
	s.logger.
		WithData(diag.MsgData{"notification": NewEnvelope(notification)}).
		Info(ctx, "Notification: %v", notification.NotificationName())
	return nil
}

// NewLogSink returns a sink that just logs notifications
func NewLogSink() Sink {
	return &logSink{logger: logger}
}

type fanOutSink struct {
	sinks []Sink
}

func (s *fanOutSink) Publish(ctx context.Context, notification Notification) error {
	var failures []string
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, notification); err != nil {
			logger.WithError(err).Warn(ctx, "Sink failed to publish %v", notification.NotificationName())
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.Errorf("Failed to publish %v to %v of %v sinks: %v",
			notification.NotificationName(), len(failures), len(s.sinks), strings.Join(failures, "; "))
	}
	return nil
}

func (s *fanOutSink) Close() error {
	var failures []string
	for _, sink := range s.sinks {
		if err := Close(sink); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return errors.Errorf("Failed to close %v of %v sinks: %v", len(failures), len(s.sinks), strings.Join(failures, "; "))
	}
	return nil
}

// NewFanOutSink returns a sink that publishes to every given sink.
// All sinks are attempted even if some of them fail
func NewFanOutSink(sinks ...Sink) Sink {
	return &fanOutSink{sinks: sinks}
}

// Close releases resources of the sink if it holds any
func Close(sink Sink) error {
	if closer, ok := sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
