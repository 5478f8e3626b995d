package webhook

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/request"
)

var logger = diag.CreateLogger()

// Headers sent along with the notification envelope
const (
	NotificationHeader = "X-Notification"
	TenantIDHeader     = "X-Tenant-ID"
)

type sink struct {
	url        string
	timeout    time.Duration
	maxRetries uint64
}

func (s *sink) retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = s.timeout
	return backoff.WithMaxRetries(policy, s.maxRetries)
}

func (s *sink) Publish(ctx context.Context, notification events.Notification) error {
	factory := request.PostJSON(s.url, events.NewEnvelope(notification)).
		WithHeader(NotificationHeader, notification.NotificationName()).
		WithHeader(TenantIDHeader, notification.NotificationTenant().String())
	if requestID := diag.RequestIDValue(ctx); requestID != "" {
		factory = factory.WithHeader(diag.RequestIDHeader, requestID)
	}
	if err := request.Do(ctx, factory, request.WithTimeout(s.timeout), request.WithRetry(s.retryPolicy)).Close(); err != nil {
		return errors.Wrapf(err, "Failed to post %v", notification.NotificationName())
	}
	logger.Debug(ctx, "Posted %v to %v", notification.NotificationName(), s.url)
	return nil
}

// SinkOpt is an option of the webhook sink
type SinkOpt func(s *sink)

// WithTimeout sets a timeout of a single post
func WithTimeout(timeout time.Duration) SinkOpt {
	return func(s *sink) {
		s.timeout = timeout
	}
}

// WithMaxRetries sets how many times a post failed with 5xx or a network
// error is repeated
func WithMaxRetries(maxRetries uint64) SinkOpt {
	return func(s *sink) {
		s.maxRetries = maxRetries
	}
}

// NewSink returns a sink that posts notification envelopes to the url
func NewSink(url string, opts ...SinkOpt) (events.Sink, error) {
	if url == "" {
		return nil, errors.New("Failed to create webhook sink: no url")
	}
	s := &sink{url: url, timeout: 10 * time.Second, maxRetries: 2}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
