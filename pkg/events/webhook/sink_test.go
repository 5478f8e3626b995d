package webhook

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/stretchr/testify/assert"
	"gopkg.in/h2non/gock.v1"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/request"
)

type testNotification struct {
	Tenant uuid.UUID `json:"tenant"`
	Value  string    `json:"value"`
}

func (n *testNotification) NotificationName() string      { return "test.Happened" }
func (n *testNotification) NotificationTenant() uuid.UUID { return n.Tenant }
func (n *testNotification) NotificationTime() time.Time   { return time.Unix(0, 0).UTC() }

func envelopeJSON(t *testing.T, notification events.Notification) map[string]interface{} {
	data, err := events.MarshalEnvelope(notification)
	if !assert.NoError(t, err) {
		return nil
	}
	var result map[string]interface{}
	assert.NoError(t, json.Unmarshal(data, &result))
	return result
}

func TestNewSink(t *testing.T) {
	_, err := NewSink("")
	assert.Error(t, err)

	s, err := NewSink("http://"+faker.DomainName(), WithTimeout(time.Second), WithMaxRetries(5))
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, time.Second, s.(*sink).timeout)
	assert.Equal(t, uint64(5), s.(*sink).maxRetries)
}

func TestSink_Publish(t *testing.T) {
	baseURL := "http://" + faker.DomainName()
	path := "/v1/notifications"

	type testCase struct {
		name string
		opts []SinkOpt
		run  func(t *testing.T, s events.Sink)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name: "post envelope",
				run: func(t *testing.T, s events.Sink) {
					notification := &testNotification{Tenant: uuid.NewV4(), Value: faker.Word()}
					requestID := faker.UUIDHyphenated()
					gock.New(baseURL).
						Post(path).
						MatchHeader(NotificationHeader, "test.Happened").
						MatchHeader(TenantIDHeader, notification.Tenant.String()).
						MatchHeader(diag.RequestIDHeader, requestID).
						JSON(envelopeJSON(t, notification)).
						Reply(202)

					err := s.Publish(diag.ContextWithRequestID(context.Background(), requestID), notification)
					if !assert.NoError(t, err) {
						return
					}
					assert.True(t, gock.IsDone())
				},
			}
		},
		func() testCase {
			return testCase{
				name: "fail on non 2xx response",
				opts: []SinkOpt{WithMaxRetries(0)},
				run: func(t *testing.T, s events.Sink) {
					notification := &testNotification{Tenant: uuid.NewV4(), Value: faker.Word()}
					code := rand.Intn(200) + 400
					gock.New(baseURL).
						Post(path).
						Reply(code).
						BodyString("Something went wrong")

					err := s.Publish(context.Background(), notification)
					var httpErr request.HTTPError
					if !assert.True(t, errors.As(err, &httpErr)) {
						return
					}
					assert.Equal(t, code, httpErr.StatusCode)
					assert.Equal(t, "Something went wrong", httpErr.Body)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "retry server errors",
				opts: []SinkOpt{WithMaxRetries(1)},
				run: func(t *testing.T, s events.Sink) {
					notification := &testNotification{Tenant: uuid.NewV4(), Value: faker.Word()}
					gock.New(baseURL).Post(path).Reply(503)
					gock.New(baseURL).Post(path).JSON(envelopeJSON(t, notification)).Reply(202)

					if err := s.Publish(context.Background(), notification); !assert.NoError(t, err) {
						return
					}
					assert.True(t, gock.IsDone())
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			s, err := NewSink(baseURL+path, tt.opts...)
			if !assert.NoError(t, err) {
				return
			}
			tt.run(t, s)
		})
	}
}
