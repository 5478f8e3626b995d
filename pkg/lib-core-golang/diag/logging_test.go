package diag

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tst "github.com/evgeny-myasishchev/ledger.accounting/pkg/internal/testing"

	"github.com/bxcodec/faker/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func Test_logrusLogger_log(t *testing.T) {
	type args struct {
		ctx   context.Context
		level logrus.Level
		msg   string
		args  []interface{}
	}
	type testCase struct {
		name string
		args args
		want func(t *testing.T, actual map[string]interface{})
	}

	tests := []func() testCase{
		func() testCase {
			msg := faker.Sentence()
			return testCase{
				name: "regular msg",
				args: args{msg: msg, level: logrus.InfoLevel},
				want: func(t *testing.T, actual map[string]interface{}) {
					assert.Equal(t, msg, actual["msg"])
					assert.Equal(t, float64(1), actual["v"])
					assert.NotContains(t, actual, "context")
				},
			}
		},
		func() testCase {
			return testCase{
				name: "formatted msg",
				args: args{
					msg:   "Formatted msg %s",
					args:  []interface{}{"val1"},
					level: logrus.InfoLevel,
				},
				want: func(t *testing.T, actual map[string]interface{}) {
					assert.Equal(t, "Formatted msg val1", actual["msg"])
				},
			}
		},
		func() testCase {
			requestID := faker.Word()
			tenantID := faker.Word()
			ctx := ContextWithTenantID(ContextWithRequestID(context.Background(), requestID), tenantID)
			return testCase{
				name: "with request and tenant from context",
				args: args{ctx: ctx, msg: "Some msg", level: logrus.InfoLevel},
				want: func(t *testing.T, actual map[string]interface{}) {
					assert.Equal(t, map[string]interface{}{
						"requestID": requestID,
						"tenantID":  tenantID,
					}, actual["context"])
				},
			}
		},
	}
	for _, ttFn := range tests {
		tt := ttFn()
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			logger := newLogrusLogger(&out)
			logger.log(tt.args.ctx, tt.args.level, tt.args.msg, tt.args.args...)

			actual := map[string]interface{}{}
			tst.MustDecodeJSON(&out, &actual)
			tt.want(t, actual)
		})
	}
}

func Test_logrusLogger_levelFilter(t *testing.T) {
	var out bytes.Buffer
	logger := newLogrusLogger(&out)
	logger.root.SetLevel(logrus.WarnLevel)
	logger.Info(context.Background(), faker.Sentence())
	logger.Debug(context.Background(), faker.Sentence())
	assert.Equal(t, 0, out.Len())
	logger.Warn(context.Background(), faker.Sentence())
	assert.NotEqual(t, 0, out.Len())
}

func Test_Logger_Methods(t *testing.T) {
	now := time.Now()
	type testCase struct {
		name   string
		level  string
		method func(logger Logger, msg string)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name:   "error message",
				level:  "error",
				method: func(logger Logger, msg string) { logger.Error(nil, msg) },
			}
		},
		func() testCase {
			return testCase{
				name:   "warn message",
				level:  "warning",
				method: func(logger Logger, msg string) { logger.Warn(nil, msg) },
			}
		},
		func() testCase {
			return testCase{
				name:   "info message",
				level:  "info",
				method: func(logger Logger, msg string) { logger.Info(nil, msg) },
			}
		},
		func() testCase {
			return testCase{
				name:   "debug message",
				level:  "debug",
				method: func(logger Logger, msg string) { logger.Debug(nil, msg) },
			}
		},
	}
	for _, ttFn := range tests {
		tt := ttFn()
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			msg := faker.Sentence()
			err := errors.New(faker.Sentence())
			msgData := map[string]interface{}{
				"field1": faker.Word(),
				"field2": faker.Word(),
			}
			logger := newLogrusLogger(&out).withTime(now)
			tt.method(logger.WithError(err).WithData(msgData), msg)

			got := map[string]interface{}{}
			tst.MustDecodeJSON(&out, &got)

			assert.Equal(t, map[string]interface{}{
				"level":   tt.level,
				"msg":     msg,
				"time":    now.Format(time.RFC3339),
				"error":   err.Error(),
				"msgData": msgData,
				"v":       float64(1),
			}, got)
		})
	}
}
