package config

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSource struct {
	err        error
	parameters map[param]interface{}
	mock.Mock
}

func (s *mockSource) GetParameters(ctx context.Context, params []param) (map[param]interface{}, error) {
	if len(s.ExpectedCalls) > 0 {
		args := s.Called(params)
		return args.Get(0).(map[param]interface{}), args.Error(1)
	}
	return s.parameters, s.err
}

func bindSource(source Source, params ...param) ServiceConfigOpt {
	return WithSource(sourceBinding{params: params, source: source})
}

func TestNewAppEnv(t *testing.T) {
	serviceName := "svc-" + faker.Word()
	notTestBinary := withTestBinary(func() bool { return false })

	t.Run("dev outside of tests", func(t *testing.T) {
		t.Setenv(appEnvVar, "")
		assert.Equal(t, AppEnv{Name: "dev", ServiceName: serviceName}, NewAppEnv(serviceName, notTestBinary))
	})

	t.Run("test when running tests", func(t *testing.T) {
		t.Setenv(appEnvVar, "")
		assert.Equal(t, AppEnv{Name: "test", ServiceName: serviceName}, NewAppEnv(serviceName))
	})

	t.Run("from env vars", func(t *testing.T) {
		want := AppEnv{
			Name:        "env-" + faker.Word(),
			Facet:       "facet-" + faker.Word(),
			ClusterName: "cluster-" + faker.Word(),
			ServiceName: serviceName,
		}
		t.Setenv(appEnvVar, want.Name)
		t.Setenv(facetVar, want.Facet)
		t.Setenv(clusterNameVar, want.ClusterName)
		assert.Equal(t, want, NewAppEnv(serviceName, notTestBinary))
	})
}

func TestAppEnv_IsLocal(t *testing.T) {
	for _, name := range []string{"dev", "test"} {
		assert.True(t, AppEnv{Name: name}.IsLocal(), name)
	}
	for _, name := range []string{"staging", "production", ""} {
		assert.False(t, AppEnv{Name: name}.IsLocal(), name)
	}
}

func TestLoad(t *testing.T) {
	type testCase struct {
		name   string
		opts   []ServiceConfigOpt
		assert func(t *testing.T, cfg ServiceConfig, err error)
	}
	tests := []func() testCase{
		func() testCase {
			port := newIntParam("server/port", "")
			driver := newStringParam("storage/driver", "")
			debug := newBoolParam("log/debug", "")
			lifetime := newDurationParam("storage/conn-max-lifetime", "")
			dsn := newStringParam("storage/dsn", "")

			portVal := rand.Intn(65535)
			lifetimeVal := time.Duration(rand.Intn(60)+1) * time.Minute
			local := &mockSource{parameters: map[param]interface{}{
				port:     float64(portVal),
				driver:   "driver-" + faker.Word(),
				debug:    "true",
				lifetime: lifetimeVal.String(),
			}}
			remote := &mockSource{parameters: map[param]interface{}{
				dsn: "dsn-" + faker.Word(),
			}}
			return testCase{
				name: "values from every source",
				opts: []ServiceConfigOpt{
					bindSource(local, port, driver, debug, lifetime),
					bindSource(remote, dsn),
				},
				assert: func(t *testing.T, cfg ServiceConfig, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, portVal, cfg.IntParam(port).Value())
					assert.Equal(t, local.parameters[driver], cfg.StringParam(driver).Value())
					assert.True(t, cfg.BoolParam(debug).Value())
					assert.Equal(t, lifetimeVal, cfg.DurationParam(lifetime).Value())
					assert.Equal(t, remote.parameters[dsn], cfg.StringParam(dsn).Value())
				},
			}
		},
		func() testCase {
			present := newIntParam("present-"+faker.Word(), "")
			missing := newStringParam("missing-"+faker.Word(), "")
			source := &mockSource{parameters: map[param]interface{}{present: rand.Int()}}
			return testCase{
				name: "param is missing",
				opts: []ServiceConfigOpt{bindSource(source, present, missing)},
				assert: func(t *testing.T, cfg ServiceConfig, err error) {
					assert.EqualError(t, err, fmt.Sprintf("Parameter %v not found", missing))
				},
			}
		},
		func() testCase {
			attempts := newIntParam("attempts-"+faker.Word(), "")
			badVal := "not-a-number-" + faker.Word()
			source := &mockSource{parameters: map[param]interface{}{attempts: badVal}}
			return testCase{
				name: "param of a wrong type",
				opts: []ServiceConfigOpt{bindSource(source, attempts)},
				assert: func(t *testing.T, cfg ServiceConfig, err error) {
					assert.EqualError(t, err, fmt.Sprintf(
						"Failed to set value for parameter %v: Expected int value but got: %v(%[2]T)", attempts, badVal,
					))
				},
			}
		},
		func() testCase {
			sourceErr := errors.New(faker.Sentence())
			return testCase{
				name: "source fails",
				opts: []ServiceConfigOpt{bindSource(&mockSource{err: sourceErr}, newIntParam(faker.Word(), ""))},
				assert: func(t *testing.T, cfg ServiceConfig, err error) {
					assert.Equal(t, sourceErr, errors.Cause(err))
				},
			}
		},
		func() testCase {
			undeclared := newBoolParam("undeclared-"+faker.Word(), "")
			return testCase{
				name: "undeclared param",
				opts: []ServiceConfigOpt{bindSource(&mockSource{parameters: map[param]interface{}{}})},
				assert: func(t *testing.T, cfg ServiceConfig, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.PanicsWithValue(t, fmt.Sprintf("Unknown parameter: %v", undeclared), func() {
						cfg.BoolParam(undeclared)
					})
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opts...)
			tt.assert(t, cfg, err)
		})
	}
}

// refreshingConfig drives refresh cycles of a loaded config manually
type refreshingConfig struct {
	ServiceConfig
	tick      chan time.Time
	refreshed chan bool
	stop      chan bool
}

func (c *refreshingConfig) refresh() {
	c.tick <- time.Now()
	<-c.refreshed
}

func loadRefreshing(t *testing.T, opts ...ServiceConfigOpt) (*refreshingConfig, bool) {
	c := &refreshingConfig{
		tick:      make(chan time.Time),
		refreshed: make(chan bool),
		stop:      make(chan bool),
	}
	cfg, err := Load(append(opts,
		withTicker(&time.Ticker{C: c.tick}),
		withRefreshed(c.refreshed),
		withStop(c.stop),
	)...)
	if !assert.NoError(t, err) {
		return nil, false
	}
	c.ServiceConfig = cfg
	t.Cleanup(func() { c.stop <- true })
	return c, true
}

func TestRefresh(t *testing.T) {
	t.Run("new values of all sources", func(t *testing.T) {
		sink := newStringParam("events/sink", "")
		url := newStringParam("events/webhook/url", "")
		local := &mockSource{parameters: map[param]interface{}{sink: "log"}}
		remote := &mockSource{parameters: map[param]interface{}{url: "http://" + faker.DomainName()}}
		cfg, ok := loadRefreshing(t, bindSource(local, sink), bindSource(remote, url))
		if !ok {
			return
		}
		local.parameters[sink] = "kafka"
		remote.parameters[url] = "http://" + faker.DomainName()
		cfg.refresh()
		assert.Equal(t, "kafka", cfg.StringParam(sink).Value())
		assert.Equal(t, remote.parameters[url], cfg.StringParam(url).Value())
	})

	t.Run("bad value keeps previous one", func(t *testing.T) {
		level := newStringParam("log/level", "")
		port := newIntParam("server/port", "")
		source := &mockSource{parameters: map[param]interface{}{level: "info", port: 8080}}
		cfg, ok := loadRefreshing(t, bindSource(source, level, port))
		if !ok {
			return
		}
		source.parameters[level] = "debug"
		source.parameters[port] = "port-" + faker.Word()
		cfg.refresh()
		assert.Equal(t, "debug", cfg.StringParam(level).Value())
		assert.Equal(t, 8080, cfg.IntParam(port).Value())
	})

	t.Run("failed source does not stop others", func(t *testing.T) {
		dsn := newStringParam("storage/dsn", "")
		topic := newStringParam("events/kafka/topic", "")
		failing := &mockSource{parameters: map[param]interface{}{dsn: "dsn-" + faker.Word()}}
		healthy := &mockSource{parameters: map[param]interface{}{topic: "topic-" + faker.Word()}}
		cfg, ok := loadRefreshing(t, bindSource(failing, dsn), bindSource(healthy, topic))
		if !ok {
			return
		}
		initialDSN := failing.parameters[dsn]
		failing.On("GetParameters", mock.Anything).Return(map[param]interface{}{}, errors.New(faker.Sentence()))
		healthy.parameters[topic] = "topic-" + faker.Word()
		cfg.refresh()
		assert.Equal(t, initialDSN, cfg.StringParam(dsn).Value())
		assert.Equal(t, healthy.parameters[topic], cfg.StringParam(topic).Value())
	})

	t.Run("missing value keeps previous one", func(t *testing.T) {
		topic := newStringParam("events/kafka/topic", "")
		source := &mockSource{parameters: map[param]interface{}{topic: "topic-" + faker.Word()}}
		cfg, ok := loadRefreshing(t, bindSource(source, topic))
		if !ok {
			return
		}
		initial := source.parameters[topic]
		delete(source.parameters, topic)
		cfg.refresh()
		assert.Equal(t, initial, cfg.StringParam(topic).Value())
	})
}
