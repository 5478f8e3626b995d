package config

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

const (
	appEnvVar = "APP_ENV"

	facetVar = "APP_ENV_FACET"

	clusterNameVar = "CLUSTER_NAME"

	configDirVar = "APP_CONFIG_DIR"

	awsSSMEndpointURLVar          = "AWS_SSM_ENDPOINT_URL"
	awsSSMEndpointTokenVar        = "AWS_SSM_ENDPOINT_TOKEN"
	awsSSMEndpointTokenHeaderName = "x-access-token"
)

var logger = diag.CreateLogger()

// AppEnv represents app env
type AppEnv struct {
	// ServiceName is a name of a current service
	ServiceName string

	// Name is a env name. By default taken from APP_ENV
	Name string

	// Facet is a env facet like preprod (for production). By default taken from APP_ENV_FACET
	Facet string

	// Name of a cluster where service is running
	ClusterName string
}

// IsLocal reports if the app is running on a developer machine or in tests
func (e AppEnv) IsLocal() bool {
	return e.Name == "dev" || e.Name == "test"
}

type appEnvCfg struct {
	isTestBinary func() bool
}

type appEnvOpt func(*appEnvCfg)

func withTestBinary(isTestBinary func() bool) appEnvOpt {
	return func(cfg *appEnvCfg) {
		cfg.isTestBinary = isTestBinary
	}
}

// NewAppEnv creates a new instance of the app env from os env
// Will use "dev" by default or "test" in a test binary. Safe to call
// during package initialization
func NewAppEnv(serviceName string, opts ...appEnvOpt) AppEnv {
	cfg := appEnvCfg{
		isTestBinary: testing.Testing,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	appEnv := os.Getenv(appEnvVar)
	if appEnv == "" {
		if cfg.isTestBinary() {
			appEnv = "test"
		} else {
			appEnv = "dev"
		}
	}
	return AppEnv{
		Name:        appEnv,
		Facet:       os.Getenv(facetVar),
		ClusterName: os.Getenv(clusterNameVar),
		ServiceName: serviceName,
	}
}

// Source is an abstraction to read params
type Source interface {
	// GetParameters returns values of params found in the source.
	// Params that are not found should be omitted
	GetParameters(ctx context.Context, params []param) (map[param]interface{}, error)
}

// ServiceConfig gives access to loaded param values
type ServiceConfig interface {
	StringParam(p StringParam) StringVal
	IntParam(p IntParam) IntVal
	BoolParam(p BoolParam) BoolVal
	DurationParam(p DurationParam) DurationVal
}

type sourceBinding struct {
	params []param
	source Source
}

type serviceConfig struct {
	sources []sourceBinding
	values  map[param]paramValue

	// refresh is disabled if ticker is nil
	ticker    *time.Ticker
	refreshed chan<- bool
	stop      <-chan bool
}

func (cfg *serviceConfig) value(p param) paramValue {
	val, ok := cfg.values[p]
	if !ok {
		panic(fmt.Sprintf("Unknown parameter: %v", p))
	}
	return val
}

func (cfg *serviceConfig) StringParam(p StringParam) StringVal {
	return cfg.value(p).(StringVal)
}

func (cfg *serviceConfig) IntParam(p IntParam) IntVal {
	return cfg.value(p).(IntVal)
}

func (cfg *serviceConfig) BoolParam(p BoolParam) BoolVal {
	return cfg.value(p).(BoolVal)
}

func (cfg *serviceConfig) DurationParam(p DurationParam) DurationVal {
	return cfg.value(p).(DurationVal)
}

// ServiceConfigOpt is an option of a service config
type ServiceConfigOpt func(cfg *serviceConfig)

// WithSource binds params to a source they are loaded from
func WithSource(binding sourceBinding) ServiceConfigOpt {
	return func(cfg *serviceConfig) {
		cfg.sources = append(cfg.sources, binding)
	}
}

// WithRefresh enables periodic refresh of param values
func WithRefresh(interval time.Duration) ServiceConfigOpt {
	return func(cfg *serviceConfig) {
		cfg.ticker = time.NewTicker(interval)
	}
}

func withTicker(ticker *time.Ticker) ServiceConfigOpt {
	return func(cfg *serviceConfig) {
		cfg.ticker = ticker
	}
}

func withRefreshed(refreshed chan<- bool) ServiceConfigOpt {
	return func(cfg *serviceConfig) {
		cfg.refreshed = refreshed
	}
}

func withStop(stop <-chan bool) ServiceConfigOpt {
	return func(cfg *serviceConfig) {
		cfg.stop = stop
	}
}

func newServiceConfig(opts ...ServiceConfigOpt) *serviceConfig {
	cfg := &serviceConfig{values: map[param]paramValue{}}
	for _, opt := range opts {
		opt(cfg)
	}
	for _, binding := range cfg.sources {
		for _, p := range binding.params {
			cfg.values[p] = p.emptyValue()
		}
	}
	return cfg
}

func newConfigContext() context.Context {
	return diag.ContextWithRequestID(context.Background(), uuid.NewV4().String())
}

func loadInitialValues(cfg *serviceConfig) error {
	ctx := newConfigContext()
	logger.Info(ctx, "Loading initial config values")
	for _, binding := range cfg.sources {
		values, err := binding.source.GetParameters(ctx, binding.params)
		if err != nil {
			return err
		}
		for _, p := range binding.params {
			value, ok := values[p]
			if !ok {
				return errors.Errorf("Parameter %v not found", p)
			}
			if err := cfg.values[p].setValue(value); err != nil {
				return errors.Wrapf(err, "Failed to set value for parameter %v", p)
			}
		}
	}
	return nil
}

// refreshValues updates values from every source. Failures are logged and
// leave previous values in place
func refreshValues(cfg *serviceConfig) {
	ctx := newConfigContext()
	logger.Debug(ctx, "Refreshing config parameters")
	for _, binding := range cfg.sources {
		values, err := binding.source.GetParameters(ctx, binding.params)
		if err != nil {
			logger.WithError(err).Error(ctx, "Failed to refresh config parameters")
			continue
		}
		for _, p := range binding.params {
			value, ok := values[p]
			if !ok {
				logger.Warn(ctx, "Parameter %v not found", p)
				continue
			}
			if err := cfg.values[p].setValue(value); err != nil {
				logger.WithError(err).Error(ctx, "Failed to update parameter %v", p)
			}
		}
	}
}

func startRefreshing(cfg *serviceConfig) {
	go func() {
		for {
			select {
			case <-cfg.ticker.C:
				refreshValues(cfg)
				if cfg.refreshed != nil {
					cfg.refreshed <- true
				}
			case <-cfg.stop:
				cfg.ticker.Stop()
				return
			}
		}
	}()
}

// Load will load param values from all sources
func Load(opts ...ServiceConfigOpt) (ServiceConfig, error) {
	cfg := newServiceConfig(opts...)
	if err := loadInitialValues(cfg); err != nil {
		return nil, err
	}
	if cfg.ticker != nil {
		startRefreshing(cfg)
	}
	return cfg, nil
}
