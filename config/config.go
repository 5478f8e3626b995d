package config

import (
	"strings"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/config"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/version"
)

var appEnv = config.NewAppEnv(version.AppName)
var configBuilder = config.NewBuilder(appEnv)

var localParams = configBuilder.Local()
var remoteParams = configBuilder.Remote()

// Do not change vars below at runtime
var (
	LogLevel = localParams.String("log/level")

	ServerPort = localParams.Int("server/port")

	StorageDriver          = localParams.String("storage/driver")
	StorageDSN             = remoteParams.String("storage/data-source-name")
	StorageMaxOpenConns    = localParams.Int("storage/max-open-conns")
	StorageMaxIdleConns    = localParams.Int("storage/max-idle-conns")
	StorageConnMaxLifetime = localParams.Duration("storage/conn-max-lifetime")

	LedgerRetryMaxAttempts = localParams.Int("ledger/retry/max-attempts")
	LedgerCreatedBy        = localParams.String("ledger/created-by")

	EventsSink         = localParams.String("events/sink")
	EventsKafkaBrokers = localParams.String("events/kafka/brokers")
	EventsKafkaTopic   = localParams.String("events/kafka/topic")
	EventsWebhookURL   = remoteParams.String("events/webhook/url")
)

// Log represents logger specific options
type Log struct {
	Level config.StringVal
}

// Server represents http server settings
type Server struct {
	Port config.IntVal
}

// Storage represents storage settings
type Storage struct {
	Driver          config.StringVal
	DSN             config.StringVal
	MaxOpenConns    config.IntVal
	MaxIdleConns    config.IntVal
	ConnMaxLifetime config.DurationVal
}

// Ledger represents ledger core settings
type Ledger struct {
	RetryMaxAttempts config.IntVal
	CreatedBy        config.StringVal
}

// Kafka represents kafka sink settings
type Kafka struct {
	Brokers config.StringVal
	Topic   config.StringVal
}

// BrokersList returns comma separated brokers as a list
func (k Kafka) BrokersList() []string {
	brokers := []string{}
	for _, broker := range strings.Split(k.Brokers.Value(), ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

// Webhook represents webhook sink settings
type Webhook struct {
	URL config.StringVal
}

// Events represents notification sinks settings
type Events struct {
	Sink    config.StringVal
	Kafka   Kafka
	Webhook Webhook
}

// AppConfig is a toplevel config structure
type AppConfig struct {
	Env     config.AppEnv
	Log     Log
	Server  Server
	Storage Storage
	Ledger  Ledger
	Events  Events
}

// LoadAppConfig will load and initialize app config structure
func LoadAppConfig() (*AppConfig, error) {
	cfg, err := configBuilder.LoadConfig()
	if err != nil {
		return nil, err
	}

	appCfg := AppConfig{
		Env: appEnv,
		Log: Log{
			Level: cfg.StringParam(LogLevel),
		},
		Server: Server{
			Port: cfg.IntParam(ServerPort),
		},
		Storage: Storage{
			Driver:          cfg.StringParam(StorageDriver),
			DSN:             cfg.StringParam(StorageDSN),
			MaxOpenConns:    cfg.IntParam(StorageMaxOpenConns),
			MaxIdleConns:    cfg.IntParam(StorageMaxIdleConns),
			ConnMaxLifetime: cfg.DurationParam(StorageConnMaxLifetime),
		},
		Ledger: Ledger{
			RetryMaxAttempts: cfg.IntParam(LedgerRetryMaxAttempts),
			CreatedBy:        cfg.StringParam(LedgerCreatedBy),
		},
		Events: Events{
			Sink: cfg.StringParam(EventsSink),
			Kafka: Kafka{
				Brokers: cfg.StringParam(EventsKafkaBrokers),
				Topic:   cfg.StringParam(EventsKafkaTopic),
			},
			Webhook: Webhook{
				URL: cfg.StringParam(EventsWebhookURL),
			},
		},
	}

	return &appCfg, nil
}
