package app

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/evgeny-myasishchev/ledger.accounting/config"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/accounts"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/api"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events/kafka"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events/webhook"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/ledger"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/router"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

// Injector is a function that will inject desired services
// to a target function
type Injector func(function interface{}) error

// Supported notification sinks
const (
	LogSink     = "log"
	KafkaSink   = "kafka"
	WebhookSink = "webhook"
)

func newNamedSink(appCfg *config.AppConfig, name string) (events.Sink, error) {
	switch name {
	case LogSink:
		return events.NewLogSink(), nil
	case KafkaSink:
		return kafka.NewSink(appCfg.Events.Kafka.BrokersList(), appCfg.Events.Kafka.Topic.Value())
	case WebhookSink:
		return webhook.NewSink(appCfg.Events.Webhook.URL.Value())
	}
	return nil, errors.Errorf("Unknown events sink: %v", name)
}

// newSink builds sinks listed in events/sink, e.g. "log,kafka".
// Several sinks are combined with a fan out sink
func newSink(appCfg *config.AppConfig) (events.Sink, error) {
	sinks := []events.Sink{}
	for _, name := range strings.Split(appCfg.Events.Sink.Value(), ",") {
		if name = strings.TrimSpace(name); name == "" {
			continue
		}
		sink, err := newNamedSink(appCfg, name)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	switch len(sinks) {
	case 0:
		return events.NewLogSink(), nil
	case 1:
		return sinks[0], nil
	}
	return events.NewFanOutSink(sinks...), nil
}

// BootstrapServices setup di container with all app services
func BootstrapServices(ctx context.Context, appCfg *config.AppConfig) Injector {
	c := dig.New()

	provide := func(constructor interface{}) {
		if err := c.Provide(constructor); err != nil {
			panic(err)
		}
	}

	provide(func() (*sql.DB, error) {
		return dal.OpenDB(ctx, dal.DBConfig{
			Driver:          appCfg.Storage.Driver.Value(),
			DSN:             appCfg.Storage.DSN.Value(),
			MaxOpenConns:    appCfg.Storage.MaxOpenConns.Value(),
			MaxIdleConns:    appCfg.Storage.MaxIdleConns.Value(),
			ConnMaxLifetime: appCfg.Storage.ConnMaxLifetime.Value(),
		})
	})

	provide(func(db *sql.DB) (dal.Storage, error) {
		return dal.NewSQLStorage(
			dal.WithSQLDb(db),
			dal.WithDriver(appCfg.Storage.Driver.Value()),
		)
	})

	provide(func(storage dal.Storage) *uow.Boundary {
		return uow.NewBoundary(
			uow.WithTransactor(storage),
			uow.WithTransientErrors(storage.IsTransient),
			uow.WithMaxAttempts(appCfg.Ledger.RetryMaxAttempts.Value()),
		)
	})

	provide(func() (events.Sink, error) {
		return newSink(appCfg)
	})

	provide(func(storage dal.Storage, sink events.Sink, boundary *uow.Boundary) ledger.Service {
		return ledger.NewTransactionalService(ledger.NewService(
			ledger.WithStorage(storage),
			ledger.WithSink(sink),
			ledger.WithCreatedBy(appCfg.Ledger.CreatedBy.Value()),
		), boundary)
	})

	provide(func(storage dal.Storage, sink events.Sink, boundary *uow.Boundary) accounts.Service {
		return accounts.NewTransactionalService(accounts.NewService(
			accounts.WithStorage(storage),
			accounts.WithSink(sink),
		), boundary)
	})

	provide(func(ledgerSvc ledger.Service, accountsSvc accounts.Service) router.Router {
		return api.NewRouter(
			api.WithLedger(ledgerSvc),
			api.WithAccounts(accountsSvc),
		)
	})

	return func(function interface{}) error {
		return c.Invoke(function)
	}
}

// Shutdown releases the notification sink and the database
// of services created by the injector
func Shutdown(injector Injector) error {
	return injector(func(sink events.Sink, db *sql.DB) error {
		sinkErr := events.Close(sink)
		if err := db.Close(); err != nil {
			return errors.Wrap(err, "Failed to close database")
		}
		return errors.Wrap(sinkErr, "Failed to close events sink")
	})
}
