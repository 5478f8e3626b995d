package dal

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type sqlTx struct {
	*sql.Tx
}

type sqlStorage struct {
	db      *sql.DB
	driver  string
	dialect dialect
}

func (s *sqlStorage) Setup(ctx context.Context) error {
	logger.Info(ctx, "Setup %v storage", s.driver)
	_, err := s.db.ExecContext(ctx, s.dialect.schema())
	return errors.Wrap(err, "Failed to setup storage")
}

func (s *sqlStorage) BeginTx(ctx context.Context) (uow.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{Tx: tx}, nil
}

func (s *sqlStorage) IsTransient(err error) bool {
	return s.dialect.isTransient(err)
}

// conn returns a transaction of the active unit of work if any
func (s *sqlStorage) conn(ctx context.Context) executor {
	if tx, ok := uow.TxFromContext(ctx).(*sqlTx); ok {
		return tx.Tx
	}
	return s.db
}

// atomic runs fn in the active unit of work or in a dedicated transaction
func (s *sqlStorage) atomic(ctx context.Context, fn func(exec executor) error) error {
	if tx, ok := uow.TxFromContext(ctx).(*sqlTx); ok {
		return fn(tx.Tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "Failed to begin transaction")
	}
	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			logger.WithError(rollbackErr).Error(ctx, "Failed to rollback transaction")
		}
		return err
	}
	return errors.Wrap(tx.Commit(), "Failed to commit transaction")
}

// queryBuilder accumulates sql and positional args ($1, $2...)
type queryBuilder struct {
	sql  strings.Builder
	args []interface{}
}

func (b *queryBuilder) write(parts ...string) *queryBuilder {
	for _, part := range parts {
		b.sql.WriteString(part)
	}
	return b
}

func (b *queryBuilder) arg(value interface{}) string {
	b.args = append(b.args, value)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *queryBuilder) String() string {
	return b.sql.String()
}

func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// SQLStorageOpt is an option of SQL storage
type SQLStorageOpt func(s *sqlStorage)

// WithSQLDb will set an explicit db instance for a storage
func WithSQLDb(db *sql.DB) SQLStorageOpt {
	return func(s *sqlStorage) {
		s.db = db
	}
}

// WithDriver sets a driver name the db was opened with, sqlite3 by default
func WithDriver(driver string) SQLStorageOpt {
	return func(s *sqlStorage) {
		s.driver = driver
	}
}

// NewSQLStorage returns an instance of a sql storage
func NewSQLStorage(opts ...SQLStorageOpt) (Storage, error) {
	storage := &sqlStorage{driver: "sqlite3"}
	for _, opt := range opts {
		opt(storage)
	}
	if storage.db == nil {
		return nil, errors.New("Failed to create storage: db is required")
	}
	d, err := dialectFor(storage.driver)
	if err != nil {
		return nil, err
	}
	storage.dialect = d
	return storage, nil
}

// DBConfig is a db connection settings
type DBConfig struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenDB opens and pings a db
func OpenDB(ctx context.Context, cfg DBConfig) (*sql.DB, error) {
	if _, err := dialectFor(cfg.Driver); err != nil {
		return nil, err
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open %v db", cfg.Driver)
	}

	// Every connection to sqlite in-memory db is a separate db
	if cfg.Driver == "sqlite3" && strings.Contains(cfg.DSN, ":memory:") {
		cfg.MaxOpenConns = 1
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "Failed to ping %v db", cfg.Driver)
	}
	return db, nil
}
