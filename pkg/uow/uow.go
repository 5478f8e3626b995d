package uow

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
)

var logger = diag.CreateLogger()

// Kind is a declared kind of an operation
type Kind int

const (
	// Query is a read only operation, it never runs in a unit of work
	Query Kind = iota

	// Command is a state changing operation
	Command
)

func (k Kind) String() string {
	if k == Command {
		return "command"
	}
	return "query"
}

// Operation describes an operation executed by the boundary
type Operation struct {
	Name string
	Kind Kind
}

// NewCommand returns a command operation
func NewCommand(name string) Operation {
	return Operation{Name: name, Kind: Command}
}

// NewQuery returns a query operation
func NewQuery(name string) Operation {
	return Operation{Name: name, Kind: Query}
}

// Tx is a data store transaction
type Tx interface {
	Commit() error
	Rollback() error
}

// Transactor starts data store transactions
type Transactor interface {
	BeginTx(ctx context.Context) (Tx, error)
}

// TransientErrorFunc reports whether the error is a transient
// infrastructure failure that is worth to retry
type TransientErrorFunc func(err error) bool

// AfterCommitHook is invoked once a unit of work is committed
type AfterCommitHook func(ctx context.Context)

type unit struct {
	tx    Tx
	hooks []AfterCommitHook
}

type contextKey string

const unitKey contextKey = "unit-of-work"

func unitFromContext(ctx context.Context) *unit {
	u, _ := ctx.Value(unitKey).(*unit)
	return u
}

// TxFromContext returns a transaction of an active unit of work or nil
func TxFromContext(ctx context.Context) Tx {
	if u := unitFromContext(ctx); u != nil {
		return u.tx
	}
	return nil
}

// InUnitOfWork reports whether the context belongs to an active unit of work
func InUnitOfWork(ctx context.Context) bool {
	return unitFromContext(ctx) != nil
}

// AfterCommit registers a hook to run when the active unit of work commits.
// Hooks are dropped if the unit is rolled back. With no active unit the hook runs immediately
func AfterCommit(ctx context.Context, hook AfterCommitHook) {
	if u := unitFromContext(ctx); u != nil {
		u.hooks = append(u.hooks, hook)
		return
	}
	hook(ctx)
}

// Boundary runs commands in a unit of work
type Boundary struct {
	transactor  Transactor
	isTransient TransientErrorFunc
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// Execute runs fn according to the declared kind of an operation.
//
// Queries and nested invocations are passed through. Commands are executed
// in a new unit of work that is committed if fn succeeds or rolled back otherwise.
// Errors of fn are returned unchanged. Transient failures are retried up to
// max attempts, fn must be safe to re-execute.
func (b *Boundary) Execute(ctx context.Context, op Operation, fn func(ctx context.Context) error) error {
	if op.Kind != Command {
		return fn(ctx)
	}
	if InUnitOfWork(ctx) {
		logger.Debug(ctx, "Unit of work is active, running %v in it", op.Name)
		return fn(ctx)
	}

	attempt := 0
	policy := backoff.WithContext(
		backoff.WithMaxRetries(b.newBackOff(), uint64(b.maxAttempts-1)),
		ctx,
	)
	return backoff.RetryNotify(
		func() error {
			attempt++
			err := b.run(ctx, op, fn)
			if err == nil {
				return nil
			}
			if ctx.Err() == nil && b.isTransient(errors.Cause(err)) {
				return err
			}
			return backoff.Permanent(err)
		},
		policy,
		func(err error, next time.Duration) {
			logger.
				WithError(err).
				WithData(diag.MsgData{"attempt": attempt, "maxAttempts": b.maxAttempts}).
				Warn(ctx, "Transient failure of %v, retrying in %v", op.Name, next)
		},
	)
}

func (b *Boundary) run(ctx context.Context, op Operation, fn func(ctx context.Context) error) (err error) {
	tx, err := b.transactor.BeginTx(ctx)
	if err != nil {
		return errors.Wrapf(err, "Failed to begin transaction for %v", op.Name)
	}
	u := &unit{tx: tx}

	defer func() {
		if recovered := recover(); recovered != nil {
			logger.WithError(fmt.Errorf("%v", recovered)).Error(ctx, "%v panicked, rolling back", op.Name)
			b.rollback(ctx, op, tx)
			panic(recovered)
		}
	}()

	if err := fn(context.WithValue(ctx, unitKey, u)); err != nil {
		logger.WithError(err).Warn(ctx, "%v failed, rolling back", op.Name)
		b.rollback(ctx, op, tx)
		return err
	}

	if err := ctx.Err(); err != nil {
		logger.WithError(err).Warn(ctx, "%v cancelled before commit, rolling back", op.Name)
		b.rollback(ctx, op, tx)
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "Failed to commit %v", op.Name)
	}
	logger.Debug(ctx, "%v committed", op.Name)

	for _, hook := range u.hooks {
		hook(ctx)
	}
	return nil
}

func (b *Boundary) rollback(ctx context.Context, op Operation, tx Tx) {
	if err := tx.Rollback(); err != nil {
		logger.WithError(err).Error(ctx, "Failed to rollback %v", op.Name)
	}
}

// BoundaryOpt is an option of the boundary
type BoundaryOpt func(b *Boundary)

// WithTransactor sets the transactor used to begin units of work
func WithTransactor(transactor Transactor) BoundaryOpt {
	return func(b *Boundary) {
		b.transactor = transactor
	}
}

// WithTransientErrors sets a classifier of transient errors
func WithTransientErrors(isTransient TransientErrorFunc) BoundaryOpt {
	return func(b *Boundary) {
		b.isTransient = isTransient
	}
}

// WithMaxAttempts sets max number of attempts for transient failures
func WithMaxAttempts(attempts int) BoundaryOpt {
	return func(b *Boundary) {
		b.maxAttempts = attempts
	}
}

// WithBackOff sets a factory of a retry backoff
func WithBackOff(newBackOff func() backoff.BackOff) BoundaryOpt {
	return func(b *Boundary) {
		b.newBackOff = newBackOff
	}
}

func defaultBackOff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 10 * time.Second
	return policy
}

// NewBoundary returns a transactional boundary
func NewBoundary(opts ...BoundaryOpt) *Boundary {
	b := &Boundary{
		isTransient: func(error) bool { return false },
		maxAttempts: 3,
		newBackOff:  defaultBackOff,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.maxAttempts < 1 {
		b.maxAttempts = 1
	}
	if b.transactor == nil {
		panic("uow: transactor is required")
	}
	return b
}
