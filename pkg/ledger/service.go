package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

var logger = diag.CreateLogger()

// DefaultListLimit is used when transactions are listed without a limit
const DefaultListLimit = 50

// RecordRideChargeCmd is a command to record a ride charge
type RecordRideChargeCmd struct {
	AccountID   uuid.UUID
	RideID      string
	Fare        decimal.Decimal
	ServiceDate time.Time
	FleetID     string
}

// RecordPaymentCmd is a command to record a payment
type RecordPaymentCmd struct {
	AccountID          uuid.UUID
	PaymentReferenceID string
	Amount             decimal.Decimal
	PaymentDate        time.Time
	PaymentMode        string
}

// RecordResult is a recorded transaction. Replayed is true if the
// transaction was recorded before and returned as is
type RecordResult struct {
	Transaction *Transaction
	Replayed    bool
}

// TransactionsQuery filters transactions of an account
type TransactionsQuery struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// Service records ledger transactions and computes balances
type Service interface {
	// RecordRideCharge records the charge or returns already recorded one for the same ride
	RecordRideCharge(ctx context.Context, cmd RecordRideChargeCmd) (*RecordResult, error)

	// RecordPayment records the payment or returns already recorded one for the same reference
	RecordPayment(ctx context.Context, cmd RecordPaymentCmd) (*RecordResult, error)

	// GetAccountBalance returns accounts receivable debits minus credits
	GetAccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)

	GetTransaction(ctx context.Context, transactionID uuid.UUID) (*Transaction, error)
	ListAccountTransactions(ctx context.Context, accountID uuid.UUID, query TransactionsQuery) ([]*Transaction, error)
}

type buildFn func(tenantID uuid.UUID, account *dal.AccountDTO) (*Transaction, []events.Notification, error)

type service struct {
	storage   dal.Storage
	tenants   tenant.Provider
	sink      events.Sink
	now       func() time.Time
	createdBy string
}

func (svc *service) RecordRideCharge(ctx context.Context, cmd RecordRideChargeCmd) (*RecordResult, error) {
	logger.
		WithData(diag.MsgData{"accountId": cmd.AccountID, "rideId": cmd.RideID, "amount": cmd.Fare}).
		Info(ctx, "Recording ride charge")
	return svc.record(ctx, cmd.AccountID, RideChargeKey(cmd.RideID),
		func(tenantID uuid.UUID, account *dal.AccountDTO) (*Transaction, []events.Notification, error) {
			return NewRideCharge(RideChargeParams{
				TenantID:    tenantID,
				AccountID:   account.ID,
				RideID:      cmd.RideID,
				Fare:        cmd.Fare,
				Currency:    account.Currency,
				ServiceDate: cmd.ServiceDate,
				FleetID:     cmd.FleetID,
				CreatedBy:   svc.createdBy,
				CreatedAt:   svc.now(),
			})
		},
	)
}

func (svc *service) RecordPayment(ctx context.Context, cmd RecordPaymentCmd) (*RecordResult, error) {
	logger.
		WithData(diag.MsgData{"accountId": cmd.AccountID, "paymentReferenceId": cmd.PaymentReferenceID, "amount": cmd.Amount}).
		Info(ctx, "Recording payment")
	return svc.record(ctx, cmd.AccountID, PaymentKey(cmd.PaymentReferenceID),
		func(tenantID uuid.UUID, account *dal.AccountDTO) (*Transaction, []events.Notification, error) {
			return NewPayment(PaymentParams{
				TenantID:           tenantID,
				AccountID:          account.ID,
				PaymentReferenceID: cmd.PaymentReferenceID,
				Amount:             cmd.Amount,
				Currency:           account.Currency,
				PaymentDate:        cmd.PaymentDate,
				PaymentMode:        cmd.PaymentMode,
				CreatedBy:          svc.createdBy,
				CreatedAt:          svc.now(),
			})
		},
	)
}

func (svc *service) record(ctx context.Context, accountID uuid.UUID, key string, build buildFn) (*RecordResult, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := svc.findByKey(ctx, tenantID, accountID, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info(ctx, "Transaction %v already recorded (idempotent): %v", key, existing.ID())
		return &RecordResult{Transaction: existing, Replayed: true}, nil
	}

	account, err := svc.storage.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, errors.Wrapf(ErrAccountNotFound, "Account '%v'", accountID)
		}
		return nil, errors.Wrap(err, "Failed to get account")
	}

	trx, notifications, err := build(tenantID, account)
	if err != nil {
		var unbalanced *UnbalancedTransactionError
		if errors.As(err, &unbalanced) {
			logger.WithError(err).Error(ctx, "Refusing to record unbalanced transaction %v", key)
		}
		return nil, err
	}

	if err := svc.storage.InsertTransaction(ctx, transactionToDTO(trx)); err != nil {
		if !errors.Is(err, dal.ErrDuplicateIdempotencyKey) {
			return nil, errors.Wrapf(err, "Failed to record transaction %v", key)
		}
		logger.Info(ctx, "Transaction %v was recorded concurrently, reading it", key)
		existing, err := svc.findByKey(ctx, tenantID, accountID, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, errors.Errorf("Failed to read concurrently recorded transaction %v", key)
		}
		return &RecordResult{Transaction: existing, Replayed: true}, nil
	}

	logger.Info(ctx, "Transaction %v recorded: %v", key, trx.ID())
	svc.publishAfterCommit(ctx, notifications)
	return &RecordResult{Transaction: trx}, nil
}

// findByKey returns nil if there is no such transaction
func (svc *service) findByKey(ctx context.Context, tenantID, accountID uuid.UUID, key string) (*Transaction, error) {
	dto, err := svc.storage.FindTransactionByIdempotencyKey(ctx, tenantID, accountID, key)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "Failed to find transaction %v", key)
	}
	return transactionFromDTO(dto)
}

func (svc *service) publishAfterCommit(ctx context.Context, notifications []events.Notification) {
	uow.AfterCommit(ctx, func(ctx context.Context) {
		for _, notification := range notifications {
			if err := svc.sink.Publish(ctx, notification); err != nil {
				logger.WithError(err).Error(ctx, "Failed to publish %v", notification.NotificationName())
			}
		}
	})
}

func (svc *service) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	entries, err := svc.storage.ListEntries(ctx, dal.EntriesQuery{
		TenantID:    tenantID,
		AccountID:   accountID,
		AccountType: string(AccountsReceivable),
	})
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "Failed to get account balance")
	}
	balance := decimal.Zero
	for _, entry := range entries {
		balance = balance.Add(entry.DebitAmount).Sub(entry.CreditAmount)
	}
	return balance, nil
}

func (svc *service) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*Transaction, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	dto, err := svc.storage.GetTransaction(ctx, tenantID, transactionID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, errors.Wrapf(ErrTransactionNotFound, "Transaction '%v'", transactionID)
		}
		return nil, errors.Wrap(err, "Failed to get transaction")
	}
	return transactionFromDTO(dto)
}

func (svc *service) ListAccountTransactions(
	ctx context.Context, accountID uuid.UUID, query TransactionsQuery,
) ([]*Transaction, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if !query.From.IsZero() && !query.To.IsZero() && query.From.After(query.To) {
		return nil, errors.Wrapf(ErrInvalidDateRange, "from %v is after to %v", query.From, query.To)
	}
	if query.Limit <= 0 {
		query.Limit = DefaultListLimit
	}
	if query.Offset < 0 {
		query.Offset = 0
	}
	dtos, err := svc.storage.ListTransactions(ctx, dal.TransactionsQuery{
		TenantID:  tenantID,
		AccountID: accountID,
		From:      query.From,
		To:        query.To,
		Limit:     query.Limit,
		Offset:    query.Offset,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list transactions")
	}
	result := make([]*Transaction, 0, len(dtos))
	for _, dto := range dtos {
		trx, err := transactionFromDTO(dto)
		if err != nil {
			return nil, err
		}
		result = append(result, trx)
	}
	return result, nil
}

// ServiceOpt is an option for ledger service
type ServiceOpt func(*service)

// WithStorage will init the service with storage
func WithStorage(storage dal.Storage) ServiceOpt {
	return func(svc *service) {
		svc.storage = storage
	}
}

// WithTenantProvider sets a source of the current tenant
func WithTenantProvider(provider tenant.Provider) ServiceOpt {
	return func(svc *service) {
		svc.tenants = provider
	}
}

// WithSink sets a sink for notifications of recorded transactions
func WithSink(sink events.Sink) ServiceOpt {
	return func(svc *service) {
		svc.sink = sink
	}
}

// WithNow sets a clock
func WithNow(now func() time.Time) ServiceOpt {
	return func(svc *service) {
		svc.now = now
	}
}

// WithCreatedBy sets a creator tag of recorded transactions, empty value keeps the default
func WithCreatedBy(createdBy string) ServiceOpt {
	return func(svc *service) {
		if createdBy == "" {
			return
		}
		svc.createdBy = createdBy
	}
}

// NewService returns an instance of a ledger service
func NewService(opts ...ServiceOpt) Service {
	svc := &service{
		tenants:   tenant.NewContextProvider(),
		sink:      events.NewLogSink(),
		now:       time.Now,
		createdBy: DefaultCreatedBy,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return Service(svc)
}
