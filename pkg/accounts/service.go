package accounts

import (
	"context"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

var logger = diag.CreateLogger()

// DefaultPageSize is used when accounts are listed without a page size
const DefaultPageSize = 50

// CreateAccountCmd is a command to create an account
type CreateAccountCmd struct {
	Code            string
	Name            string
	Description     string
	Type            Type
	Currency        string
	ParentAccountID uuid.NullUUID
}

// UpdateAccountCmd is a command to update an account, nil values are left unchanged
type UpdateAccountCmd struct {
	Name        *string
	Description *string
	Status      *Status
}

// ListQuery filters accounts. Zero values are ignored
type ListQuery struct {
	Type       Type
	Status     Status
	PageNumber int
	PageSize   int
}

// Service manages accounts of a tenant
type Service interface {
	CreateAccount(ctx context.Context, cmd CreateAccountCmd) (*Account, error)
	GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, query ListQuery) ([]*Account, error)
	UpdateAccount(ctx context.Context, accountID uuid.UUID, cmd UpdateAccountCmd) (*Account, error)
	ActivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
	DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
	CloseAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
}

type service struct {
	storage dal.Storage
	tenants tenant.Provider
	sink    events.Sink
	now     func() time.Time
}

func (svc *service) CreateAccount(ctx context.Context, cmd CreateAccountCmd) (*Account, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if cmd.ParentAccountID.Valid {
		if _, err := svc.load(ctx, tenantID, cmd.ParentAccountID.UUID); err != nil {
			return nil, errors.Wrap(err, "Parent account")
		}
	}
	account, notifications, err := NewAccount(CreateParams{
		TenantID:        tenantID,
		Code:            cmd.Code,
		Name:            cmd.Name,
		Description:     cmd.Description,
		Type:            cmd.Type,
		Currency:        cmd.Currency,
		ParentAccountID: cmd.ParentAccountID,
		CreatedAt:       svc.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := svc.storage.InsertAccount(ctx, accountToDTO(account)); err != nil {
		if errors.Is(err, dal.ErrDuplicateAccountCode) {
			return nil, errors.Wrapf(ErrDuplicateCode, "Account code '%v'", account.code)
		}
		return nil, errors.Wrap(err, "Failed to create account")
	}
	logger.Info(ctx, "Account %v created: %v", account.code, account.id)
	svc.publishAfterCommit(ctx, notifications)
	return account, nil
}

func (svc *service) load(ctx context.Context, tenantID, accountID uuid.UUID) (*Account, error) {
	dto, err := svc.storage.GetAccount(ctx, tenantID, accountID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			return nil, errors.Wrapf(ErrAccountNotFound, "Account '%v'", accountID)
		}
		return nil, errors.Wrap(err, "Failed to get account")
	}
	return accountFromDTO(dto), nil
}

func (svc *service) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	return svc.load(ctx, tenantID, accountID)
}

func (svc *service) ListAccounts(ctx context.Context, query ListQuery) ([]*Account, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	if query.PageSize <= 0 {
		query.PageSize = DefaultPageSize
	}
	if query.PageNumber <= 0 {
		query.PageNumber = 1
	}
	dtos, err := svc.storage.ListAccounts(ctx, dal.AccountsQuery{
		TenantID: tenantID,
		Type:     int(query.Type),
		Status:   int(query.Status),
		Limit:    query.PageSize,
		Offset:   (query.PageNumber - 1) * query.PageSize,
	})
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list accounts")
	}
	result := make([]*Account, 0, len(dtos))
	for _, dto := range dtos {
		result = append(result, accountFromDTO(dto))
	}
	return result, nil
}

// change loads the account, applies the mutation and saves it
func (svc *service) change(
	ctx context.Context,
	accountID uuid.UUID,
	mutate func(account *Account, now time.Time) ([]events.Notification, error),
) (*Account, error) {
	tenantID, err := svc.tenants.CurrentTenant(ctx)
	if err != nil {
		return nil, err
	}
	account, err := svc.load(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	notifications, err := mutate(account, svc.now())
	if err != nil {
		return nil, err
	}
	if err := svc.storage.UpdateAccount(ctx, accountToDTO(account)); err != nil {
		return nil, errors.Wrap(err, "Failed to update account")
	}
	svc.publishAfterCommit(ctx, notifications)
	return account, nil
}

func (svc *service) UpdateAccount(ctx context.Context, accountID uuid.UUID, cmd UpdateAccountCmd) (*Account, error) {
	return svc.change(ctx, accountID, func(account *Account, now time.Time) ([]events.Notification, error) {
		return account.Update(UpdateParams{
			Name:        cmd.Name,
			Description: cmd.Description,
			Status:      cmd.Status,
		}, now)
	})
}

func (svc *service) ActivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.change(ctx, accountID, func(account *Account, now time.Time) ([]events.Notification, error) {
		return nil, account.Activate(now)
	})
}

func (svc *service) DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.change(ctx, accountID, func(account *Account, now time.Time) ([]events.Notification, error) {
		return account.Deactivate(now)
	})
}

func (svc *service) CloseAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.change(ctx, accountID, func(account *Account, now time.Time) ([]events.Notification, error) {
		return nil, account.Close(now)
	})
}

func (svc *service) publishAfterCommit(ctx context.Context, notifications []events.Notification) {
	if len(notifications) == 0 {
		return
	}
	uow.AfterCommit(ctx, func(ctx context.Context) {
		for _, notification := range notifications {
			if err := svc.sink.Publish(ctx, notification); err != nil {
				logger.WithError(err).Error(ctx, "Failed to publish %v", notification.NotificationName())
			}
		}
	})
}

// ServiceOpt is an option for accounts service
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

// WithSink sets a sink for account notifications
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

// NewService returns an instance of an accounts service
func NewService(opts ...ServiceOpt) Service {
	svc := &service{
		tenants: tenant.NewContextProvider(),
		sink:    events.NewLogSink(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return Service(svc)
}
