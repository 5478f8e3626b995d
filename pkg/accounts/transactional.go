package accounts

import (
	"context"

	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

type transactionalService struct {
	next     Service
	boundary *uow.Boundary
}

func (svc *transactionalService) exec(
	ctx context.Context, op uow.Operation, fn func(ctx context.Context) (*Account, error),
) (*Account, error) {
	var account *Account
	err := svc.boundary.Execute(ctx, op, func(ctx context.Context) (err error) {
		account, err = fn(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (svc *transactionalService) CreateAccount(ctx context.Context, cmd CreateAccountCmd) (*Account, error) {
	return svc.exec(ctx, uow.NewCommand("accounts.CreateAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.CreateAccount(ctx, cmd)
	})
}

func (svc *transactionalService) GetAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.exec(ctx, uow.NewQuery("accounts.GetAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.GetAccount(ctx, accountID)
	})
}

func (svc *transactionalService) ListAccounts(ctx context.Context, query ListQuery) ([]*Account, error) {
	var result []*Account
	err := svc.boundary.Execute(ctx, uow.NewQuery("accounts.ListAccounts"), func(ctx context.Context) (err error) {
		result, err = svc.next.ListAccounts(ctx, query)
		return err
	})
	return result, err
}

func (svc *transactionalService) UpdateAccount(ctx context.Context, accountID uuid.UUID, cmd UpdateAccountCmd) (*Account, error) {
	return svc.exec(ctx, uow.NewCommand("accounts.UpdateAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.UpdateAccount(ctx, accountID, cmd)
	})
}

func (svc *transactionalService) ActivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.exec(ctx, uow.NewCommand("accounts.ActivateAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.ActivateAccount(ctx, accountID)
	})
}

func (svc *transactionalService) DeactivateAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.exec(ctx, uow.NewCommand("accounts.DeactivateAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.DeactivateAccount(ctx, accountID)
	})
}

func (svc *transactionalService) CloseAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	return svc.exec(ctx, uow.NewCommand("accounts.CloseAccount"), func(ctx context.Context) (*Account, error) {
		return svc.next.CloseAccount(ctx, accountID)
	})
}

// NewTransactionalService runs commands of the next service in a unit of work of the boundary
func NewTransactionalService(next Service, boundary *uow.Boundary) Service {
	return &transactionalService{next: next, boundary: boundary}
}
