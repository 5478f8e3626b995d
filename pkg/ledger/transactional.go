package ledger

import (
	"context"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

var (
	recordRideChargeOp        = uow.NewCommand("ledger.RecordRideCharge")
	recordPaymentOp           = uow.NewCommand("ledger.RecordPayment")
	getAccountBalanceOp       = uow.NewQuery("ledger.GetAccountBalance")
	getTransactionOp          = uow.NewQuery("ledger.GetTransaction")
	listAccountTransactionsOp = uow.NewQuery("ledger.ListAccountTransactions")
)

type transactionalService struct {
	next     Service
	boundary *uow.Boundary
}

func (svc *transactionalService) RecordRideCharge(ctx context.Context, cmd RecordRideChargeCmd) (*RecordResult, error) {
	var result *RecordResult
	err := svc.boundary.Execute(ctx, recordRideChargeOp, func(ctx context.Context) (err error) {
		result, err = svc.next.RecordRideCharge(ctx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (svc *transactionalService) RecordPayment(ctx context.Context, cmd RecordPaymentCmd) (*RecordResult, error) {
	var result *RecordResult
	err := svc.boundary.Execute(ctx, recordPaymentOp, func(ctx context.Context) (err error) {
		result, err = svc.next.RecordPayment(ctx, cmd)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (svc *transactionalService) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := svc.boundary.Execute(ctx, getAccountBalanceOp, func(ctx context.Context) (err error) {
		balance, err = svc.next.GetAccountBalance(ctx, accountID)
		return err
	})
	return balance, err
}

func (svc *transactionalService) GetTransaction(ctx context.Context, transactionID uuid.UUID) (*Transaction, error) {
	var trx *Transaction
	err := svc.boundary.Execute(ctx, getTransactionOp, func(ctx context.Context) (err error) {
		trx, err = svc.next.GetTransaction(ctx, transactionID)
		return err
	})
	return trx, err
}

func (svc *transactionalService) ListAccountTransactions(
	ctx context.Context, accountID uuid.UUID, query TransactionsQuery,
) ([]*Transaction, error) {
	var trxs []*Transaction
	err := svc.boundary.Execute(ctx, listAccountTransactionsOp, func(ctx context.Context) (err error) {
		trxs, err = svc.next.ListAccountTransactions(ctx, accountID, query)
		return err
	})
	return trxs, err
}

// NewTransactionalService runs commands of the next service in a unit of work of the boundary.
// Queries are passed through
func NewTransactionalService(next Service, boundary *uow.Boundary) Service {
	return &transactionalService{next: next, boundary: boundary}
}
