package ledger

import (
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
)

// AccountType is a ledger bookkeeping bucket an entry is posted to
type AccountType string

const (
	// AccountsReceivable holds amounts owed by the account
	AccountsReceivable AccountType = "ACCOUNTS_RECEIVABLE"

	// ServiceRevenue holds earned service amounts
	ServiceRevenue AccountType = "SERVICE_REVENUE"

	// Cash holds received payments
	Cash AccountType = "CASH"
)

// Side of an entry
type Side int

const (
	// Debit side
	Debit Side = iota + 1

	// Credit side
	Credit
)

func (s Side) String() string {
	if s == Credit {
		return "credit"
	}
	return "debit"
}

// Entry is an immutable leg of a ledger transaction
type Entry struct {
	id            uuid.UUID
	tenantID      uuid.UUID
	transactionID uuid.UUID
	accountID     uuid.UUID
	accountType   AccountType
	side          Side
	amount        money.Money
	description   string
	createdAt     time.Time
}

// EntryParams are params to create an entry
type EntryParams struct {
	TenantID      uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	AccountType   AccountType
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CreatedAt     time.Time
}

func newEntry(side Side, params EntryParams) (*Entry, error) {
	amount, err := money.NewPositive(params.Amount, params.Currency)
	if err != nil {
		return nil, err
	}
	return &Entry{
		id:            uuid.NewV4(),
		tenantID:      params.TenantID,
		transactionID: params.TransactionID,
		accountID:     params.AccountID,
		accountType:   params.AccountType,
		side:          side,
		amount:        amount,
		description:   params.Description,
		createdAt:     params.CreatedAt,
	}, nil
}

// NewDebit returns a debit entry. Fails with ErrInvalidAmount if amount is not positive
func NewDebit(params EntryParams) (*Entry, error) {
	return newEntry(Debit, params)
}

// NewCredit returns a credit entry. Fails with ErrInvalidAmount if amount is not positive
func NewCredit(params EntryParams) (*Entry, error) {
	return newEntry(Credit, params)
}

func (e *Entry) ID() uuid.UUID            { return e.id }
func (e *Entry) TenantID() uuid.UUID      { return e.tenantID }
func (e *Entry) TransactionID() uuid.UUID { return e.transactionID }
func (e *Entry) AccountID() uuid.UUID     { return e.accountID }
func (e *Entry) AccountType() AccountType { return e.accountType }
func (e *Entry) Side() Side               { return e.side }
func (e *Entry) Amount() money.Money      { return e.amount }
func (e *Entry) Currency() string         { return e.amount.Currency() }
func (e *Entry) Description() string      { return e.description }
func (e *Entry) CreatedAt() time.Time     { return e.createdAt }

// DebitAmount returns the amount for debit entries and zero otherwise
func (e *Entry) DebitAmount() decimal.Decimal {
	if e.side == Debit {
		return e.amount.Amount()
	}
	return decimal.Zero
}

// CreditAmount returns the amount for credit entries and zero otherwise
func (e *Entry) CreditAmount() decimal.Decimal {
	if e.side == Credit {
		return e.amount.Amount()
	}
	return decimal.Zero
}
