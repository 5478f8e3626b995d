package dal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/lib-core-golang/diag"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

var logger = diag.CreateLogger()

var (
	// ErrNotFound is returned when a requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateIdempotencyKey is returned when a transaction with the same
	// idempotency key is already recorded for the account
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrDuplicateAccountCode is returned when the account code is already taken within a tenant
	ErrDuplicateAccountCode = errors.New("duplicate account code")
)

// AccountDTO is a DTO to store business accounts
type AccountDTO struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Code            string
	Name            string
	Description     string
	Type            int
	Status          int
	ParentAccountID uuid.NullUUID
	Currency        string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AccountsQuery filters accounts of a tenant. Zero values are ignored
type AccountsQuery struct {
	TenantID uuid.UUID
	Type     int
	Status   int
	Limit    int
	Offset   int
}

// TransactionDTO is a DTO to store ledger transactions
type TransactionDTO struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	AccountID       uuid.UUID
	Type            string
	IdempotencyKey  string
	Description     string
	ReferenceID     string
	ReferenceType   string
	TransactionDate time.Time
	CreatedAt       time.Time
	CreatedBy       string
	Entries         []*EntryDTO
}

// EntryDTO is a DTO to store ledger entries
type EntryDTO struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	TransactionID uuid.UUID
	AccountID     uuid.UUID
	AccountType   string
	DebitAmount   decimal.Decimal
	CreditAmount  decimal.Decimal
	Currency      string
	Description   string
	CreatedAt     time.Time
}

// TransactionsQuery filters transactions of an account. Zero values are ignored
type TransactionsQuery struct {
	TenantID  uuid.UUID
	AccountID uuid.UUID
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// EntriesQuery selects entries of an account for a given ledger account type
type EntriesQuery struct {
	TenantID    uuid.UUID
	AccountID   uuid.UUID
	AccountType string
}

// AccountsStorage is a persistence of business accounts
type AccountsStorage interface {
	InsertAccount(ctx context.Context, account *AccountDTO) error
	UpdateAccount(ctx context.Context, account *AccountDTO) error
	GetAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountDTO, error)
	ListAccounts(ctx context.Context, query AccountsQuery) ([]*AccountDTO, error)
}

// LedgerStorage is a persistence of ledger transactions and entries
type LedgerStorage interface {
	// InsertTransaction atomically writes the transaction with all its entries.
	// Returns ErrDuplicateIdempotencyKey if nothing was written because of the key
	InsertTransaction(ctx context.Context, trx *TransactionDTO) error

	GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionDTO, error)
	FindTransactionByIdempotencyKey(ctx context.Context, tenantID, accountID uuid.UUID, key string) (*TransactionDTO, error)
	ListTransactions(ctx context.Context, query TransactionsQuery) ([]*TransactionDTO, error)
	ListEntries(ctx context.Context, query EntriesQuery) ([]*EntryDTO, error)
}

// Storage is a persistance layer
type Storage interface {
	uow.Transactor
	AccountsStorage
	LedgerStorage

	Setup(ctx context.Context) error

	// IsTransient reports whether the error is a temporary data store failure
	IsTransient(err error) bool
}
