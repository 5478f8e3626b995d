package ledger

import (
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
)

var (
	// ErrInvalidAmount is returned for zero or negative amounts
	ErrInvalidAmount = money.ErrInvalidAmount

	// ErrTenantContextMissing is returned when no tenant is available
	ErrTenantContextMissing = tenant.ErrTenantContextMissing

	// ErrInvalidReference is returned when an external reference is blank or too long
	ErrInvalidReference = errors.New("invalid reference")

	// ErrAccountNotFound is returned when an account does not exist within the tenant
	ErrAccountNotFound = errors.New("account not found")

	// ErrTransactionNotFound is returned when a transaction does not exist within the tenant
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidDateRange is returned when a range starts after it ends
	ErrInvalidDateRange = errors.New("invalid date range")
)
