package accounts

import (
	"github.com/pkg/errors"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
)

var (
	// ErrTenantContextMissing is returned when no tenant is available
	ErrTenantContextMissing = tenant.ErrTenantContextMissing

	// ErrInvalidAccount is returned when account attributes are not valid
	ErrInvalidAccount = errors.New("invalid account")

	// ErrAccountNotFound is returned when an account does not exist within the tenant
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountClosed is returned on attempt to change status of a closed account
	ErrAccountClosed = errors.New("account is closed")

	// ErrDuplicateCode is returned when the code is already used by other account of the tenant
	ErrDuplicateCode = errors.New("account code is already taken")
)
