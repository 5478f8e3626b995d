package accounts

import (
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"gopkg.in/go-playground/validator.v9"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
)

// Type is a classification of an account
type Type int

const (
	// Asset account
	Asset Type = iota + 1

	// Liability account
	Liability

	// Equity account
	Equity

	// Revenue account
	Revenue

	// Expense account
	Expense
)

var typeNames = map[Type]string{
	Asset:     "Asset",
	Liability: "Liability",
	Equity:    "Equity",
	Revenue:   "Revenue",
	Expense:   "Expense",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseType parses type name, case insensitive
func ParseType(name string) (Type, error) {
	for t, typeName := range typeNames {
		if strings.EqualFold(typeName, name) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidAccount, "unknown account type %q", name)
}

// Status is a lifecycle status of an account
type Status int

const (
	// Active account
	Active Status = iota + 1

	// Inactive account
	Inactive

	// Closed is terminal
	Closed
)

var statusNames = map[Status]string{
	Active:   "Active",
	Inactive: "Inactive",
	Closed:   "Closed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

// ParseStatus parses status name, case insensitive
func ParseStatus(name string) (Status, error) {
	for s, statusName := range statusNames {
		if strings.EqualFold(statusName, name) {
			return s, nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidAccount, "unknown account status %q", name)
}

var accountCodePattern = regexp.MustCompile(`^[A-Z0-9-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("accountcode", func(fl validator.FieldLevel) bool {
		return accountCodePattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func validationError(err error) error {
	if fieldErrs, ok := err.(validator.ValidationErrors); ok {
		fields := make([]string, 0, len(fieldErrs))
		for _, fieldErr := range fieldErrs {
			fields = append(fields, fieldErr.Field())
		}
		return errors.Wrapf(ErrInvalidAccount, "invalid fields %v", fields)
	}
	return errors.Wrap(ErrInvalidAccount, err.Error())
}

// Account is a business counterparty the ledger records transactions against
type Account struct {
	id              uuid.UUID
	tenantID        uuid.UUID
	code            string
	name            string
	description     string
	accountType     Type
	status          Status
	parentAccountID uuid.NullUUID
	currency        string
	createdAt       time.Time
	updatedAt       time.Time
}

func (a *Account) ID() uuid.UUID                  { return a.id }
func (a *Account) TenantID() uuid.UUID            { return a.tenantID }
func (a *Account) Code() string                   { return a.code }
func (a *Account) Name() string                   { return a.name }
func (a *Account) Description() string            { return a.description }
func (a *Account) Type() Type                     { return a.accountType }
func (a *Account) Status() Status                 { return a.status }
func (a *Account) ParentAccountID() uuid.NullUUID { return a.parentAccountID }
func (a *Account) Currency() string               { return a.currency }
func (a *Account) CreatedAt() time.Time           { return a.createdAt }
func (a *Account) UpdatedAt() time.Time           { return a.updatedAt }

// CreateParams are params of a new account
type CreateParams struct {
	TenantID        uuid.UUID
	Code            string `validate:"required,max=20,accountcode"`
	Name            string `validate:"required,max=200"`
	Description     string `validate:"max=1000"`
	Type            Type   `validate:"min=1,max=5"`
	Currency        string
	ParentAccountID uuid.NullUUID
	CreatedAt       time.Time
}

// NewAccount returns an active account and AccountCreated notification
func NewAccount(params CreateParams) (*Account, []events.Notification, error) {
	if uuid.Equal(params.TenantID, uuid.Nil) {
		return nil, nil, ErrTenantContextMissing
	}
	params.Code = strings.TrimSpace(params.Code)
	params.Name = strings.TrimSpace(params.Name)
	if err := validate.Struct(params); err != nil {
		return nil, nil, validationError(err)
	}
	currency, err := money.NormalizeCurrency(params.Currency)
	if err != nil {
		return nil, nil, errors.Wrap(ErrInvalidAccount, err.Error())
	}
	createdAt := params.CreatedAt.UTC()
	account := &Account{
		id:              uuid.NewV4(),
		tenantID:        params.TenantID,
		code:            params.Code,
		name:            params.Name,
		description:     params.Description,
		accountType:     params.Type,
		status:          Active,
		parentAccountID: params.ParentAccountID,
		currency:        currency,
		createdAt:       createdAt,
		updatedAt:       createdAt,
	}
	return account, []events.Notification{&AccountCreated{
		AccountID: account.id,
		TenantID:  account.tenantID,
		Code:      account.code,
		Name:      account.name,
		Type:      account.accountType.String(),
		CreatedAt: createdAt,
	}}, nil
}

// UpdateParams are params of an account update, nil values are left unchanged
type UpdateParams struct {
	Name        *string `validate:"omitempty,min=1,max=200"`
	Description *string `validate:"omitempty,max=1000"`
	Status      *Status `validate:"omitempty,min=1,max=3"`
}

// Update changes name, description or status
func (a *Account) Update(params UpdateParams, now time.Time) ([]events.Notification, error) {
	if err := validate.Struct(params); err != nil {
		return nil, validationError(err)
	}
	var notifications []events.Notification
	if params.Status != nil {
		var err error
		if notifications, err = a.transition(*params.Status, now); err != nil {
			return nil, err
		}
	}
	if params.Name != nil {
		a.name = strings.TrimSpace(*params.Name)
	}
	if params.Description != nil {
		a.description = *params.Description
	}
	a.updatedAt = now.UTC()
	return notifications, nil
}

// Activate makes the account active. Closed accounts can not be activated
func (a *Account) Activate(now time.Time) error {
	_, err := a.transition(Active, now)
	return err
}

// Deactivate makes the account inactive. Closed accounts can not be deactivated
func (a *Account) Deactivate(now time.Time) ([]events.Notification, error) {
	return a.transition(Inactive, now)
}

// Close closes the account, it is not possible to change status of a closed account
func (a *Account) Close(now time.Time) error {
	_, err := a.transition(Closed, now)
	return err
}

func (a *Account) transition(status Status, now time.Time) ([]events.Notification, error) {
	if a.status == status {
		return nil, nil
	}
	if a.status == Closed {
		return nil, errors.Wrapf(ErrAccountClosed, "can not change status of %v to %v", a.code, status)
	}
	a.status = status
	a.updatedAt = now.UTC()
	if status == Inactive {
		return []events.Notification{&AccountDeactivated{
			AccountID:     a.id,
			TenantID:      a.tenantID,
			DeactivatedAt: a.updatedAt,
		}}, nil
	}
	return nil, nil
}
