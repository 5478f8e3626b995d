package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
)

// TransactionType is a kind of a business event a transaction records
type TransactionType string

const (
	// RideCharge is a charge for a provided ride service
	RideCharge TransactionType = "RIDE_CHARGE"

	// Payment is a payment received from the account
	Payment TransactionType = "PAYMENT"

	// Adjustment is reserved for corrections and is not used yet
	Adjustment TransactionType = "ADJUSTMENT"
)

// ReferenceType is a type of an external reference of a transaction
type ReferenceType string

const (
	// RideReference references a ride
	RideReference ReferenceType = "RIDE"

	// PaymentReference references an external payment
	PaymentReference ReferenceType = "PAYMENT"
)

// DefaultCreatedBy is used when no creator is given
const DefaultCreatedBy = "system"

const maxReferenceLength = 100

// RideChargeKey returns idempotency key of a ride charge
func RideChargeKey(rideID string) string {
	return "ride:" + strings.TrimSpace(rideID)
}

// PaymentKey returns idempotency key of a payment
func PaymentKey(paymentReferenceID string) string {
	return "payment:" + strings.TrimSpace(paymentReferenceID)
}

// UnbalancedTransactionError indicates entries with different debit and credit totals
type UnbalancedTransactionError struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (e *UnbalancedTransactionError) Error() string {
	return fmt.Sprintf("Transaction is unbalanced: Debits=%v, Credits=%v", e.Debits, e.Credits)
}

// ValidateBalance checks that total debit equals total credit exactly.
// At least one debit and one credit leg in a single currency are required
func ValidateBalance(entries []*Entry) error {
	if len(entries) == 0 {
		return &UnbalancedTransactionError{Debits: decimal.Zero, Credits: decimal.Zero}
	}
	currency := entries[0].Currency()
	debits, _ := money.Zero(currency)
	credits, _ := money.Zero(currency)
	var hasDebit, hasCredit bool
	for _, entry := range entries {
		var err error
		switch entry.Side() {
		case Debit:
			hasDebit = true
			debits, err = debits.Add(entry.Amount())
		case Credit:
			hasCredit = true
			credits, err = credits.Add(entry.Amount())
		}
		if err != nil {
			return errors.Wrapf(err, "entry %v", entry.ID())
		}
	}
	diff, err := debits.Sub(credits)
	if err != nil {
		return err
	}
	if !hasDebit || !hasCredit || !diff.IsZero() {
		return &UnbalancedTransactionError{Debits: debits.Amount(), Credits: credits.Amount()}
	}
	return nil
}

// Transaction is an aggregate of balanced entries recording one business event.
// Built with NewRideCharge or NewPayment and never changed after that
type Transaction struct {
	id              uuid.UUID
	tenantID        uuid.UUID
	accountID       uuid.UUID
	transactionType TransactionType
	idempotencyKey  string
	description     string
	referenceID     string
	referenceType   ReferenceType
	transactionDate time.Time
	createdAt       time.Time
	createdBy       string
	entries         []*Entry
}

func (t *Transaction) ID() uuid.UUID                { return t.id }
func (t *Transaction) TenantID() uuid.UUID          { return t.tenantID }
func (t *Transaction) AccountID() uuid.UUID         { return t.accountID }
func (t *Transaction) Type() TransactionType        { return t.transactionType }
func (t *Transaction) IdempotencyKey() string       { return t.idempotencyKey }
func (t *Transaction) Description() string          { return t.description }
func (t *Transaction) ReferenceID() string          { return t.referenceID }
func (t *Transaction) ReferenceType() ReferenceType { return t.referenceType }
func (t *Transaction) TransactionDate() time.Time   { return t.transactionDate }
func (t *Transaction) CreatedAt() time.Time         { return t.createdAt }
func (t *Transaction) CreatedBy() string            { return t.createdBy }

// Entries returns a copy of transaction entries
func (t *Transaction) Entries() []*Entry {
	entries := make([]*Entry, len(t.entries))
	copy(entries, t.entries)
	return entries
}

// TotalDebit returns sum of debit amounts
func (t *Transaction) TotalDebit() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range t.entries {
		total = total.Add(entry.DebitAmount())
	}
	return total
}

// TotalCredit returns sum of credit amounts
func (t *Transaction) TotalCredit() decimal.Decimal {
	total := decimal.Zero
	for _, entry := range t.entries {
		total = total.Add(entry.CreditAmount())
	}
	return total
}

type leg struct {
	side        Side
	accountType AccountType
}

type transactionParams struct {
	tenantID        uuid.UUID
	accountID       uuid.UUID
	transactionType TransactionType
	idempotencyKey  string
	description     string
	referenceID     string
	referenceType   ReferenceType
	transactionDate time.Time
	createdAt       time.Time
	createdBy       string
	amount          decimal.Decimal
	currency        string
	legs            []leg
}

func validateReference(reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", errors.Wrap(ErrInvalidReference, "reference is required")
	}
	if len(reference) > maxReferenceLength {
		return "", errors.Wrapf(ErrInvalidReference, "reference is longer than %v", maxReferenceLength)
	}
	return reference, nil
}

func newTransaction(params transactionParams) (*Transaction, error) {
	if uuid.Equal(params.tenantID, uuid.Nil) {
		return nil, ErrTenantContextMissing
	}
	if params.createdBy == "" {
		params.createdBy = DefaultCreatedBy
	}
	if params.createdAt.IsZero() {
		params.createdAt = time.Now()
	}
	trx := &Transaction{
		id:              uuid.NewV4(),
		tenantID:        params.tenantID,
		accountID:       params.accountID,
		transactionType: params.transactionType,
		idempotencyKey:  params.idempotencyKey,
		description:     params.description,
		referenceID:     params.referenceID,
		referenceType:   params.referenceType,
		transactionDate: params.transactionDate.UTC(),
		createdAt:       params.createdAt.UTC(),
		createdBy:       params.createdBy,
	}
	entries := make([]*Entry, 0, len(params.legs))
	for _, posting := range params.legs {
		entry, err := newEntry(posting.side, EntryParams{
			TenantID:      trx.tenantID,
			TransactionID: trx.id,
			AccountID:     trx.accountID,
			AccountType:   posting.accountType,
			Amount:        params.amount,
			Currency:      params.currency,
			Description:   params.description,
			CreatedAt:     trx.createdAt,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := ValidateBalance(entries); err != nil {
		return nil, err
	}
	trx.entries = entries
	return trx, nil
}

// RideChargeParams are params of a ride service charge
type RideChargeParams struct {
	TenantID    uuid.UUID
	AccountID   uuid.UUID
	RideID      string
	Fare        decimal.Decimal
	Currency    string
	ServiceDate time.Time
	FleetID     string
	CreatedBy   string
	CreatedAt   time.Time
}

// NewRideCharge builds a transaction that debits accounts receivable and
// credits service revenue for the fare
func NewRideCharge(params RideChargeParams) (*Transaction, []events.Notification, error) {
	if !params.Fare.IsPositive() {
		return nil, nil, errors.Wrapf(ErrInvalidAmount, "fare %v", params.Fare)
	}
	rideID, err := validateReference(params.RideID)
	if err != nil {
		return nil, nil, err
	}
	trx, err := newTransaction(transactionParams{
		tenantID:        params.TenantID,
		accountID:       params.AccountID,
		transactionType: RideCharge,
		idempotencyKey:  RideChargeKey(rideID),
		description:     "Ride service charge - " + rideID,
		referenceID:     rideID,
		referenceType:   RideReference,
		transactionDate: params.ServiceDate,
		createdAt:       params.CreatedAt,
		createdBy:       params.CreatedBy,
		amount:          params.Fare,
		currency:        params.Currency,
		legs: []leg{
			{side: Debit, accountType: AccountsReceivable},
			{side: Credit, accountType: ServiceRevenue},
		},
	})
	if err != nil {
		return nil, nil, err
	}
	notification := &RideChargeRecorded{
		TransactionID: trx.id,
		TenantID:      trx.tenantID,
		AccountID:     trx.accountID,
		RideID:        rideID,
		Amount:        params.Fare,
		Currency:      trx.entries[0].Currency(),
		ServiceDate:   trx.transactionDate,
		FleetID:       strings.TrimSpace(params.FleetID),
		RecordedAt:    trx.createdAt,
	}
	return trx, []events.Notification{notification}, nil
}

// PaymentParams are params of a received payment
type PaymentParams struct {
	TenantID           uuid.UUID
	AccountID          uuid.UUID
	PaymentReferenceID string
	Amount             decimal.Decimal
	Currency           string
	PaymentDate        time.Time
	PaymentMode        string
	CreatedBy          string
	CreatedAt          time.Time
}

// NewPayment builds a transaction that debits cash and credits accounts receivable
func NewPayment(params PaymentParams) (*Transaction, []events.Notification, error) {
	if !params.Amount.IsPositive() {
		return nil, nil, errors.Wrapf(ErrInvalidAmount, "payment amount %v", params.Amount)
	}
	reference, err := validateReference(params.PaymentReferenceID)
	if err != nil {
		return nil, nil, err
	}
	mode := strings.TrimSpace(params.PaymentMode)
	description := "Payment received - " + reference
	if mode != "" {
		description += " (" + mode + ")"
	}
	trx, err := newTransaction(transactionParams{
		tenantID:        params.TenantID,
		accountID:       params.AccountID,
		transactionType: Payment,
		idempotencyKey:  PaymentKey(reference),
		description:     description,
		referenceID:     reference,
		referenceType:   PaymentReference,
		transactionDate: params.PaymentDate,
		createdAt:       params.CreatedAt,
		createdBy:       params.CreatedBy,
		amount:          params.Amount,
		currency:        params.Currency,
		legs: []leg{
			{side: Debit, accountType: Cash},
			{side: Credit, accountType: AccountsReceivable},
		},
	})
	if err != nil {
		return nil, nil, err
	}
	notification := &PaymentRecorded{
		TransactionID:      trx.id,
		TenantID:           trx.tenantID,
		AccountID:          trx.accountID,
		PaymentReferenceID: reference,
		Amount:             params.Amount,
		Currency:           trx.entries[0].Currency(),
		PaymentDate:        trx.transactionDate,
		PaymentMode:        mode,
		RecordedAt:         trx.createdAt,
	}
	return trx, []events.Notification{notification}, nil
}
