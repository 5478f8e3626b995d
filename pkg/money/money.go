package money

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is given
const DefaultCurrency = "USD"

// Scale is a max number of decimal places of a stored amount
const Scale int32 = 2

var (
	// ErrInvalidAmount indicates a non positive amount where a positive one is required
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidCurrency indicates a currency that is not a 3-letter code
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// ErrCurrencyMismatch indicates arithmetic between different currencies
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

// Money is a currency tagged decimal amount
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NormalizeCurrency validates and upper-cases a currency code.
// Empty currency resolves to the DefaultCurrency
func NormalizeCurrency(currency string) (string, error) {
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return DefaultCurrency, nil
	}
	if len(currency) != 3 {
		return "", errors.Wrapf(ErrInvalidCurrency, "got %q", currency)
	}
	for _, r := range currency {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return "", errors.Wrapf(ErrInvalidCurrency, "got %q", currency)
		}
	}
	return strings.ToUpper(currency), nil
}

// New returns a money value of any sign
func New(amount decimal.Decimal, currency string) (Money, error) {
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: amount, currency: normalized}, nil
}

// NewPositive returns a money value that is strictly greater than zero
// and has no more than Scale decimal places
func NewPositive(amount decimal.Decimal, currency string) (Money, error) {
	if !amount.IsPositive() {
		return Money{}, errors.Wrapf(ErrInvalidAmount, "got %v", amount)
	}
	if !amount.Equal(amount.Truncate(Scale)) {
		return Money{}, errors.Wrapf(ErrInvalidAmount, "got %v, more than %v decimal places", amount, Scale)
	}
	return New(amount, currency)
}

// Zero returns zero amount of a given currency
func Zero(currency string) (Money, error) {
	return New(decimal.Zero, currency)
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns upper-cased currency code
func (m Money) Currency() string {
	return m.currency
}

// IsPositive reports whether amount is greater than zero
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsZero reports whether amount is exactly zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return errors.Wrapf(ErrCurrencyMismatch, "can not combine %v and %v", m.currency, other.currency)
	}
	return nil
}

// Add returns m + other. Fails if currencies differ
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m - other. Fails if currencies differ
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Equal compares amount and currency, amounts are compared exactly
// so 1.5 equals 1.50
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(Scale) + " " + m.currency
}
