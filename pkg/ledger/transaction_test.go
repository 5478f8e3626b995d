package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	tst "github.com/evgeny-myasishchev/ledger.accounting/pkg/internal/testing"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
)

func randomRideChargeParams() RideChargeParams {
	return RideChargeParams{
		TenantID:    uuid.NewV4(),
		AccountID:   uuid.NewV4(),
		RideID:      "R-" + faker.UUIDDigit()[:8],
		Fare:        tst.RandomAmount(),
		Currency:    "USD",
		ServiceDate: time.Now().Add(-time.Hour),
		FleetID:     "F-" + faker.Word(),
		CreatedAt:   time.Now(),
	}
}

func randomPaymentParams() PaymentParams {
	return PaymentParams{
		TenantID:           uuid.NewV4(),
		AccountID:          uuid.NewV4(),
		PaymentReferenceID: "PAY-" + faker.UUIDDigit()[:8],
		Amount:             tst.RandomAmount(),
		Currency:           "USD",
		PaymentDate:        time.Now().Add(-time.Hour),
		CreatedAt:          time.Now(),
	}
}

func TestNewRideCharge(t *testing.T) {
	type testCase struct {
		name   string
		params RideChargeParams
		assert func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name:   "balanced charge",
				params: randomRideChargeParams(),
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, RideCharge, trx.Type())
					assert.Equal(t, "ride:"+params.RideID, trx.IdempotencyKey())
					assert.Equal(t, "Ride service charge - "+params.RideID, trx.Description())
					assert.Equal(t, params.RideID, trx.ReferenceID())
					assert.Equal(t, RideReference, trx.ReferenceType())
					assert.Equal(t, DefaultCreatedBy, trx.CreatedBy())
					assert.Equal(t, params.ServiceDate.UTC(), trx.TransactionDate())

					entries := trx.Entries()
					if !assert.Len(t, entries, 2) {
						return
					}
					assert.Equal(t, AccountsReceivable, entries[0].AccountType())
					assert.True(t, params.Fare.Equal(entries[0].DebitAmount()))
					assert.Equal(t, ServiceRevenue, entries[1].AccountType())
					assert.True(t, params.Fare.Equal(entries[1].CreditAmount()))
					for _, entry := range entries {
						assert.Equal(t, trx.ID(), entry.TransactionID())
						assert.Equal(t, params.TenantID, entry.TenantID())
					}
					assert.True(t, trx.TotalDebit().Equal(trx.TotalCredit()))
				},
			}
		},
		func() testCase {
			return testCase{
				name:   "notification",
				params: randomRideChargeParams(),
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, []*RideChargeRecorded{{
						TransactionID: trx.ID(),
						TenantID:      params.TenantID,
						AccountID:     params.AccountID,
						RideID:        params.RideID,
						Amount:        params.Fare,
						Currency:      "USD",
						ServiceDate:   params.ServiceDate.UTC(),
						FleetID:       params.FleetID,
						RecordedAt:    params.CreatedAt.UTC(),
					}}, notifications)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.Fare = decimal.Zero
			return testCase{
				name:   "zero fare",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					assert.True(t, errors.Is(err, ErrInvalidAmount), err)
					assert.Nil(t, trx)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.Fare = decimal.RequireFromString("10.005")
			return testCase{
				name:   "fare with fraction of a cent",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					assert.True(t, errors.Is(err, ErrInvalidAmount), err)
					assert.Nil(t, trx)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.RideID = "  "
			return testCase{
				name:   "blank ride",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					assert.True(t, errors.Is(err, ErrInvalidReference), err)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.RideID = strings.Repeat("r", 101)
			return testCase{
				name:   "too long ride",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					assert.True(t, errors.Is(err, ErrInvalidReference), err)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.TenantID = uuid.Nil
			return testCase{
				name:   "no tenant",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					assert.Equal(t, ErrTenantContextMissing, err)
				},
			}
		},
		func() testCase {
			params := randomRideChargeParams()
			params.CreatedBy = "dispatcher"
			params.Currency = "eur"
			return testCase{
				name:   "explicit creator and currency",
				params: params,
				assert: func(t *testing.T, params RideChargeParams, trx *Transaction, notifications interface{}, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, "dispatcher", trx.CreatedBy())
					assert.Equal(t, "EUR", trx.Entries()[0].Currency())
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			trx, notifications, err := NewRideCharge(tt.params)
			var recorded []*RideChargeRecorded
			for _, n := range notifications {
				recorded = append(recorded, n.(*RideChargeRecorded))
			}
			tt.assert(t, tt.params, trx, recorded, err)
		})
	}
}

func TestNewPayment(t *testing.T) {
	t.Run("balanced payment", func(t *testing.T) {
		params := randomPaymentParams()
		trx, notifications, err := NewPayment(params)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, Payment, trx.Type())
		assert.Equal(t, "payment:"+params.PaymentReferenceID, trx.IdempotencyKey())
		assert.Equal(t, "Payment received - "+params.PaymentReferenceID, trx.Description())
		assert.Equal(t, PaymentReference, trx.ReferenceType())
		entries := trx.Entries()
		if !assert.Len(t, entries, 2) {
			return
		}
		assert.Equal(t, Cash, entries[0].AccountType())
		assert.Equal(t, Debit, entries[0].Side())
		assert.Equal(t, AccountsReceivable, entries[1].AccountType())
		assert.Equal(t, Credit, entries[1].Side())
		assert.True(t, params.Amount.Equal(trx.TotalDebit()))
		assert.True(t, params.Amount.Equal(trx.TotalCredit()))

		if !assert.Len(t, notifications, 1) {
			return
		}
		recorded := notifications[0].(*PaymentRecorded)
		assert.Equal(t, "ledger.PaymentRecorded", recorded.NotificationName())
		assert.Equal(t, params.TenantID, recorded.NotificationTenant())
		assert.Equal(t, trx.ID(), recorded.TransactionID)
		assert.Equal(t, params.PaymentReferenceID, recorded.PaymentReferenceID)
	})
	t.Run("payment mode in description", func(t *testing.T) {
		params := randomPaymentParams()
		params.PaymentMode = "card"
		trx, notifications, err := NewPayment(params)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "Payment received - "+params.PaymentReferenceID+" (card)", trx.Description())
		assert.Equal(t, "card", notifications[0].(*PaymentRecorded).PaymentMode)
	})
	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5), decimal.RequireFromString("0.001")} {
		amount := amount
		t.Run("reject amount "+amount.String(), func(t *testing.T) {
			params := randomPaymentParams()
			params.Amount = amount
			trx, notifications, err := NewPayment(params)
			assert.True(t, errors.Is(err, ErrInvalidAmount), err)
			assert.Nil(t, trx)
			assert.Empty(t, notifications)
		})
	}
}

func TestValidateBalance(t *testing.T) {
	entryOf := func(side Side, amount string, currency string) *Entry {
		params := randomEntryParams()
		params.Amount = decimal.RequireFromString(amount)
		params.Currency = currency
		entry, err := newEntry(side, params)
		if err != nil {
			panic(err)
		}
		return entry
	}
	type testCase struct {
		name    string
		entries []*Entry
		assert  func(t *testing.T, err error)
	}
	tests := []func() testCase{
		func() testCase {
			return testCase{
				name: "balanced multi leg",
				entries: []*Entry{
					entryOf(Debit, "10.10", "USD"),
					entryOf(Debit, "0.20", "USD"),
					entryOf(Credit, "10.30", "USD"),
				},
				assert: func(t *testing.T, err error) {
					assert.NoError(t, err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "unbalanced",
				entries: []*Entry{
					entryOf(Debit, "10", "USD"),
					entryOf(Credit, "9.99", "USD"),
				},
				assert: func(t *testing.T, err error) {
					var unbalanced *UnbalancedTransactionError
					if !assert.True(t, errors.As(err, &unbalanced), err) {
						return
					}
					assert.True(t, decimal.NewFromInt(10).Equal(unbalanced.Debits))
					assert.True(t, decimal.RequireFromString("9.99").Equal(unbalanced.Credits))
					assert.EqualError(t, err, "Transaction is unbalanced: Debits=10, Credits=9.99")
				},
			}
		},
		func() testCase {
			return testCase{
				name: "debit only",
				entries: []*Entry{
					entryOf(Debit, "10", "USD"),
				},
				assert: func(t *testing.T, err error) {
					assert.IsType(t, &UnbalancedTransactionError{}, err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "no entries",
				assert: func(t *testing.T, err error) {
					assert.IsType(t, &UnbalancedTransactionError{}, err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "mixed currency",
				entries: []*Entry{
					entryOf(Debit, "10", "USD"),
					entryOf(Credit, "10", "EUR"),
				},
				assert: func(t *testing.T, err error) {
					assert.True(t, errors.Is(err, money.ErrCurrencyMismatch), err)
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			tt.assert(t, ValidateBalance(tt.entries))
		})
	}
}

func TestFactories_AlwaysBalanced(t *testing.T) {
	for i := 0; i < 100; i++ {
		charge, _, err := NewRideCharge(randomRideChargeParams())
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, charge.TotalDebit().Equal(charge.TotalCredit()))

		payment, _, err := NewPayment(randomPaymentParams())
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, payment.TotalDebit().Equal(payment.TotalCredit()))
	}
}
