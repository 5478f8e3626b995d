package ledger

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	"github.com/cenkalti/backoff/v4"
	"github.com/golang/mock/gomock"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal/daltest"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/events/mocks"
	tst "github.com/evgeny-myasishchev/ledger.accounting/pkg/internal/testing"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/tenant"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/uow"
)

type serviceFixture struct {
	ctx      context.Context
	tenantID uuid.UUID
	account  *dal.AccountDTO
	storage  dal.Storage
	db       *sql.DB
	sink     *mocks.MockSink
	now      *tst.MockNowService
	boundary *uow.Boundary
	inner    Service
	svc      Service
}

type fixtureOpt func(f *serviceFixture)

func withStorage(wrap func(storage dal.Storage) dal.Storage) fixtureOpt {
	return func(f *serviceFixture) {
		f.storage = wrap(f.storage)
	}
}

func newServiceFixture(t *testing.T, opts ...fixtureOpt) *serviceFixture {
	storage, db := daltest.NewSQLiteStorage(t)
	tenantID := uuid.NewV4()
	f := &serviceFixture{
		ctx:      tenant.WithTenant(context.Background(), tenantID),
		tenantID: tenantID,
		account:  daltest.SeedAccount(t, storage, tenantID),
		storage:  storage,
		db:       db,
		sink:     mocks.NewMockSink(gomock.NewController(t)),
		now:      tst.NewMockNowService(time.Now().UTC().Truncate(time.Microsecond)),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.boundary = uow.NewBoundary(
		uow.WithTransactor(f.storage),
		uow.WithTransientErrors(f.storage.IsTransient),
		uow.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	)
	f.inner = NewService(
		WithStorage(f.storage),
		WithSink(f.sink),
		WithNow(f.now.Now),
	)
	f.svc = NewTransactionalService(f.inner, f.boundary)
	return f
}

func (f *serviceFixture) countTransactions(t *testing.T) int {
	var count int
	if err := f.db.QueryRow(`SELECT count(*) FROM ledger_transactions`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	return count
}

func (f *serviceFixture) countEntries(t *testing.T) int {
	var count int
	if err := f.db.QueryRow(`SELECT count(*) FROM ledger_entries`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	return count
}

func (f *serviceFixture) rideChargeCmd() RecordRideChargeCmd {
	return RecordRideChargeCmd{
		AccountID:   f.account.ID,
		RideID:      "R-" + faker.UUIDDigit()[:8],
		Fare:        tst.RandomAmount(),
		ServiceDate: f.now.Now().Add(-2 * time.Hour),
		FleetID:     "F-" + faker.Word(),
	}
}

func (f *serviceFixture) paymentCmd() RecordPaymentCmd {
	return RecordPaymentCmd{
		AccountID:          f.account.ID,
		PaymentReferenceID: "PAY-" + faker.UUIDDigit()[:8],
		Amount:             tst.RandomAmount(),
		PaymentDate:        f.now.Now().Add(-time.Hour),
		PaymentMode:        "card",
	}
}

type racingStorage struct {
	dal.Storage
	mtx     sync.Mutex
	misses  int
	failing int
}

// FindTransactionByIdempotencyKey misses first lookups as if a concurrent writer is not yet committed
func (s *racingStorage) FindTransactionByIdempotencyKey(
	ctx context.Context, tenantID, accountID uuid.UUID, key string,
) (*dal.TransactionDTO, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.misses > 0 {
		s.misses--
		return nil, dal.ErrNotFound
	}
	return s.Storage.FindTransactionByIdempotencyKey(ctx, tenantID, accountID, key)
}

// InsertTransaction fails with a busy error first times
func (s *racingStorage) InsertTransaction(ctx context.Context, trx *dal.TransactionDTO) error {
	s.mtx.Lock()
	failing := s.failing > 0
	if failing {
		s.failing--
	}
	s.mtx.Unlock()
	if failing {
		return errors.Wrap(sqlite3.Error{Code: sqlite3.ErrBusy}, "Failed to insert ledger transaction")
	}
	return s.Storage.InsertTransaction(ctx, trx)
}

func TestService_RecordRideCharge(t *testing.T) {
	type testCase struct {
		name   string
		opts   []fixtureOpt
		setup  func(t *testing.T, f *serviceFixture) RecordRideChargeCmd
		assert func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error)
	}
	tests := []func() testCase{
		func() testCase {
			var published []*RideChargeRecorded
			return testCase{
				name: "record new charge",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().
						Publish(gomock.Any(), gomock.AssignableToTypeOf(&RideChargeRecorded{})).
						DoAndReturn(func(ctx context.Context, n *RideChargeRecorded) error {
							published = append(published, n)
							return nil
						})
					return f.rideChargeCmd()
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.False(t, got.Replayed)
					trx := got.Transaction
					assert.Equal(t, "ride:"+cmd.RideID, trx.IdempotencyKey())
					assert.Equal(t, f.tenantID, trx.TenantID())
					assert.Equal(t, f.now.Now(), trx.CreatedAt())

					stored, err := f.storage.GetTransaction(context.Background(), f.tenantID, trx.ID())
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, "ride:"+cmd.RideID, stored.IdempotencyKey)
					assert.Len(t, stored.Entries, 2)

					if !assert.Len(t, published, 1) {
						return
					}
					assert.Equal(t, trx.ID(), published[0].TransactionID)
					assert.Equal(t, cmd.RideID, published[0].RideID)
					assert.True(t, cmd.Fare.Equal(published[0].Amount))
				},
			}
		},
		func() testCase {
			var first *RecordResult
			return testCase{
				name: "same ride recorded twice",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
					cmd := f.rideChargeCmd()
					var err error
					first, err = f.svc.RecordRideCharge(f.ctx, cmd)
					if err != nil {
						panic(err)
					}
					return cmd
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.True(t, got.Replayed)
					assert.Equal(t, first.Transaction.ID(), got.Transaction.ID())
					assert.Len(t, got.Transaction.Entries(), 2)
					assert.Equal(t, 1, f.countTransactions(t))
				},
			}
		},
		func() testCase {
			return testCase{
				name: "unknown account",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					cmd := f.rideChargeCmd()
					cmd.AccountID = uuid.NewV4()
					cmd.Fare = decimal.NewFromInt(5)
					return cmd
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					assert.True(t, errors.Is(err, ErrAccountNotFound), err)
					assert.EqualError(t, err, "Account '"+cmd.AccountID.String()+"': account not found")
					assert.Nil(t, got)
					assert.Equal(t, 0, f.countTransactions(t))
					assert.Equal(t, 0, f.countEntries(t))
				},
			}
		},
		func() testCase {
			return testCase{
				name: "account of other tenant",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					other := daltest.SeedAccount(t, f.storage, uuid.NewV4())
					cmd := f.rideChargeCmd()
					cmd.AccountID = other.ID
					return cmd
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					assert.True(t, errors.Is(err, ErrAccountNotFound), err)
				},
			}
		},
		func() testCase {
			return testCase{
				name: "concurrent writer recorded the charge first",
				opts: []fixtureOpt{withStorage(func(storage dal.Storage) dal.Storage {
					return &racingStorage{Storage: storage}
				})},
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
					cmd := f.rideChargeCmd()
					if _, err := f.svc.RecordRideCharge(f.ctx, cmd); err != nil {
						panic(err)
					}
					f.storage.(*racingStorage).misses = 1
					return cmd
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.True(t, got.Replayed)
					assert.Equal(t, "ride:"+cmd.RideID, got.Transaction.IdempotencyKey())
					assert.Equal(t, 1, f.countTransactions(t))
					assert.Equal(t, 2, f.countEntries(t))
				},
			}
		},
		func() testCase {
			return testCase{
				name: "transient failure is retried",
				opts: []fixtureOpt{withStorage(func(storage dal.Storage) dal.Storage {
					return &racingStorage{Storage: storage, failing: 2}
				})},
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
					return f.rideChargeCmd()
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.False(t, got.Replayed)
					assert.Equal(t, 1, f.countTransactions(t))
				},
			}
		},
		func() testCase {
			return testCase{
				name: "sink failure does not fail recording",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New(faker.Sentence()))
					return f.rideChargeCmd()
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					assert.Equal(t, 1, f.countTransactions(t))
				},
			}
		},
		func() testCase {
			return testCase{
				name: "charges use account currency",
				setup: func(t *testing.T, f *serviceFixture) RecordRideChargeCmd {
					f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
					account := daltest.RandomAccountDTO(f.tenantID)
					account.Currency = "EUR"
					if err := f.storage.InsertAccount(context.Background(), account); err != nil {
						panic(err)
					}
					cmd := f.rideChargeCmd()
					cmd.AccountID = account.ID
					return cmd
				},
				assert: func(t *testing.T, f *serviceFixture, cmd RecordRideChargeCmd, got *RecordResult, err error) {
					if !assert.NoError(t, err) {
						return
					}
					for _, entry := range got.Transaction.Entries() {
						assert.Equal(t, "EUR", entry.Currency())
					}
				},
			}
		},
	}
	for _, tt := range tests {
		tt := tt()
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, tt.opts...)
			cmd := tt.setup(t, f)
			got, err := f.svc.RecordRideCharge(f.ctx, cmd)
			tt.assert(t, f, cmd, got, err)
		})
	}
}

func TestService_RecordPayment(t *testing.T) {
	t.Run("record new payment", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.AssignableToTypeOf(&PaymentRecorded{})).Return(nil)
		cmd := f.paymentCmd()
		got, err := f.svc.RecordPayment(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		assert.False(t, got.Replayed)
		assert.Equal(t, "payment:"+cmd.PaymentReferenceID, got.Transaction.IdempotencyKey())
		assert.Equal(t, "Payment received - "+cmd.PaymentReferenceID+" (card)", got.Transaction.Description())
		assert.Equal(t, 1, f.countTransactions(t))
	})

	t.Run("same payment recorded twice", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
		cmd := f.paymentCmd()
		first, err := f.svc.RecordPayment(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		second, err := f.svc.RecordPayment(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, second.Replayed)
		assert.Equal(t, first.Transaction.ID(), second.Transaction.ID())
		assert.Equal(t, 1, f.countTransactions(t))
	})

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		amount := amount
		t.Run("reject amount "+amount.String(), func(t *testing.T) {
			f := newServiceFixture(t)
			cmd := f.paymentCmd()
			cmd.PaymentReferenceID = "P1"
			cmd.Amount = amount
			got, err := f.svc.RecordPayment(f.ctx, cmd)
			assert.True(t, errors.Is(err, ErrInvalidAmount), err)
			assert.Nil(t, got)
			assert.Equal(t, 0, f.countTransactions(t))
			assert.Equal(t, 0, f.countEntries(t))
		})
	}

	t.Run("same reference for other account", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		cmd := f.paymentCmd()
		first, err := f.svc.RecordPayment(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		cmd.AccountID = daltest.SeedAccount(t, f.storage, f.tenantID).ID
		second, err := f.svc.RecordPayment(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		assert.False(t, second.Replayed)
		assert.NotEqual(t, first.Transaction.ID(), second.Transaction.ID())
	})
}

func TestService_ConcurrentRecording(t *testing.T) {
	f := newServiceFixture(t)
	f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	cmd := f.rideChargeCmd()

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*RecordResult, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.RecordRideCharge(f.ctx, cmd)
		}(i)
	}
	wg.Wait()

	replayed := 0
	for i := 0; i < callers; i++ {
		if !assert.NoError(t, errs[i]) {
			return
		}
		assert.Equal(t, results[0].Transaction.ID(), results[i].Transaction.ID())
		if results[i].Replayed {
			replayed++
		}
	}
	assert.Equal(t, callers-1, replayed)
	assert.Equal(t, 1, f.countTransactions(t))
}

func TestService_RollbackOnFailure(t *testing.T) {
	f := newServiceFixture(t)
	failure := errors.New(faker.Sentence())

	err := f.boundary.Execute(f.ctx, uow.NewCommand("charge and fail"), func(ctx context.Context) error {
		if _, err := f.svc.RecordRideCharge(ctx, f.rideChargeCmd()); err != nil {
			return err
		}
		if _, err := f.svc.RecordPayment(ctx, f.paymentCmd()); err != nil {
			return err
		}
		return failure
	})

	assert.Equal(t, failure, err)
	assert.Equal(t, 0, f.countTransactions(t))
	assert.Equal(t, 0, f.countEntries(t))
}

func TestService_GetAccountBalance(t *testing.T) {
	t.Run("charge minus payment", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		charge := f.rideChargeCmd()
		charge.RideID = "R1"
		charge.Fare = decimal.NewFromInt(100)
		payment := f.paymentCmd()
		payment.PaymentReferenceID = "P1"
		payment.Amount = decimal.NewFromInt(40)
		if _, err := f.svc.RecordRideCharge(f.ctx, charge); !assert.NoError(t, err) {
			return
		}
		if _, err := f.svc.RecordPayment(f.ctx, payment); !assert.NoError(t, err) {
			return
		}
		balance, err := f.svc.GetAccountBalance(f.ctx, f.account.ID)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, "60.00", balance.StringFixed(2))
	})

	t.Run("fully paid", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)
		charge := f.rideChargeCmd()
		charge.Fare = decimal.RequireFromString("25.50")
		payment := f.paymentCmd()
		payment.Amount = decimal.RequireFromString("25.50")
		if _, err := f.svc.RecordRideCharge(f.ctx, charge); !assert.NoError(t, err) {
			return
		}
		if _, err := f.svc.RecordPayment(f.ctx, payment); !assert.NoError(t, err) {
			return
		}
		balance, err := f.svc.GetAccountBalance(f.ctx, f.account.ID)
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, balance.IsZero())
		assert.Equal(t, "0.00", balance.StringFixed(2))
	})

	t.Run("entries of other accounts are ignored", func(t *testing.T) {
		f := newServiceFixture(t)
		f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(1)
		charge := f.rideChargeCmd()
		charge.AccountID = daltest.SeedAccount(t, f.storage, f.tenantID).ID
		if _, err := f.svc.RecordRideCharge(f.ctx, charge); !assert.NoError(t, err) {
			return
		}
		balance, err := f.svc.GetAccountBalance(f.ctx, f.account.ID)
		if !assert.NoError(t, err) {
			return
		}
		assert.True(t, balance.IsZero())
	})
}

func TestService_GetTransaction(t *testing.T) {
	f := newServiceFixture(t)
	f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	recorded, err := f.svc.RecordRideCharge(f.ctx, f.rideChargeCmd())
	if !assert.NoError(t, err) {
		return
	}

	t.Run("existing transaction", func(t *testing.T) {
		got, err := f.svc.GetTransaction(f.ctx, recorded.Transaction.ID())
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, recorded.Transaction.IdempotencyKey(), got.IdempotencyKey())
		assert.True(t, recorded.Transaction.TotalDebit().Equal(got.TotalDebit()))
		assert.True(t, got.TotalDebit().Equal(got.TotalCredit()))
		entries := got.Entries()
		if !assert.Len(t, entries, 2) {
			return
		}
		assert.Equal(t, Debit, entries[0].Side())
		assert.Equal(t, AccountsReceivable, entries[0].AccountType())
		assert.Equal(t, Credit, entries[1].Side())
	})
	t.Run("other tenant", func(t *testing.T) {
		ctx := tenant.WithTenant(context.Background(), uuid.NewV4())
		_, err := f.svc.GetTransaction(ctx, recorded.Transaction.ID())
		assert.True(t, errors.Is(err, ErrTransactionNotFound), err)
	})
}

func TestService_ListAccountTransactions(t *testing.T) {
	f := newServiceFixture(t)
	f.sink.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		cmd := f.rideChargeCmd()
		cmd.ServiceDate = base.AddDate(0, 0, i)
		got, err := f.svc.RecordRideCharge(f.ctx, cmd)
		if !assert.NoError(t, err) {
			return
		}
		ids = append(ids, got.Transaction.ID())
	}

	t.Run("latest first", func(t *testing.T) {
		got, err := f.svc.ListAccountTransactions(f.ctx, f.account.ID, TransactionsQuery{})
		if !assert.NoError(t, err) || !assert.Len(t, got, 3) {
			return
		}
		assert.Equal(t, ids[2], got[0].ID())
		assert.Equal(t, ids[0], got[2].ID())
	})
	t.Run("date range", func(t *testing.T) {
		got, err := f.svc.ListAccountTransactions(f.ctx, f.account.ID, TransactionsQuery{
			From: base.AddDate(0, 0, 1),
			To:   base.AddDate(0, 0, 5),
		})
		if !assert.NoError(t, err) || !assert.Len(t, got, 2) {
			return
		}
		assert.Equal(t, ids[2], got[0].ID())
	})
	t.Run("invalid date range", func(t *testing.T) {
		_, err := f.svc.ListAccountTransactions(f.ctx, f.account.ID, TransactionsQuery{
			From: base.AddDate(0, 0, 1),
			To:   base,
		})
		assert.True(t, errors.Is(err, ErrInvalidDateRange), err)
	})
}

func TestService_TenantContextMissing(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordRideCharge(ctx, f.rideChargeCmd())
	assert.Equal(t, ErrTenantContextMissing, err)
	_, err = f.svc.RecordPayment(ctx, f.paymentCmd())
	assert.Equal(t, ErrTenantContextMissing, err)
	_, err = f.svc.GetAccountBalance(ctx, f.account.ID)
	assert.Equal(t, ErrTenantContextMissing, err)
	_, err = f.svc.GetTransaction(ctx, uuid.NewV4())
	assert.Equal(t, ErrTenantContextMissing, err)
	_, err = f.svc.ListAccountTransactions(ctx, f.account.ID, TransactionsQuery{})
	assert.Equal(t, ErrTenantContextMissing, err)
	assert.Equal(t, 0, f.countTransactions(t))
}
