// Package daltest provides sqlite backed storage for tests
package daltest

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/bxcodec/faker/v3"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	uuid "github.com/satori/go.uuid"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
)

// NewSQLiteStorage opens in-memory db with schema applied. The db is closed on test cleanup
func NewSQLiteStorage(t *testing.T) (dal.Storage, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	storage, err := dal.NewSQLStorage(dal.WithSQLDb(db))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	if err := storage.Setup(context.Background()); err != nil {
		t.Fatalf("failed to setup storage: %v", err)
	}
	return storage, db
}

// RandomAccountDTO returns active customer account of a tenant
func RandomAccountDTO(tenantID uuid.UUID) *dal.AccountDTO {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &dal.AccountDTO{
		ID:          uuid.NewV4(),
		TenantID:    tenantID,
		Code:        "ACC-" + strings.ToUpper(faker.UUIDDigit()[:8]),
		Name:        faker.Name(),
		Description: faker.Sentence(),
		Type:        1,
		Status:      1,
		Currency:    "USD",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SeedAccount inserts a random account of a tenant
func SeedAccount(t *testing.T, storage dal.Storage, tenantID uuid.UUID) *dal.AccountDTO {
	t.Helper()
	account := RandomAccountDTO(tenantID)
	if err := storage.InsertAccount(context.Background(), account); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}
	return account
}
