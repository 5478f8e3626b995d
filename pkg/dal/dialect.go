package dal

import (
	"database/sql/driver"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const (
	constraintIdempotencyKey = "ux_ledger_transactions_idempotency"
	constraintAccountCode    = "ux_accounts_code"
)

type dialect interface {
	schema() string

	// violatedConstraint returns a name of a unique constraint or index violated
	// by the error, empty string if the error is not a unique violation
	violatedConstraint(err error) string

	isTransient(err error) bool
}

type sqliteDialect struct{}

func (sqliteDialect) schema() string {
	return `
CREATE TABLE IF NOT EXISTS accounts(
	id                TEXT NOT NULL PRIMARY KEY,
	tenant_id         TEXT NOT NULL,
	code              TEXT NOT NULL,
	name              TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	type              INTEGER NOT NULL,
	status            INTEGER NOT NULL,
	parent_account_id TEXT NULL,
	currency          TEXT NOT NULL,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_code ON accounts(tenant_id, code);

CREATE TABLE IF NOT EXISTS ledger_transactions(
	id               TEXT NOT NULL PRIMARY KEY,
	tenant_id        TEXT NOT NULL,
	account_id       TEXT NOT NULL,
	type             TEXT NOT NULL,
	idempotency_key  TEXT NOT NULL,
	description      TEXT NOT NULL,
	reference_id     TEXT NOT NULL DEFAULT '',
	reference_type   TEXT NOT NULL DEFAULT '',
	transaction_date TIMESTAMP NOT NULL,
	created_at       TIMESTAMP NOT NULL,
	created_by       TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_transactions_idempotency
	ON ledger_transactions(tenant_id, account_id, idempotency_key);
CREATE INDEX IF NOT EXISTS ix_ledger_transactions_account ON ledger_transactions(tenant_id, account_id);
CREATE INDEX IF NOT EXISTS ix_ledger_transactions_date ON ledger_transactions(tenant_id, transaction_date);

CREATE TABLE IF NOT EXISTS ledger_entries(
	id                    TEXT NOT NULL PRIMARY KEY,
	tenant_id             TEXT NOT NULL,
	ledger_transaction_id TEXT NOT NULL REFERENCES ledger_transactions(id) ON DELETE CASCADE,
	account_id            TEXT NOT NULL,
	account_type          TEXT NOT NULL,
	debit_amount          TEXT NOT NULL,
	credit_amount         TEXT NOT NULL,
	currency              TEXT NOT NULL,
	description           TEXT NOT NULL DEFAULT '',
	created_at            TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_ledger_entries_account ON ledger_entries(tenant_id, account_id);
CREATE INDEX IF NOT EXISTS ix_ledger_entries_account_type ON ledger_entries(tenant_id, account_type);
`
}

func (sqliteDialect) violatedConstraint(err error) string {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return ""
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique:
		msg := sqliteErr.Error()
		if strings.Contains(msg, "ledger_transactions.idempotency_key") {
			return constraintIdempotencyKey
		}
		if strings.Contains(msg, "accounts.code") {
			return constraintAccountCode
		}
		return "unique"
	case sqlite3.ErrConstraintPrimaryKey:
		return "primary key"
	}
	return ""
}

func (sqliteDialect) isTransient(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return errors.Is(err, driver.ErrBadConn)
}

type postgresDialect struct{}

func (postgresDialect) schema() string {
	return `
CREATE TABLE IF NOT EXISTS accounts(
	id                UUID NOT NULL PRIMARY KEY,
	tenant_id         UUID NOT NULL,
	code              VARCHAR(20) NOT NULL,
	name              VARCHAR(200) NOT NULL,
	description       VARCHAR(1000) NOT NULL DEFAULT '',
	type              SMALLINT NOT NULL,
	status            SMALLINT NOT NULL,
	parent_account_id UUID NULL REFERENCES accounts(id),
	currency          CHAR(3) NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_accounts_code ON accounts(tenant_id, code);

CREATE TABLE IF NOT EXISTS ledger_transactions(
	id               UUID NOT NULL PRIMARY KEY,
	tenant_id        UUID NOT NULL,
	account_id       UUID NOT NULL,
	type             VARCHAR(20) NOT NULL,
	idempotency_key  VARCHAR(200) NOT NULL,
	description      VARCHAR(500) NOT NULL,
	reference_id     VARCHAR(100) NOT NULL DEFAULT '',
	reference_type   VARCHAR(50) NOT NULL DEFAULT '',
	transaction_date TIMESTAMPTZ NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL,
	created_by       VARCHAR(100) NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS ux_ledger_transactions_idempotency
	ON ledger_transactions(tenant_id, account_id, idempotency_key);
CREATE INDEX IF NOT EXISTS ix_ledger_transactions_account ON ledger_transactions(tenant_id, account_id);
CREATE INDEX IF NOT EXISTS ix_ledger_transactions_date ON ledger_transactions(tenant_id, transaction_date);

CREATE TABLE IF NOT EXISTS ledger_entries(
	id                    UUID NOT NULL PRIMARY KEY,
	tenant_id             UUID NOT NULL,
	ledger_transaction_id UUID NOT NULL REFERENCES ledger_transactions(id) ON DELETE CASCADE,
	account_id            UUID NOT NULL,
	account_type          VARCHAR(50) NOT NULL,
	debit_amount          NUMERIC(18,2) NOT NULL CHECK (debit_amount >= 0),
	credit_amount         NUMERIC(18,2) NOT NULL CHECK (credit_amount >= 0),
	currency              CHAR(3) NOT NULL,
	description           VARCHAR(500) NOT NULL DEFAULT '',
	created_at            TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_ledger_entries_account ON ledger_entries(tenant_id, account_id);
CREATE INDEX IF NOT EXISTS ix_ledger_entries_account_type ON ledger_entries(tenant_id, account_type);
`
}

// See https://www.postgresql.org/docs/current/errcodes-appendix.html
var transientPostgresCodes = map[pq.ErrorCode]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"53300": true, // too_many_connections
	"57P01": true, // admin_shutdown
}

func (postgresDialect) violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return pqErr.Constraint
	}
	return ""
}

func (postgresDialect) isTransient(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 08 is a connection exception class
		return transientPostgresCodes[pqErr.Code] || pqErr.Code.Class() == "08"
	}
	return errors.Is(err, driver.ErrBadConn)
}

func dialectFor(driverName string) (dialect, error) {
	switch driverName {
	case "sqlite3":
		return sqliteDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	}
	return nil, errors.Errorf("Unsupported storage driver: %v", driverName)
}
