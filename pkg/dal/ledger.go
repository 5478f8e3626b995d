package dal

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

const transactionColumns = `id, tenant_id, account_id, type, idempotency_key, description,
	reference_id, reference_type, transaction_date, created_at, created_by`

const entryColumns = `id, tenant_id, ledger_transaction_id, account_id, account_type,
	debit_amount, credit_amount, currency, description, created_at`

func scanTransaction(row rowScanner) (*TransactionDTO, error) {
	trx := &TransactionDTO{}
	if err := row.Scan(
		&trx.ID,
		&trx.TenantID,
		&trx.AccountID,
		&trx.Type,
		&trx.IdempotencyKey,
		&trx.Description,
		&trx.ReferenceID,
		&trx.ReferenceType,
		&trx.TransactionDate,
		&trx.CreatedAt,
		&trx.CreatedBy,
	); err != nil {
		return nil, err
	}
	trx.TransactionDate = trx.TransactionDate.UTC()
	trx.CreatedAt = trx.CreatedAt.UTC()
	return trx, nil
}

func scanEntry(row rowScanner) (*EntryDTO, error) {
	entry := &EntryDTO{}
	if err := row.Scan(
		&entry.ID,
		&entry.TenantID,
		&entry.TransactionID,
		&entry.AccountID,
		&entry.AccountType,
		&entry.DebitAmount,
		&entry.CreditAmount,
		&entry.Currency,
		&entry.Description,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.CreatedAt = entry.CreatedAt.UTC()
	return entry, nil
}

func (s *sqlStorage) InsertTransaction(ctx context.Context, trx *TransactionDTO) error {
	return s.atomic(ctx, func(exec executor) error {
		res, err := exec.ExecContext(ctx, `
		INSERT INTO ledger_transactions(`+transactionColumns+`)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (tenant_id, account_id, idempotency_key) DO NOTHING`,
			trx.ID,
			trx.TenantID,
			trx.AccountID,
			trx.Type,
			trx.IdempotencyKey,
			trx.Description,
			trx.ReferenceID,
			trx.ReferenceType,
			utc(trx.TransactionDate),
			utc(trx.CreatedAt),
			trx.CreatedBy,
		)
		if err != nil {
			if s.dialect.violatedConstraint(err) == constraintIdempotencyKey {
				return errors.Wrapf(ErrDuplicateIdempotencyKey, "key %v", trx.IdempotencyKey)
			}
			return errors.Wrap(err, "Failed to insert ledger transaction")
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "Failed to insert ledger transaction")
		}
		if affected == 0 {
			return errors.Wrapf(ErrDuplicateIdempotencyKey, "key %v", trx.IdempotencyKey)
		}

		for _, entry := range trx.Entries {
			if _, err := exec.ExecContext(ctx, `
			INSERT INTO ledger_entries(`+entryColumns+`)
			VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
				entry.ID,
				entry.TenantID,
				entry.TransactionID,
				entry.AccountID,
				entry.AccountType,
				entry.DebitAmount,
				entry.CreditAmount,
				entry.Currency,
				entry.Description,
				utc(entry.CreatedAt),
			); err != nil {
				return errors.Wrapf(err, "Failed to insert ledger entry %v", entry.ID)
			}
		}
		return nil
	})
}

// loadEntries attaches entries to given transactions
func (s *sqlStorage) loadEntries(ctx context.Context, tenantID uuid.UUID, trxs []*TransactionDTO) error {
	if len(trxs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*TransactionDTO, len(trxs))
	q := &queryBuilder{}
	q.write(`SELECT `, entryColumns, ` FROM ledger_entries WHERE tenant_id = `, q.arg(tenantID),
		` AND ledger_transaction_id IN (`)
	for i, trx := range trxs {
		if i > 0 {
			q.write(", ")
		}
		q.write(q.arg(trx.ID))
		byID[trx.ID] = trx
		trx.Entries = []*EntryDTO{}
	}
	q.write(`) ORDER BY created_at, debit_amount DESC, id`)

	rows, err := s.conn(ctx).QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return errors.Wrap(err, "Failed to query ledger entries")
	}
	defer rows.Close()
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return errors.Wrap(err, "Failed to scan ledger entry")
		}
		if trx, ok := byID[entry.TransactionID]; ok {
			trx.Entries = append(trx.Entries, entry)
		}
	}
	return errors.Wrap(rows.Err(), "Failed to query ledger entries")
}

func (s *sqlStorage) getTransaction(ctx context.Context, tenantID uuid.UUID, where string, args ...interface{}) (*TransactionDTO, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
	SELECT `+transactionColumns+`
	FROM ledger_transactions WHERE `+where, args...)
	trx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get ledger transaction")
	}
	if err := s.loadEntries(ctx, tenantID, []*TransactionDTO{trx}); err != nil {
		return nil, err
	}
	return trx, nil
}

func (s *sqlStorage) GetTransaction(ctx context.Context, tenantID, transactionID uuid.UUID) (*TransactionDTO, error) {
	trx, err := s.getTransaction(ctx, tenantID, `tenant_id = $1 AND id = $2`, tenantID, transactionID)
	if err == ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "ledger transaction %v", transactionID)
	}
	return trx, err
}

func (s *sqlStorage) FindTransactionByIdempotencyKey(
	ctx context.Context, tenantID, accountID uuid.UUID, key string,
) (*TransactionDTO, error) {
	trx, err := s.getTransaction(ctx, tenantID,
		`tenant_id = $1 AND account_id = $2 AND idempotency_key = $3`,
		tenantID, accountID, key,
	)
	if err == ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "ledger transaction %v", key)
	}
	return trx, err
}

func (s *sqlStorage) ListTransactions(ctx context.Context, query TransactionsQuery) ([]*TransactionDTO, error) {
	q := &queryBuilder{}
	q.write(`SELECT `, transactionColumns, ` FROM ledger_transactions WHERE tenant_id = `, q.arg(query.TenantID),
		` AND account_id = `, q.arg(query.AccountID))
	if !query.From.IsZero() {
		q.write(` AND transaction_date >= `, q.arg(utc(query.From)))
	}
	if !query.To.IsZero() {
		q.write(` AND transaction_date <= `, q.arg(utc(query.To)))
	}
	q.write(` ORDER BY transaction_date DESC, created_at DESC`)
	if query.Limit > 0 {
		q.write(` LIMIT `, q.arg(query.Limit), ` OFFSET `, q.arg(query.Offset))
	}

	rows, err := s.conn(ctx).QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list ledger transactions")
	}
	result := []*TransactionDTO{}
	for rows.Next() {
		trx, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, errors.Wrap(err, "Failed to scan ledger transaction")
		}
		result = append(result, trx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed to list ledger transactions")
	}

	if err := s.loadEntries(ctx, query.TenantID, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *sqlStorage) ListEntries(ctx context.Context, query EntriesQuery) ([]*EntryDTO, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
	SELECT `+entryColumns+`
	FROM ledger_entries
	WHERE tenant_id = $1 AND account_id = $2 AND account_type = $3
	ORDER BY created_at, id`,
		query.TenantID, query.AccountID, query.AccountType,
	)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list ledger entries")
	}
	defer rows.Close()

	result := []*EntryDTO{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to scan ledger entry")
		}
		result = append(result, entry)
	}
	return result, errors.Wrap(rows.Err(), "Failed to list ledger entries")
}
