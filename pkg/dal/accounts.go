package dal

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
)

const accountColumns = `id, tenant_id, code, name, description, type, status,
	parent_account_id, currency, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*AccountDTO, error) {
	account := &AccountDTO{}
	if err := row.Scan(
		&account.ID,
		&account.TenantID,
		&account.Code,
		&account.Name,
		&account.Description,
		&account.Type,
		&account.Status,
		&account.ParentAccountID,
		&account.Currency,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

func (s *sqlStorage) InsertAccount(ctx context.Context, account *AccountDTO) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
	INSERT INTO accounts(`+accountColumns+`)
	VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID,
		account.TenantID,
		account.Code,
		account.Name,
		account.Description,
		account.Type,
		account.Status,
		account.ParentAccountID,
		account.Currency,
		utc(account.CreatedAt),
		utc(account.UpdatedAt),
	)
	if err != nil {
		if s.dialect.violatedConstraint(err) == constraintAccountCode {
			return errors.Wrapf(ErrDuplicateAccountCode, "code %v", account.Code)
		}
		return errors.Wrap(err, "Failed to insert account")
	}
	return nil
}

func (s *sqlStorage) UpdateAccount(ctx context.Context, account *AccountDTO) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
	UPDATE accounts
	SET name = $1, description = $2, status = $3, parent_account_id = $4, updated_at = $5
	WHERE tenant_id = $6 AND id = $7`,
		account.Name,
		account.Description,
		account.Status,
		account.ParentAccountID,
		utc(account.UpdatedAt),
		account.TenantID,
		account.ID,
	)
	if err != nil {
		return errors.Wrap(err, "Failed to update account")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "Failed to update account")
	}
	if affected == 0 {
		return errors.Wrapf(ErrNotFound, "account %v", account.ID)
	}
	return nil
}

func (s *sqlStorage) GetAccount(ctx context.Context, tenantID, accountID uuid.UUID) (*AccountDTO, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
	SELECT `+accountColumns+`
	FROM accounts WHERE tenant_id = $1 AND id = $2`, tenantID, accountID)
	account, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrNotFound, "account %v", accountID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "Failed to get account")
	}
	return account, nil
}

func (s *sqlStorage) ListAccounts(ctx context.Context, query AccountsQuery) ([]*AccountDTO, error) {
	q := &queryBuilder{}
	q.write(`SELECT `, accountColumns, ` FROM accounts WHERE tenant_id = `, q.arg(query.TenantID))
	if query.Type != 0 {
		q.write(` AND type = `, q.arg(query.Type))
	}
	if query.Status != 0 {
		q.write(` AND status = `, q.arg(query.Status))
	}
	q.write(` ORDER BY code`)
	if query.Limit > 0 {
		q.write(` LIMIT `, q.arg(query.Limit), ` OFFSET `, q.arg(query.Offset))
	}

	rows, err := s.conn(ctx).QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, errors.Wrap(err, "Failed to list accounts")
	}
	defer rows.Close()

	result := []*AccountDTO{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, errors.Wrap(err, "Failed to scan account")
		}
		result = append(result, account)
	}
	return result, errors.Wrap(rows.Err(), "Failed to list accounts")
}
