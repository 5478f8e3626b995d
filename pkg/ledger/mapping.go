package ledger

import (
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/money"
)

func transactionToDTO(trx *Transaction) *dal.TransactionDTO {
	dto := &dal.TransactionDTO{
		ID:              trx.id,
		TenantID:        trx.tenantID,
		AccountID:       trx.accountID,
		Type:            string(trx.transactionType),
		IdempotencyKey:  trx.idempotencyKey,
		Description:     trx.description,
		ReferenceID:     trx.referenceID,
		ReferenceType:   string(trx.referenceType),
		TransactionDate: trx.transactionDate,
		CreatedAt:       trx.createdAt,
		CreatedBy:       trx.createdBy,
		Entries:         make([]*dal.EntryDTO, 0, len(trx.entries)),
	}
	for _, entry := range trx.entries {
		dto.Entries = append(dto.Entries, &dal.EntryDTO{
			ID:            entry.id,
			TenantID:      entry.tenantID,
			TransactionID: entry.transactionID,
			AccountID:     entry.accountID,
			AccountType:   string(entry.accountType),
			DebitAmount:   entry.DebitAmount(),
			CreditAmount:  entry.CreditAmount(),
			Currency:      entry.Currency(),
			Description:   entry.description,
			CreatedAt:     entry.createdAt,
		})
	}
	return dto
}

// transactionFromDTO restores previously recorded transaction
func transactionFromDTO(dto *dal.TransactionDTO) (*Transaction, error) {
	trx := &Transaction{
		id:              dto.ID,
		tenantID:        dto.TenantID,
		accountID:       dto.AccountID,
		transactionType: TransactionType(dto.Type),
		idempotencyKey:  dto.IdempotencyKey,
		description:     dto.Description,
		referenceID:     dto.ReferenceID,
		referenceType:   ReferenceType(dto.ReferenceType),
		transactionDate: dto.TransactionDate,
		createdAt:       dto.CreatedAt,
		createdBy:       dto.CreatedBy,
		entries:         make([]*Entry, 0, len(dto.Entries)),
	}
	for _, entryDTO := range dto.Entries {
		side, amount := Debit, entryDTO.DebitAmount
		if !entryDTO.DebitAmount.IsPositive() {
			side, amount = Credit, entryDTO.CreditAmount
		}
		value, err := money.New(amount, entryDTO.Currency)
		if err != nil {
			return nil, err
		}
		trx.entries = append(trx.entries, &Entry{
			id:            entryDTO.ID,
			tenantID:      entryDTO.TenantID,
			transactionID: entryDTO.TransactionID,
			accountID:     entryDTO.AccountID,
			accountType:   AccountType(entryDTO.AccountType),
			side:          side,
			amount:        value,
			description:   entryDTO.Description,
			createdAt:     entryDTO.CreatedAt,
		})
	}
	return trx, nil
}
