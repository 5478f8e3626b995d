package api

import (
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"

	"github.com/evgeny-myasishchev/ledger.accounting/pkg/accounts"
	"github.com/evgeny-myasishchev/ledger.accounting/pkg/ledger"
)

type entryResponse struct {
	ID          uuid.UUID       `json:"id"`
	AccountType string          `json:"accountType"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

type transactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	AccountID       uuid.UUID       `json:"accountId"`
	Type            string          `json:"type"`
	IdempotencyKey  string          `json:"idempotencyKey"`
	Description     string          `json:"description"`
	ReferenceID     string          `json:"referenceId"`
	ReferenceType   string          `json:"referenceType"`
	TransactionDate time.Time       `json:"transactionDate"`
	CreatedAt       time.Time       `json:"createdAt"`
	CreatedBy       string          `json:"createdBy"`
	TotalDebit      decimal.Decimal `json:"totalDebit"`
	TotalCredit     decimal.Decimal `json:"totalCredit"`
	Entries         []entryResponse `json:"entries"`
}

func newTransactionResponse(trx *ledger.Transaction) transactionResponse {
	entries := make([]entryResponse, 0, len(trx.Entries()))
	for _, entry := range trx.Entries() {
		entries = append(entries, entryResponse{
			ID:          entry.ID(),
			AccountType: string(entry.AccountType()),
			Debit:       entry.DebitAmount(),
			Credit:      entry.CreditAmount(),
			Currency:    entry.Currency(),
			Description: entry.Description(),
		})
	}
	return transactionResponse{
		ID:              trx.ID(),
		AccountID:       trx.AccountID(),
		Type:            string(trx.Type()),
		IdempotencyKey:  trx.IdempotencyKey(),
		Description:     trx.Description(),
		ReferenceID:     trx.ReferenceID(),
		ReferenceType:   string(trx.ReferenceType()),
		TransactionDate: trx.TransactionDate(),
		CreatedAt:       trx.CreatedAt(),
		CreatedBy:       trx.CreatedBy(),
		TotalDebit:      trx.TotalDebit(),
		TotalCredit:     trx.TotalCredit(),
		Entries:         entries,
	}
}

type balanceResponse struct {
	AccountID uuid.UUID       `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
}

type accountResponse struct {
	ID              uuid.UUID  `json:"id"`
	Code            string     `json:"code"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	Currency        string     `json:"currency"`
	ParentAccountID *uuid.UUID `json:"parentAccountId,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func newAccountResponse(account *accounts.Account) accountResponse {
	res := accountResponse{
		ID:          account.ID(),
		Code:        account.Code(),
		Name:        account.Name(),
		Description: account.Description(),
		Type:        account.Type().String(),
		Status:      account.Status().String(),
		Currency:    account.Currency(),
		CreatedAt:   account.CreatedAt(),
		UpdatedAt:   account.UpdatedAt(),
	}
	if parent := account.ParentAccountID(); parent.Valid {
		res.ParentAccountID = &parent.UUID
	}
	return res
}
