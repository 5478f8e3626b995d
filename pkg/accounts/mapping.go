package accounts

import "github.com/evgeny-myasishchev/ledger.accounting/pkg/dal"

func accountToDTO(a *Account) *dal.AccountDTO {
	return &dal.AccountDTO{
		ID:              a.id,
		TenantID:        a.tenantID,
		Code:            a.code,
		Name:            a.name,
		Description:     a.description,
		Type:            int(a.accountType),
		Status:          int(a.status),
		ParentAccountID: a.parentAccountID,
		Currency:        a.currency,
		CreatedAt:       a.createdAt,
		UpdatedAt:       a.updatedAt,
	}
}

func accountFromDTO(dto *dal.AccountDTO) *Account {
	return &Account{
		id:              dto.ID,
		tenantID:        dto.TenantID,
		code:            dto.Code,
		name:            dto.Name,
		description:     dto.Description,
		accountType:     Type(dto.Type),
		status:          Status(dto.Status),
		parentAccountID: dto.ParentAccountID,
		currency:        dto.Currency,
		createdAt:       dto.CreatedAt,
		updatedAt:       dto.UpdatedAt,
	}
}
