package accounts

import (
	"time"

	uuid "github.com/satori/go.uuid"
)

// AccountCreated is produced when a new account is created
type AccountCreated struct {
	AccountID uuid.UUID `json:"accountId"`
	TenantID  uuid.UUID `json:"tenantId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func (n *AccountCreated) NotificationName() string      { return "accounts.AccountCreated" }
func (n *AccountCreated) NotificationTenant() uuid.UUID { return n.TenantID }
func (n *AccountCreated) NotificationTime() time.Time   { return n.CreatedAt }

// AccountDeactivated is produced when an account becomes inactive
type AccountDeactivated struct {
	AccountID     uuid.UUID `json:"accountId"`
	TenantID      uuid.UUID `json:"tenantId"`
	DeactivatedAt time.Time `json:"deactivatedAt"`
}

func (n *AccountDeactivated) NotificationName() string      { return "accounts.AccountDeactivated" }
func (n *AccountDeactivated) NotificationTenant() uuid.UUID { return n.TenantID }
func (n *AccountDeactivated) NotificationTime() time.Time   { return n.DeactivatedAt }
