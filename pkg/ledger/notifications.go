package ledger

import (
	"time"

	uuid "github.com/satori/go.uuid"
	"github.com/shopspring/decimal"
)

// RideChargeRecorded is produced when a new ride charge is recorded
type RideChargeRecorded struct {
	TransactionID uuid.UUID       `json:"transactionId"`
	TenantID      uuid.UUID       `json:"tenantId"`
	AccountID     uuid.UUID       `json:"accountId"`
	RideID        string          `json:"rideId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	ServiceDate   time.Time       `json:"serviceDate"`
	FleetID       string          `json:"fleetId,omitempty"`
	RecordedAt    time.Time       `json:"recordedAt"`
}

func (n *RideChargeRecorded) NotificationName() string {
	return "ledger.RideChargeRecorded"
}

func (n *RideChargeRecorded) NotificationTenant() uuid.UUID {
	return n.TenantID
}

func (n *RideChargeRecorded) NotificationTime() time.Time {
	return n.RecordedAt
}

// PaymentRecorded is produced when a new payment is recorded
type PaymentRecorded struct {
	TransactionID      uuid.UUID       `json:"transactionId"`
	TenantID           uuid.UUID       `json:"tenantId"`
	AccountID          uuid.UUID       `json:"accountId"`
	PaymentReferenceID string          `json:"paymentReferenceId"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	PaymentDate        time.Time       `json:"paymentDate"`
	PaymentMode        string          `json:"paymentMode,omitempty"`
	RecordedAt         time.Time       `json:"recordedAt"`
}

func (n *PaymentRecorded) NotificationName() string {
	return "ledger.PaymentRecorded"
}

func (n *PaymentRecorded) NotificationTenant() uuid.UUID {
	return n.TenantID
}

func (n *PaymentRecorded) NotificationTime() time.Time {
	return n.RecordedAt
}
