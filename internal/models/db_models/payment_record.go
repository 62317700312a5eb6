package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentRecord is one settlement attempt. At most one row exists per
// GatewayTxnID; the unique index is the idempotency claim for the whole
// reconciliation flow.
type PaymentRecord struct {
	BaseModel
	UserID         uuid.UUID  `gorm:"index"`
	SubscriptionID *uuid.UUID `gorm:"index"` // backfilled once the subscription exists

	GatewayOrderID string `gorm:"index"` // merchant-side correlation id (udf3)
	GatewayTxnID   string `gorm:"uniqueIndex:ux_payment_records_gateway_txn_id"`

	AmountMinor int64
	Currency    string        `gorm:"size:3"`
	Status      PaymentStatus `gorm:"type:payment_status;index"`

	PaymentMethod string
	InvoiceNumber *string `gorm:"uniqueIndex:ux_payment_records_invoice_number"` // nil for failed attempts
	PaidAt        *int64

	FailureReason string
	ErrorCode     string

	// Raw gateway payload, kept verbatim for audit.
	Payload datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	User         User          `gorm:"foreignKey:UserID"`
	Subscription *Subscription `gorm:"foreignKey:SubscriptionID"`
}
