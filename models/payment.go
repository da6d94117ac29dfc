package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	PaymentAttemptInitiated = "initiated"
	PaymentAttemptSuccess   = "success"
	PaymentAttemptFailed    = "failed"
)

// OrderPayment is one payment attempt per gateway interaction, updated in
// place as the gateway reports progress.
type OrderPayment struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Gateway          string    `gorm:"type:varchar(32);not null;index" json:"gateway"`
	AmountCents      int64     `gorm:"not null" json:"amount_cents"`
	Currency         string    `gorm:"type:varchar(8);not null" json:"currency"`
	Status           string    `gorm:"type:varchar(20);not null" json:"status"`
	GatewayPaymentID *string   `json:"gateway_payment_id,omitempty"`
	RawResponse      JSONRaw   `gorm:"type:jsonb" json:"-"`
	Attempts         int       `gorm:"not null;default:0" json:"attempts"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Refund struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	AmountCents     int64     `gorm:"not null" json:"amount_cents"`
	Currency        string    `gorm:"type:varchar(8);not null" json:"currency"`
	Reason          string    `json:"reason"`
	Status          string    `gorm:"type:varchar(20);not null" json:"status"`
	GatewayRefundID string    `json:"gateway_refund_id"`
	ProcessedBy     uuid.UUID `gorm:"type:uuid" json:"processed_by"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// WebhookEvent deduplicates gateway callbacks. The (gateway, event_id)
// pair is the idempotency key; Processed flips to true only after the
// handler's side effects commit.
type WebhookEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Gateway     string     `gorm:"type:varchar(32);not null;uniqueIndex:idx_gateway_event" json:"gateway"`
	EventID     string     `gorm:"not null;uniqueIndex:idx_gateway_event" json:"event_id"`
	EventType   string     `gorm:"type:varchar(64);not null" json:"event_type"`
	Payload     JSONRaw    `gorm:"type:jsonb" json:"-"`
	Processed   bool       `gorm:"not null;default:false" json:"processed"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
