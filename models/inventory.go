package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is owned elsewhere; this core touches only its stock counters.
// StockQuantity is the authoritative count, already net of committed
// deductions.
type Product struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	PriceCents    int64     `gorm:"not null" json:"price_cents"`
	StockQuantity int       `gorm:"not null;default:0" json:"stock_quantity"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// InventoryLock is a time-bounded reservation of stock for an unpaid
// order. OrderID is nil until the owning order row exists.
type InventoryLock struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"product_id"`
	OrderID     *uuid.UUID `gorm:"type:uuid;index" json:"order_id,omitempty"`
	QtyReserved int        `gorm:"not null" json:"qty_reserved"`
	ExpiresAt   time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
