package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPendingPayment    OrderStatus = "pending_payment"
	OrderPaymentFailed     OrderStatus = "payment_failed"
	OrderPaid              OrderStatus = "paid"
	OrderProcessing        OrderStatus = "processing"
	OrderReadyForShipment  OrderStatus = "ready_for_shipment"
	OrderShipped           OrderStatus = "shipped"
	OrderInTransit         OrderStatus = "in_transit"
	OrderDelivered         OrderStatus = "delivered"
	OrderCancelRequested   OrderStatus = "cancel_requested"
	OrderCancelled         OrderStatus = "cancelled"
	OrderPartiallyRefunded OrderStatus = "partially_refunded"
	OrderRefunded          OrderStatus = "refunded"
	OrderDisputed          OrderStatus = "disputed"
	OrderResolved          OrderStatus = "resolved"
	OrderArchived          OrderStatus = "archived"
)

type PaymentStatus string

const (
	PaymentNotPaid           PaymentStatus = "not_paid"
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentDisputed          PaymentStatus = "disputed"
)

// OrderLog is one entry in the order's append-only activity trail.
type OrderLog struct {
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// OrderMetadata holds the audit log. Appends go through
// OrderRepository.AppendLog, never whole-row overwrites.
type OrderMetadata struct {
	Logs []OrderLog `json:"logs"`
}

func (m OrderMetadata) Value() (driver.Value, error) { return jsonValue(m) }
func (m *OrderMetadata) Scan(src interface{}) error  { return jsonScan(m, src) }

// ShippingAddress is the address snapshot denormalized into the order at
// creation time. Later address edits never alter a placed order.
type ShippingAddress struct {
	FullName     string `json:"full_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
}

func (a ShippingAddress) Value() (driver.Value, error) { return jsonValue(a) }
func (a *ShippingAddress) Scan(src interface{}) error  { return jsonScan(a, src) }

// ItemSnapshot is a denormalized copy of one cart line at order time.
type ItemSnapshot struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
	TotalCents     int64     `json:"total_cents"`
	ImageURL       string    `json:"image_url,omitempty"`
}

type ItemsSnapshot []ItemSnapshot

func (s ItemsSnapshot) Value() (driver.Value, error) { return jsonValue(s) }
func (s *ItemsSnapshot) Scan(src interface{}) error  { return jsonScan(s, src) }

// Fulfillment carries shipment details merged in by admin status updates.
type Fulfillment struct {
	TrackingNumber    string    `json:"tracking_number,omitempty"`
	Courier           string    `json:"courier,omitempty"`
	DeliveryAgent     string    `json:"delivery_agent,omitempty"`
	AgentContact      string    `json:"agent_contact,omitempty"`
	EstimatedDelivery string    `json:"estimated_delivery,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func (f Fulfillment) Value() (driver.Value, error) { return jsonValue(f) }
func (f *Fulfillment) Scan(src interface{}) error  { return jsonScan(f, src) }

// Order is the central aggregate. All monetary amounts are integer kobo;
// conversion to decimal naira happens only at the presentation boundary.
type Order struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber       string           `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	OrderStatus       OrderStatus      `gorm:"type:varchar(32);not null;default:'pending_payment';index" json:"order_status"`
	PaymentStatus     PaymentStatus    `gorm:"type:varchar(32);not null;default:'not_paid'" json:"payment_status"`
	PaymentMethod     string           `gorm:"type:varchar(32);not null" json:"payment_method"`
	SubtotalCents     int64            `gorm:"not null" json:"subtotal_cents"`
	ShippingCents     int64            `gorm:"not null" json:"shipping_cents"`
	TaxCents          int64            `gorm:"not null" json:"tax_cents"`
	TotalCents        int64            `gorm:"not null" json:"total_cents"`
	Currency          string           `gorm:"type:varchar(8);not null;default:'NGN'" json:"currency"`
	ShippingAddressID *uuid.UUID       `gorm:"type:uuid" json:"shipping_address_id,omitempty"`
	ShippingAddress   *ShippingAddress `gorm:"type:jsonb" json:"shipping_address,omitempty"`
	ItemsSnapshot     ItemsSnapshot    `gorm:"type:jsonb" json:"items_snapshot"`
	Fulfillment       *Fulfillment     `gorm:"type:jsonb" json:"fulfillment,omitempty"`
	Metadata          OrderMetadata    `gorm:"type:jsonb" json:"metadata"`
	IdempotencyKey    string           `gorm:"uniqueIndex;not null" json:"-"`
	PaymentReference  *string          `gorm:"index" json:"payment_reference,omitempty"`
	ExpiresAt         time.Time        `json:"expires_at"`
	CreatedAt         time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
	OrderItems        []OrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

// OrderItem is an immutable line item with the unit price captured at
// order time, decoupled from the live product price.
type OrderItem struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPriceCents int64     `gorm:"not null" json:"unit_price_cents"`
}
