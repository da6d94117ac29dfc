package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile mirrors the identity provider's user record. Authentication
// itself is delegated; this core reads email for notifications and
// is_admin for the admin trust boundary.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"not null" json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	IsAdmin   bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Address struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	FullName     string    `gorm:"not null" json:"full_name"`
	AddressLine1 string    `gorm:"not null" json:"address_line1"`
	AddressLine2 string    `json:"address_line2,omitempty"`
	City         string    `gorm:"not null" json:"city"`
	State        string    `gorm:"not null" json:"state"`
	PostalCode   string    `gorm:"not null" json:"postal_code"`
	Country      string    `gorm:"not null" json:"country"`
	Phone        string    `gorm:"not null" json:"phone"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Snapshot converts the stored address into the immutable form embedded
// in an order.
func (a *Address) Snapshot() ShippingAddress {
	return ShippingAddress{
		FullName:     a.FullName,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
	}
}
