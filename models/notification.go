package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a queued customer email. Delivery is someone else's
// job; this core only enqueues.
type Notification struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Type           string    `gorm:"type:varchar(16);not null;default:'email'" json:"type"`
	RecipientEmail string    `gorm:"not null" json:"recipient_email"`
	Subject        string    `gorm:"not null" json:"subject"`
	TemplateName   string    `gorm:"type:varchar(64);not null" json:"template_name"`
	TemplateData   JSONMap   `gorm:"type:jsonb" json:"template_data"`
	Status         string    `gorm:"type:varchar(16);not null;default:'queued'" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Notification) TableName() string { return "notification_queue" }
