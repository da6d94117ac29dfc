package repository

import (
	"context"

	"storefront-backend/models"

	"gorm.io/gorm"
)

type NotificationRepository interface {
	Enqueue(ctx context.Context, notification *models.Notification) error
}

type GormNotificationRepository struct {
	db *gorm.DB
}

func NewGormNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

func (r *GormNotificationRepository) Enqueue(ctx context.Context, notification *models.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}
