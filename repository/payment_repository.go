package repository

import (
	"context"

	"storefront-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.OrderPayment) error
	FindByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string) (*models.OrderPayment, error)
	UpdateByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string, updates map[string]interface{}) error
	IncrementAttempts(ctx context.Context, orderID uuid.UUID, gateway string) error
	CreateRefund(ctx context.Context, refund *models.Refund) error
	TotalRefunded(ctx context.Context, orderID uuid.UUID) (int64, error)
}

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) Create(ctx context.Context, payment *models.OrderPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *GormPaymentRepository) FindByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string) (*models.OrderPayment, error) {
	var payment models.OrderPayment
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND gateway = ?", orderID, gateway).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) UpdateByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.OrderPayment{}).
		Where("order_id = ? AND gateway = ?", orderID, gateway).
		Updates(updates).Error
}

func (r *GormPaymentRepository) IncrementAttempts(ctx context.Context, orderID uuid.UUID, gateway string) error {
	return r.db.WithContext(ctx).Model(&models.OrderPayment{}).
		Where("order_id = ? AND gateway = ?", orderID, gateway).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}

func (r *GormPaymentRepository) CreateRefund(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *GormPaymentRepository) TotalRefunded(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Where("order_id = ?", orderID).
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	return total, err
}
