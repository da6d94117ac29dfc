package repository

import (
	"context"
	"time"

	"storefront-backend/common/apperrors"
	"storefront-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository defines the order data access surface.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error
	// TransitionStatus applies updates only if the order is still in the
	// expected source status. Returns apperrors.ErrConcurrentUpdate when
	// another writer got there first.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, updates map[string]interface{}) error
	AppendLog(ctx context.Context, orderID uuid.UUID, actor, action, message string) error
	// CancelExpired cancels pending_payment orders past their expiry and
	// drops their inventory locks, returning the cancelled order ids.
	CancelExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *GormOrderRepository) TransitionStatus(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", orderID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrConcurrentUpdate
	}
	return nil
}

// AppendLog adds one entry to the order's activity log. The row is
// locked for the duration of the transaction so concurrent appenders
// cannot overwrite each other's entries.
func (r *GormOrderRepository) AppendLog(ctx context.Context, orderID uuid.UUID, actor, action, message string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "metadata").
			Where("id = ?", orderID).
			First(&order).Error; err != nil {
			return err
		}
		order.Metadata.Logs = append(order.Metadata.Logs, models.OrderLog{
			Actor:   actor,
			Action:  action,
			Message: message,
			At:      time.Now().UTC(),
		})
		return tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("metadata", order.Metadata).Error
	})
}

func (r *GormOrderRepository) CancelExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expired []models.Order
		if err := tx.Select("id").
			Where("order_status = ? AND expires_at < ?", models.OrderPendingPayment, now).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		for _, o := range expired {
			ids = append(ids, o.ID)
		}
		if err := tx.Model(&models.Order{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"order_status": models.OrderCancelled,
				"updated_at":   now,
			}).Error; err != nil {
			return err
		}
		return tx.Where("order_id IN ?", ids).Delete(&models.InventoryLock{}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
