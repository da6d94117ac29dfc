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

// InventoryRepository owns product stock counters and reservations.
type InventoryRepository interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	AvailableStock(ctx context.Context, productID uuid.UUID) (int, error)
	// Reserve checks availability and inserts the lock in one transaction
	// holding a row lock on the product, so two concurrent checkouts can
	// never both observe sufficient stock.
	Reserve(ctx context.Context, productID uuid.UUID, qty int, expiresAt time.Time) (*models.InventoryLock, error)
	ReleaseLocks(ctx context.Context, lockIDs []uuid.UUID) error
	ReleaseOrderLocks(ctx context.Context, orderID uuid.UUID) (int64, error)
	AttachToOrder(ctx context.Context, lockIDs []uuid.UUID, orderID uuid.UUID) error
	LocksForOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryLock, error)
	Deduct(ctx context.Context, productID uuid.UUID, qty int) error
	Restore(ctx context.Context, productID uuid.UUID, qty int) error
	CleanupExpiredLocks(ctx context.Context, now time.Time) (int64, error)
}

type GormInventoryRepository struct {
	db *gorm.DB
}

func NewGormInventoryRepository(db *gorm.DB) InventoryRepository {
	return &GormInventoryRepository{db: db}
}

func (r *GormInventoryRepository) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// activeReserved sums non-expired lock quantities for a product.
func activeReserved(tx *gorm.DB, productID uuid.UUID) (int, error) {
	var reserved int64
	err := tx.Model(&models.InventoryLock{}).
		Where("product_id = ? AND expires_at > ?", productID, time.Now()).
		Select("COALESCE(SUM(qty_reserved), 0)").
		Scan(&reserved).Error
	return int(reserved), err
}

func (r *GormInventoryRepository) AvailableStock(ctx context.Context, productID uuid.UUID) (int, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Select("id", "stock_quantity").
		Where("id = ?", productID).First(&product).Error; err != nil {
		return 0, err
	}
	reserved, err := activeReserved(r.db.WithContext(ctx), productID)
	if err != nil {
		return 0, err
	}
	return product.StockQuantity - reserved, nil
}

func (r *GormInventoryRepository) Reserve(ctx context.Context, productID uuid.UUID, qty int, expiresAt time.Time) (*models.InventoryLock, error) {
	var lock models.InventoryLock
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", productID).
			First(&product).Error; err != nil {
			return err
		}
		reserved, err := activeReserved(tx, productID)
		if err != nil {
			return err
		}
		if product.StockQuantity-reserved < qty {
			return &apperrors.InsufficientStockError{
				ProductName: product.Name,
				Available:   product.StockQuantity - reserved,
				Requested:   qty,
			}
		}
		lock = models.InventoryLock{
			ProductID:   productID,
			QtyReserved: qty,
			ExpiresAt:   expiresAt,
		}
		return tx.Create(&lock).Error
	})
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func (r *GormInventoryRepository) ReleaseLocks(ctx context.Context, lockIDs []uuid.UUID) error {
	if len(lockIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", lockIDs).Delete(&models.InventoryLock{}).Error
}

func (r *GormInventoryRepository) ReleaseOrderLocks(ctx context.Context, orderID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("order_id = ?", orderID).Delete(&models.InventoryLock{})
	return res.RowsAffected, res.Error
}

func (r *GormInventoryRepository) AttachToOrder(ctx context.Context, lockIDs []uuid.UUID, orderID uuid.UUID) error {
	if len(lockIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.InventoryLock{}).
		Where("id IN ?", lockIDs).
		Update("order_id", orderID).Error
}

func (r *GormInventoryRepository) LocksForOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryLock, error) {
	var locks []models.InventoryLock
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Find(&locks).Error; err != nil {
		return nil, err
	}
	return locks, nil
}

// Deduct commits a reservation into a permanent stock reduction. The
// conditional update keeps stock_quantity from going negative.
func (r *GormInventoryRepository) Deduct(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormInventoryRepository) Restore(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
}

func (r *GormInventoryRepository) CleanupExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.InventoryLock{})
	return res.RowsAffected, res.Error
}
