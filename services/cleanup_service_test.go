package services

import (
	"context"
	"testing"
	"time"

	"storefront-backend/events"
	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanup_RemovesExpiredLocksAndOrders(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventoryRepo()
	producer := events.NewProducer(nil, "", nil, "", zap.NewNop())
	service := NewCleanupService(orders, inventory, producer, zap.NewNop())

	productID := inventory.addProduct("Vitamin C Serum", 1_500_000, 10)

	// One lock already expired, one still live.
	_, err := inventory.Reserve(context.Background(), productID, 1, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = inventory.Reserve(context.Background(), productID, 1, time.Now().Add(LockWindow))
	require.NoError(t, err)

	expired := &models.Order{
		UserID:         uuid.New(),
		OrderNumber:    "SKIN-20260101-EXP001",
		OrderStatus:    models.OrderPendingPayment,
		IdempotencyKey: uuid.NewString(),
		ExpiresAt:      time.Now().Add(-time.Hour),
	}
	require.NoError(t, orders.Create(context.Background(), expired))

	fresh := &models.Order{
		UserID:         uuid.New(),
		OrderNumber:    "SKIN-20260101-NEW001",
		OrderStatus:    models.OrderPendingPayment,
		IdempotencyKey: uuid.NewString(),
		ExpiresAt:      time.Now().Add(OrderExpiry),
	}
	require.NoError(t, orders.Create(context.Background(), fresh))

	result := service.Run(context.Background())

	assert.True(t, result.Success)
	assert.False(t, result.Timestamp.IsZero())
	assert.Equal(t, int64(1), result.ExpiredLocksCleaned)
	assert.Equal(t, 1, result.ExpiredOrdersCancelled)
	assert.Empty(t, result.Errors)

	cancelled, _ := orders.FindByID(context.Background(), expired.ID)
	assert.Equal(t, models.OrderCancelled, cancelled.OrderStatus)
	require.NotEmpty(t, cancelled.Metadata.Logs)
	assert.Equal(t, "order_expired", cancelled.Metadata.Logs[0].Action)

	untouched, _ := orders.FindByID(context.Background(), fresh.ID)
	assert.Equal(t, models.OrderPendingPayment, untouched.OrderStatus)
	assert.Equal(t, 1, inventory.lockCount())
}

func TestCleanup_NothingToDo(t *testing.T) {
	orders := newFakeOrderRepo()
	inventory := newFakeInventoryRepo()
	producer := events.NewProducer(nil, "", nil, "", zap.NewNop())
	service := NewCleanupService(orders, inventory, producer, zap.NewNop())

	result := service.Run(context.Background())

	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.ExpiredLocksCleaned)
	assert.Equal(t, 0, result.ExpiredOrdersCancelled)
	assert.NotNil(t, result.Errors)
	assert.Empty(t, result.Errors)
}
