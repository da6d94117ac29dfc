package services

import (
	"context"
	"time"

	"storefront-backend/events"
	"storefront-backend/repository"

	"go.uber.org/zap"
)

// CleanupResult summarizes one maintenance sweep.
type CleanupResult struct {
	Success                bool      `json:"success"`
	Timestamp              time.Time `json:"timestamp"`
	ExpiredLocksCleaned    int64     `json:"expired_locks_cleaned"`
	ExpiredOrdersCancelled int       `json:"expired_orders_cancelled"`
	Errors                 []string  `json:"errors"`
}

type CleanupService struct {
	orders    repository.OrderRepository
	inventory repository.InventoryRepository
	producer  *events.Producer
	logger    *zap.Logger
}

func NewCleanupService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	producer *events.Producer,
	logger *zap.Logger,
) *CleanupService {
	return &CleanupService{
		orders:    orders,
		inventory: inventory,
		producer:  producer,
		logger:    logger,
	}
}

// Run performs the scheduled sweep: drop expired inventory locks, then
// cancel unpaid orders past their expiry. Each sub-step captures its own
// error so one failure does not mask the other.
func (s *CleanupService) Run(ctx context.Context) *CleanupResult {
	now := time.Now().UTC()
	result := &CleanupResult{Timestamp: now, Errors: []string{}}

	cleaned, err := s.inventory.CleanupExpiredLocks(ctx, now)
	if err != nil {
		s.logger.Error("Expired lock cleanup failed", zap.Error(err))
		result.Errors = append(result.Errors, "lock cleanup: "+err.Error())
	} else {
		result.ExpiredLocksCleaned = cleaned
	}

	cancelled, err := s.orders.CancelExpired(ctx, now)
	if err != nil {
		s.logger.Error("Expired order cancellation failed", zap.Error(err))
		result.Errors = append(result.Errors, "order expiry: "+err.Error())
		return result
	}
	result.ExpiredOrdersCancelled = len(cancelled)

	for _, orderID := range cancelled {
		if err := s.orders.AppendLog(ctx, orderID, "system", "order_expired",
			"cancelled after payment window elapsed"); err != nil {
			s.logger.Warn("Failed to append expiry log",
				zap.String("order_id", orderID.String()),
				zap.Error(err),
			)
		}
		s.producer.Publish(ctx, events.OrderEvent{
			Type:    "order.expired",
			OrderID: orderID.String(),
		})
	}

	if result.ExpiredLocksCleaned > 0 || result.ExpiredOrdersCancelled > 0 {
		s.logger.Info("Cleanup sweep finished",
			zap.Int64("locks_cleaned", result.ExpiredLocksCleaned),
			zap.Int("orders_cancelled", result.ExpiredOrdersCancelled),
		)
	}
	result.Success = len(result.Errors) == 0
	return result
}
