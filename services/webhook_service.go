package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront-backend/common/apperrors"
	"storefront-backend/events"
	"storefront-backend/models"
	"storefront-backend/payments"
	"storefront-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProcessResult reports webhook disposition back to the controller.
type ProcessResult struct {
	Duplicate bool
}

type WebhookService struct {
	orders        repository.OrderRepository
	inventory     repository.InventoryRepository
	payments      repository.PaymentRepository
	webhooks      repository.WebhookRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	providerFor   payments.Factory
	producer      *events.Producer
	logger        *zap.Logger
}

func NewWebhookService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	paymentRepo repository.PaymentRepository,
	webhooks repository.WebhookRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	providerFor payments.Factory,
	producer *events.Producer,
	logger *zap.Logger,
) *WebhookService {
	return &WebhookService{
		orders:        orders,
		inventory:     inventory,
		payments:      paymentRepo,
		webhooks:      webhooks,
		users:         users,
		notifications: notifications,
		providerFor:   providerFor,
		producer:      producer,
		logger:        logger,
	}
}

// Process verifies, deduplicates and dispatches one gateway callback.
// The dedup record is marked processed only after the handler's side
// effects succeed, so a failed handler is retried on redelivery.
func (s *WebhookService) Process(ctx context.Context, gateway string, header http.Header, body []byte) (*ProcessResult, error) {
	provider, err := s.providerFor(gateway)
	if err != nil {
		return nil, err
	}

	event, err := provider.VerifyWebhook(header, body)
	if err != nil {
		return nil, err
	}

	eventID := event.ID
	if eventID == "" {
		eventID = fmt.Sprintf("%s-%d", gateway, time.Now().UnixMilli())
	}

	record, err := s.webhooks.Find(ctx, gateway, eventID)
	switch {
	case err == nil:
		if record.Processed {
			s.logger.Info("Webhook replay ignored",
				zap.String("gateway", gateway),
				zap.String("event_id", eventID),
			)
			return &ProcessResult{Duplicate: true}, nil
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &models.WebhookEvent{
			Gateway:   gateway,
			EventID:   eventID,
			EventType: event.Type,
			Payload:   models.JSONRaw(event.Raw),
		}
		if err := s.webhooks.Create(ctx, record); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Concurrent delivery of the same event; the other
				// request owns processing.
				return &ProcessResult{Duplicate: true}, nil
			}
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.dispatch(ctx, gateway, event); err != nil {
		if rerr := s.webhooks.RecordError(ctx, record.ID, err.Error()); rerr != nil {
			s.logger.Error("Failed to record webhook error", zap.Error(rerr))
		}
		return nil, err
	}

	if err := s.webhooks.MarkProcessed(ctx, record.ID); err != nil {
		return nil, err
	}
	return &ProcessResult{}, nil
}

func (s *WebhookService) dispatch(ctx context.Context, gateway string, event *payments.Event) error {
	switch event.Kind {
	case payments.EventPaymentSucceeded:
		return s.handlePaymentSucceeded(ctx, gateway, event)
	case payments.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, gateway, event)
	case payments.EventRefundProcessed:
		return s.handleRefundProcessed(ctx, gateway, event)
	case payments.EventDisputeCreated:
		return s.handleDisputeCreated(ctx, event)
	default:
		s.logger.Info("Ignoring unhandled webhook event",
			zap.String("gateway", gateway),
			zap.String("event_type", event.Type),
		)
		return nil
	}
}

// resolveOrder finds the order a gateway event refers to, preferring the
// payment reference and falling back to the order id in metadata.
func (s *WebhookService) resolveOrder(ctx context.Context, event *payments.Event) (*models.Order, error) {
	if event.Reference != "" {
		order, err := s.orders.FindByPaymentReference(ctx, event.Reference)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if event.OrderID != "" {
		orderID, err := uuid.Parse(event.OrderID)
		if err == nil {
			order, ferr := s.orders.FindByID(ctx, orderID)
			if ferr == nil {
				return order, nil
			}
			if !errors.Is(ferr, gorm.ErrRecordNotFound) {
				return nil, ferr
			}
		}
	}
	return nil, apperrors.ErrOrderNotFound
}

func (s *WebhookService) handlePaymentSucceeded(ctx context.Context, gateway string, event *payments.Event) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	return s.settle(ctx, gateway, order, event.AmountCents, event.Raw)
}

// settle moves an order to paid and commits its inventory reservation.
// Already-paid orders are a no-op so duplicate confirmations are safe.
func (s *WebhookService) settle(ctx context.Context, gateway string, order *models.Order, amountCents int64, raw []byte) error {
	if order.OrderStatus == models.OrderPaid || order.PaymentStatus == models.PaymentPaid {
		return nil
	}

	if amountCents > 0 {
		diff := amountCents - order.TotalCents
		if diff < -AmountToleranceCents || diff > AmountToleranceCents {
			return &apperrors.AmountMismatchError{
				ExpectedCents: order.TotalCents,
				GotCents:      amountCents,
			}
		}
	}

	from := order.OrderStatus
	if from == models.OrderPaymentFailed {
		// A retried charge can succeed while the order still shows the
		// previous failure.
		if err := s.orders.TransitionStatus(ctx, order.ID, from, map[string]interface{}{
			"order_status": models.OrderPendingPayment,
		}); err != nil && !errors.Is(err, apperrors.ErrConcurrentUpdate) {
			return err
		}
		from = models.OrderPendingPayment
	}
	if err := ValidateTransition(from, models.OrderPaid); err != nil {
		return err
	}

	err := s.orders.TransitionStatus(ctx, order.ID, from, map[string]interface{}{
		"order_status":   models.OrderPaid,
		"payment_status": models.PaymentPaid,
	})
	if errors.Is(err, apperrors.ErrConcurrentUpdate) {
		fresh, ferr := s.orders.FindByID(ctx, order.ID)
		if ferr == nil && fresh.OrderStatus == models.OrderPaid {
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	if err := s.payments.UpdateByOrderAndGateway(ctx, order.ID, gateway, map[string]interface{}{
		"status":       models.PaymentAttemptSuccess,
		"raw_response": models.JSONRaw(raw),
	}); err != nil {
		s.logger.Error("Failed to update payment record",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.orders.AppendLog(ctx, order.ID, "system", "payment_confirmed",
		fmt.Sprintf("payment confirmed via %s", gateway)); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	s.commitReservation(ctx, order)
	queueStatusNotification(ctx, s.notifications, s.users, order, models.OrderPaid, nil, s.logger)
	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.paid",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
	})
	return nil
}

// commitReservation converts the order's locks into permanent stock
// deductions, then drops the locks.
func (s *WebhookService) commitReservation(ctx context.Context, order *models.Order) {
	locks, err := s.inventory.LocksForOrder(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to load inventory locks",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}
	for _, lock := range locks {
		if err := s.inventory.Deduct(ctx, lock.ProductID, lock.QtyReserved); err != nil {
			s.logger.Error("Failed to deduct stock for paid order",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", lock.ProductID.String()),
				zap.Error(err),
			)
		}
	}
	if _, err := s.inventory.ReleaseOrderLocks(ctx, order.ID); err != nil {
		s.logger.Error("Failed to release inventory locks",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *WebhookService) handlePaymentFailed(ctx context.Context, gateway string, event *payments.Event) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	// A failure arriving after settlement is stale.
	if order.OrderStatus != models.OrderPendingPayment {
		return nil
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, models.OrderPendingPayment, map[string]interface{}{
		"order_status":   models.OrderPaymentFailed,
		"payment_status": models.PaymentNotPaid,
	}); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentUpdate) {
			return nil
		}
		return err
	}

	if err := s.payments.UpdateByOrderAndGateway(ctx, order.ID, gateway, map[string]interface{}{
		"status":       models.PaymentAttemptFailed,
		"raw_response": models.JSONRaw(event.Raw),
	}); err != nil {
		s.logger.Warn("Failed to update payment record", zap.Error(err))
	}
	if err := s.payments.IncrementAttempts(ctx, order.ID, gateway); err != nil {
		s.logger.Warn("Failed to increment payment attempts", zap.Error(err))
	}

	if released, err := s.inventory.ReleaseOrderLocks(ctx, order.ID); err != nil {
		s.logger.Error("Failed to release locks after payment failure", zap.Error(err))
	} else if released > 0 {
		s.logger.Info("Released inventory locks after payment failure",
			zap.String("order_id", order.ID.String()),
			zap.Int64("locks", released),
		)
	}

	if err := s.orders.AppendLog(ctx, order.ID, "system", "payment_failed",
		fmt.Sprintf("payment failed via %s", gateway)); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.payment_failed",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
	})
	return nil
}

func (s *WebhookService) handleRefundProcessed(ctx context.Context, gateway string, event *payments.Event) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}

	amount := event.AmountCents
	if amount == 0 {
		amount = order.TotalCents
	}

	target := models.OrderPartiallyRefunded
	paymentStatus := models.PaymentPartiallyRefunded
	diff := amount - order.TotalCents
	if diff >= -AmountToleranceCents && diff <= AmountToleranceCents {
		target = models.OrderRefunded
		paymentStatus = models.PaymentRefunded
	}

	// Admin-issued refunds already moved the order; the gateway echo is
	// then a no-op.
	if order.OrderStatus == target {
		return nil
	}
	if err := ValidateTransition(order.OrderStatus, target); err != nil {
		return err
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, order.OrderStatus, map[string]interface{}{
		"order_status":   target,
		"payment_status": paymentStatus,
	}); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentUpdate) {
			return nil
		}
		return err
	}

	if err := s.payments.CreateRefund(ctx, &models.Refund{
		OrderID:     order.ID,
		AmountCents: amount,
		Currency:    order.Currency,
		Reason:      "gateway initiated refund",
		Status:      "processed",
		GatewayRefundID: func() string {
			if event.ID != "" {
				return event.ID
			}
			return event.Reference
		}(),
	}); err != nil {
		s.logger.Error("Failed to record gateway refund", zap.Error(err))
	}

	if target == models.OrderRefunded {
		s.restoreInventory(ctx, order)
	}

	if err := s.orders.AppendLog(ctx, order.ID, "system", "refund_processed",
		fmt.Sprintf("refund of %d %s processed via %s", amount, order.Currency, gateway)); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	if target == models.OrderRefunded {
		queueStatusNotification(ctx, s.notifications, s.users, order, models.OrderRefunded, nil, s.logger)
	}
	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.refunded",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		AmountCents: amount,
		Currency:    order.Currency,
	})
	return nil
}

// restoreInventory puts a fully refunded order's quantities back on the
// shelf.
func (s *WebhookService) restoreInventory(ctx context.Context, order *models.Order) {
	for _, item := range order.ItemsSnapshot {
		if err := s.inventory.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to restore stock after refund",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *WebhookService) handleDisputeCreated(ctx context.Context, event *payments.Event) error {
	order, err := s.resolveOrder(ctx, event)
	if err != nil {
		return err
	}
	if order.OrderStatus == models.OrderDisputed {
		return nil
	}
	if err := ValidateTransition(order.OrderStatus, models.OrderDisputed); err != nil {
		return err
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, order.OrderStatus, map[string]interface{}{
		"order_status":   models.OrderDisputed,
		"payment_status": models.PaymentDisputed,
	}); err != nil {
		if errors.Is(err, apperrors.ErrConcurrentUpdate) {
			return nil
		}
		return err
	}

	if err := s.orders.AppendLog(ctx, order.ID, "system", "dispute_created",
		"chargeback opened at gateway"); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.disputed",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
	})
	return nil
}

// VerifyAndSettle polls the gateway for a payment's status and settles
// the order on success. Used by the redirect-back verification endpoint
// when the webhook has not landed yet.
func (s *WebhookService) VerifyAndSettle(ctx context.Context, gateway, reference string) (*models.Order, error) {
	provider, err := s.providerFor(gateway)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.FindByPaymentReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	verification, err := provider.VerifyPayment(ctx, reference)
	if err != nil {
		return nil, err
	}
	if verification.Success {
		if err := s.settle(ctx, gateway, order, verification.AmountCents, verification.Raw); err != nil {
			return nil, err
		}
		return s.orders.FindByID(ctx, order.ID)
	}
	return order, nil
}
