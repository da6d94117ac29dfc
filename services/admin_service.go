package services

import (
	"context"
	"errors"
	"fmt"
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

type AdminService struct {
	orders        repository.OrderRepository
	inventory     repository.InventoryRepository
	payments      repository.PaymentRepository
	users         repository.UserRepository
	notifications repository.NotificationRepository
	providerFor   payments.Factory
	producer      *events.Producer
	logger        *zap.Logger
}

func NewAdminService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	paymentRepo repository.PaymentRepository,
	users repository.UserRepository,
	notifications repository.NotificationRepository,
	providerFor payments.Factory,
	producer *events.Producer,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		orders:        orders,
		inventory:     inventory,
		payments:      paymentRepo,
		users:         users,
		notifications: notifications,
		providerFor:   providerFor,
		producer:      producer,
		logger:        logger,
	}
}

type UpdateStatusInput struct {
	AdminID     uuid.UUID
	OrderID     uuid.UUID
	NewStatus   models.OrderStatus
	Fulfillment *models.Fulfillment
	Note        string
}

// UpdateOrderStatus moves an order along the lifecycle on behalf of an
// operator, optionally merging in fulfillment details.
func (s *AdminService) UpdateOrderStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if err := s.requireAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}

	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	if err := ValidateTransition(order.OrderStatus, input.NewStatus); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"order_status": input.NewStatus}
	if input.NewStatus == models.OrderPaid {
		// Offline settlements (bank transfer) are confirmed by an
		// operator, so the payment axis follows the status change.
		updates["payment_status"] = models.PaymentPaid
	}
	fulfillment := order.Fulfillment
	if input.Fulfillment != nil {
		fulfillment = mergeFulfillment(order.Fulfillment, input.Fulfillment)
		updates["fulfillment"] = fulfillment
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, order.OrderStatus, updates); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("status changed from %s to %s", order.OrderStatus, input.NewStatus)
	if input.Note != "" {
		message += ": " + input.Note
	}
	if err := s.orders.AppendLog(ctx, order.ID, input.AdminID.String(), "status_updated", message); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	queueStatusNotification(ctx, s.notifications, s.users, order, input.NewStatus, fulfillment, s.logger)
	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.status_updated",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
	})

	return s.orders.FindByID(ctx, order.ID)
}

type RefundInput struct {
	AdminID     uuid.UUID
	OrderID     uuid.UUID
	AmountCents int64 // 0 refunds the remaining balance
	Reason      string
}

// IssueRefund refunds through the original gateway and records the
// refund. The cumulative refunded amount can never exceed the order
// total.
func (s *AdminService) IssueRefund(ctx context.Context, input RefundInput) (*models.Refund, error) {
	if err := s.requireAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}

	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus != models.PaymentPaid && order.PaymentStatus != models.PaymentPartiallyRefunded {
		return nil, apperrors.ErrOrderNotPaid
	}

	refunded, err := s.payments.TotalRefunded(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	remaining := order.TotalCents - refunded

	amount := input.AmountCents
	if amount == 0 {
		amount = remaining
	}
	if amount <= 0 {
		return nil, &apperrors.ValidationError{Msg: "refund amount must be positive"}
	}
	if amount > remaining {
		return nil, &apperrors.RefundExceedsTotalError{
			RequestedCents: amount,
			RemainingCents: remaining,
		}
	}

	target := models.OrderPartiallyRefunded
	paymentStatus := models.PaymentPartiallyRefunded
	if remaining-amount <= AmountToleranceCents {
		target = models.OrderRefunded
		paymentStatus = models.PaymentRefunded
	}
	// Reject the lifecycle edge before touching the gateway, so an
	// invalid request never moves money.
	if err := ValidateTransition(order.OrderStatus, target); err != nil {
		return nil, err
	}

	refund, err := s.refundAtGateway(ctx, order, amount, input.Reason, input.AdminID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, order.OrderStatus, map[string]interface{}{
		"order_status":   target,
		"payment_status": paymentStatus,
	}); err != nil {
		return nil, err
	}

	if target == models.OrderRefunded {
		s.restoreInventory(ctx, order)
		queueStatusNotification(ctx, s.notifications, s.users, order, models.OrderRefunded, nil, s.logger)
	}

	if err := s.orders.AppendLog(ctx, order.ID, input.AdminID.String(), "refund_issued",
		fmt.Sprintf("refund of %d %s issued", amount, order.Currency)); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.refunded",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		AmountCents: amount,
		Currency:    order.Currency,
	})
	return refund, nil
}

type CancelInput struct {
	AdminID uuid.UUID
	OrderID uuid.UUID
	Reason  string
}

// CancelOrder cancels an order that has not yet shipped, releasing its
// inventory and refunding any captured payment.
func (s *AdminService) CancelOrder(ctx context.Context, input CancelInput) (*models.Order, error) {
	if err := s.requireAdmin(ctx, input.AdminID); err != nil {
		return nil, err
	}

	order, err := s.findOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	switch order.OrderStatus {
	case models.OrderShipped, models.OrderInTransit, models.OrderDelivered:
		return nil, apperrors.ErrCannotCancel
	case models.OrderCancelled:
		return order, nil
	}
	if err := ValidateTransition(order.OrderStatus, models.OrderCancelled); err != nil {
		return nil, err
	}

	if released, err := s.inventory.ReleaseOrderLocks(ctx, order.ID); err != nil {
		s.logger.Error("Failed to release locks on cancel", zap.Error(err))
	} else if released > 0 {
		s.logger.Info("Released inventory locks on cancel",
			zap.String("order_id", order.ID.String()),
			zap.Int64("locks", released),
		)
	}

	paymentStatus := order.PaymentStatus
	if order.PaymentStatus == models.PaymentPaid {
		refunded, err := s.payments.TotalRefunded(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		remaining := order.TotalCents - refunded
		if remaining > 0 {
			if _, err := s.refundAtGateway(ctx, order, remaining, "order cancelled", input.AdminID); err != nil {
				return nil, err
			}
			// Stock was deducted at settlement, so a cancel of a paid
			// order puts it back.
			s.restoreInventory(ctx, order)
		}
		paymentStatus = models.PaymentRefunded
	}

	if err := s.orders.TransitionStatus(ctx, order.ID, order.OrderStatus, map[string]interface{}{
		"order_status":   models.OrderCancelled,
		"payment_status": paymentStatus,
	}); err != nil {
		return nil, err
	}

	message := "order cancelled"
	if input.Reason != "" {
		message += ": " + input.Reason
	}
	if err := s.orders.AppendLog(ctx, order.ID, input.AdminID.String(), "order_cancelled", message); err != nil {
		s.logger.Warn("Failed to append order log", zap.Error(err))
	}

	queueStatusNotification(ctx, s.notifications, s.users, order, models.OrderCancelled, nil, s.logger)
	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.cancelled",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
	})

	return s.orders.FindByID(ctx, order.ID)
}

func (s *AdminService) requireAdmin(ctx context.Context, adminID uuid.UUID) error {
	isAdmin, err := s.users.IsAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUnauthorized
		}
		return err
	}
	if !isAdmin {
		return apperrors.ErrUnauthorized
	}
	return nil
}

func (s *AdminService) findOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// refundAtGateway executes the refund with the original provider and
// records the refund row. It does not touch order status.
func (s *AdminService) refundAtGateway(ctx context.Context, order *models.Order, amount int64, reason string, adminID uuid.UUID) (*models.Refund, error) {
	if order.PaymentReference == nil {
		return nil, apperrors.ErrNoPaymentRecord
	}
	provider, err := s.providerFor(order.PaymentMethod)
	if err != nil {
		return nil, err
	}

	result, err := provider.Refund(ctx, payments.RefundParams{
		PaymentReference: *order.PaymentReference,
		AmountCents:      amount,
		Reason:           reason,
	})
	if err != nil {
		return nil, err
	}

	refund := &models.Refund{
		OrderID:         order.ID,
		AmountCents:     amount,
		Currency:        order.Currency,
		Reason:          reason,
		Status:          result.Status,
		GatewayRefundID: result.RefundID,
		ProcessedBy:     adminID,
	}
	if refund.Status == "" {
		refund.Status = "processed"
	}
	if err := s.payments.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

func (s *AdminService) restoreInventory(ctx context.Context, order *models.Order) {
	for _, item := range order.ItemsSnapshot {
		if err := s.inventory.Restore(ctx, item.ProductID, item.Quantity); err != nil {
			s.logger.Error("Failed to restore stock",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Error(err),
			)
		}
	}
}

// mergeFulfillment overlays non-empty incoming fields onto the existing
// fulfillment snapshot.
func mergeFulfillment(existing, incoming *models.Fulfillment) *models.Fulfillment {
	merged := models.Fulfillment{}
	if existing != nil {
		merged = *existing
	}
	if incoming.TrackingNumber != "" {
		merged.TrackingNumber = incoming.TrackingNumber
	}
	if incoming.Courier != "" {
		merged.Courier = incoming.Courier
	}
	if incoming.DeliveryAgent != "" {
		merged.DeliveryAgent = incoming.DeliveryAgent
	}
	if incoming.AgentContact != "" {
		merged.AgentContact = incoming.AgentContact
	}
	if incoming.EstimatedDelivery != "" {
		merged.EstimatedDelivery = incoming.EstimatedDelivery
	}
	merged.UpdatedAt = time.Now().UTC()
	return &merged
}
