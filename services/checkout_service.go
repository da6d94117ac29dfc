package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
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

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// CheckoutInput is the validated request to place an order. Exactly one
// of AddressID and Address must be set.
type CheckoutInput struct {
	UserID         uuid.UUID
	IdempotencyKey string
	PaymentMethod  string
	AddressID      *uuid.UUID
	Address        *models.Address
	CallbackURL    string
}

// CheckoutResult carries the created (or replayed) order and, when a
// gateway is involved, the payment intent the customer is redirected to.
type CheckoutResult struct {
	Order      *models.Order
	Intent     *payments.Intent
	Idempotent bool
}

type CheckoutService struct {
	orders        repository.OrderRepository
	inventory     repository.InventoryRepository
	payments      repository.PaymentRepository
	users         repository.UserRepository
	carts         repository.CartRepository
	notifications repository.NotificationRepository
	providerFor   payments.Factory
	producer      *events.Producer
	logger        *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	inventory repository.InventoryRepository,
	paymentRepo repository.PaymentRepository,
	users repository.UserRepository,
	carts repository.CartRepository,
	notifications repository.NotificationRepository,
	providerFor payments.Factory,
	producer *events.Producer,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		orders:        orders,
		inventory:     inventory,
		payments:      paymentRepo,
		users:         users,
		carts:         carts,
		notifications: notifications,
		providerFor:   providerFor,
		producer:      producer,
		logger:        logger,
	}
}

// Checkout turns the user's cart into a pending order: reserves
// inventory, snapshots prices and address, persists the order and kicks
// off the payment intent. Replays of the same idempotency key return the
// original order without side effects.
func (s *CheckoutService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.IdempotencyKey == "" {
		return nil, &apperrors.ValidationError{Msg: "idempotency key is required"}
	}
	if !payments.IsValidMethod(input.PaymentMethod) {
		return nil, &apperrors.ValidationError{Msg: "invalid payment method: " + input.PaymentMethod}
	}

	if existing, err := s.orders.FindByIdempotencyKey(ctx, input.IdempotencyKey); err == nil {
		// A key is only replayable by the user who created the order;
		// anyone else never sees another customer's order through it.
		if existing.UserID != input.UserID {
			return nil, apperrors.ErrUnauthorized
		}
		s.logger.Info("Checkout replayed via idempotency key",
			zap.String("order_id", existing.ID.String()),
		)
		return &CheckoutResult{Order: existing, Idempotent: true}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, input.UserID.String())
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	shippingAddr, addressID, err := s.resolveAddress(ctx, input)
	if err != nil {
		return nil, err
	}

	snapshots, err := s.snapshotItems(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	lockIDs, err := s.reserveAll(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	totals := PriceItems(snapshots)
	now := time.Now().UTC()

	order := &models.Order{
		UserID:            input.UserID,
		OrderStatus:       models.OrderPendingPayment,
		PaymentStatus:     models.PaymentNotPaid,
		PaymentMethod:     input.PaymentMethod,
		SubtotalCents:     totals.SubtotalCents,
		ShippingCents:     totals.ShippingCents,
		TaxCents:          totals.TaxCents,
		TotalCents:        totals.TotalCents,
		Currency:          DefaultCurrency,
		ShippingAddressID: addressID,
		ShippingAddress:   shippingAddr,
		ItemsSnapshot:     snapshots,
		IdempotencyKey:    input.IdempotencyKey,
		ExpiresAt:         now.Add(OrderExpiry),
		Metadata: models.OrderMetadata{
			Logs: []models.OrderLog{{
				Actor:   "system",
				Action:  "order_created",
				Message: "order created from cart",
				At:      now,
			}},
		},
	}

	if err := s.persistOrder(ctx, order); err != nil {
		s.releaseLocks(ctx, lockIDs)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a race on the idempotency key; the winner's order is
			// the authoritative result.
			if existing, ferr := s.orders.FindByIdempotencyKey(ctx, input.IdempotencyKey); ferr == nil && existing.UserID == input.UserID {
				return &CheckoutResult{Order: existing, Idempotent: true}, nil
			}
		}
		return nil, &apperrors.OrderPersistenceError{Err: err}
	}

	items := make([]models.OrderItem, 0, len(snapshots))
	for _, snap := range snapshots {
		items = append(items, models.OrderItem{
			OrderID:        order.ID,
			ProductID:      snap.ProductID,
			Quantity:       snap.Quantity,
			UnitPriceCents: snap.UnitPriceCents,
		})
	}
	if err := s.orders.CreateItems(ctx, items); err != nil {
		s.releaseLocks(ctx, lockIDs)
		// The order row survives; leave a trace so the failure is
		// visible on it rather than lost with the response.
		if lerr := s.orders.AppendLog(ctx, order.ID, "system", "checkout_failed",
			"order items could not be persisted: "+err.Error()); lerr != nil {
			s.logger.Error("Failed to record item persistence failure",
				zap.String("order_id", order.ID.String()),
				zap.Error(lerr),
			)
		}
		return nil, &apperrors.OrderPersistenceError{Err: err}
	}
	order.OrderItems = items

	if err := s.inventory.AttachToOrder(ctx, lockIDs, order.ID); err != nil {
		s.logger.Error("Failed to attach inventory locks to order",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	result := &CheckoutResult{Order: order}
	if payments.RequiresProvider(input.PaymentMethod) {
		intent, err := s.createIntent(ctx, order, input)
		if err != nil {
			// Non-fatal: the order stays pending_payment and the
			// customer retries payment from the order page.
			s.logger.Warn("Payment intent creation failed",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
			_ = s.orders.AppendLog(ctx, order.ID, "system", "payment_intent_failed", err.Error())
		} else {
			result.Intent = intent
		}
	}

	s.finishCheckout(ctx, order)
	return result, nil
}

func (s *CheckoutService) resolveAddress(ctx context.Context, input CheckoutInput) (*models.ShippingAddress, *uuid.UUID, error) {
	if input.AddressID != nil {
		address, err := s.users.GetAddress(ctx, *input.AddressID)
		if err != nil {
			return nil, nil, &apperrors.AddressError{Err: err}
		}
		if address.UserID != input.UserID {
			return nil, nil, apperrors.ErrUnauthorized
		}
		snapshot := address.Snapshot()
		return &snapshot, &address.ID, nil
	}

	if input.Address != nil {
		input.Address.UserID = input.UserID
		if err := s.users.CreateAddress(ctx, input.Address); err != nil {
			return nil, nil, &apperrors.AddressError{Err: err}
		}
		snapshot := input.Address.Snapshot()
		return &snapshot, &input.Address.ID, nil
	}

	return nil, nil, &apperrors.ValidationError{Msg: "shipping address is required"}
}

// snapshotItems resolves cart lines against live products and freezes
// names and prices for the order.
func (s *CheckoutService) snapshotItems(ctx context.Context, items []models.CartItem) (models.ItemsSnapshot, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.inventory.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	snapshots := make(models.ItemsSnapshot, 0, len(items))
	for _, item := range items {
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, &apperrors.ValidationError{Msg: "unknown product in cart: " + item.ProductID.String()}
		}
		snapshots = append(snapshots, models.ItemSnapshot{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			TotalCents:     product.PriceCents * int64(item.Quantity),
			ImageURL:       product.ImageURL,
		})
	}
	return snapshots, nil
}

// reserveAll reserves every cart line, releasing whatever was already
// acquired if any line fails.
func (s *CheckoutService) reserveAll(ctx context.Context, items []models.CartItem) ([]uuid.UUID, error) {
	expiresAt := time.Now().UTC().Add(LockWindow)
	acquired := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		lock, err := s.inventory.Reserve(ctx, item.ProductID, item.Quantity, expiresAt)
		if err != nil {
			s.releaseLocks(ctx, acquired)
			return nil, err
		}
		acquired = append(acquired, lock.ID)
	}
	return acquired, nil
}

func (s *CheckoutService) releaseLocks(ctx context.Context, lockIDs []uuid.UUID) {
	if err := s.inventory.ReleaseLocks(ctx, lockIDs); err != nil {
		s.logger.Error("Failed to release inventory locks", zap.Error(err))
	}
}

// persistOrder creates the order row, regenerating the order number on a
// unique collision. The idempotency key constraint also surfaces here and
// is handled by the caller.
func (s *CheckoutService) persistOrder(ctx context.Context, order *models.Order) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order.OrderNumber = generateOrderNumber(time.Now().UTC())
		if err = s.orders.Create(ctx, order); err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		if _, ferr := s.orders.FindByIdempotencyKey(ctx, order.IdempotencyKey); ferr == nil {
			return err
		}
	}
	return err
}

func (s *CheckoutService) createIntent(ctx context.Context, order *models.Order, input CheckoutInput) (*payments.Intent, error) {
	provider, err := s.providerFor(input.PaymentMethod)
	if err != nil {
		return nil, &apperrors.PaymentIntentError{Err: err}
	}

	profile, err := s.users.GetProfile(ctx, input.UserID)
	if err != nil {
		return nil, &apperrors.PaymentIntentError{Err: err}
	}

	intent, err := provider.CreatePaymentIntent(ctx, payments.IntentParams{
		OrderID:     order.ID.String(),
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Email:       profile.Email,
		CallbackURL: input.CallbackURL,
		Metadata:    map[string]string{"order_number": order.OrderNumber},
	})
	if err != nil {
		return nil, &apperrors.PaymentIntentError{Err: err}
	}

	if err := s.payments.Create(ctx, &models.OrderPayment{
		OrderID:     order.ID,
		Gateway:     provider.Name(),
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
		Status:      models.PaymentAttemptInitiated,
		Attempts:    1,
	}); err != nil {
		s.logger.Error("Failed to record payment attempt",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	if err := s.orders.UpdateFields(ctx, order.ID, map[string]interface{}{
		"payment_reference": intent.Reference,
	}); err != nil {
		s.logger.Error("Failed to store payment reference",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	} else {
		order.PaymentReference = &intent.Reference
	}

	return intent, nil
}

// finishCheckout runs the best-effort tail of the pipeline. The order is
// already committed; none of these can fail the checkout.
func (s *CheckoutService) finishCheckout(ctx context.Context, order *models.Order) {
	if err := s.carts.DeleteCart(ctx, order.UserID.String()); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", order.UserID.String()),
			zap.Error(err),
		)
	}

	if profile, err := s.users.GetProfile(ctx, order.UserID); err == nil && profile.Email != "" {
		notification := &models.Notification{
			Type:           "email",
			RecipientEmail: profile.Email,
			Subject:        fmt.Sprintf("Order Confirmation - %s", order.OrderNumber),
			TemplateName:   "order_created",
			TemplateData: models.JSONMap{
				"order_number": order.OrderNumber,
				"order_id":     order.ID.String(),
				"total_cents":  order.TotalCents,
				"currency":     order.Currency,
			},
		}
		if err := s.notifications.Enqueue(ctx, notification); err != nil {
			s.logger.Warn("Failed to enqueue order confirmation",
				zap.String("order_id", order.ID.String()),
				zap.Error(err),
			)
		}
	}

	s.producer.Publish(ctx, events.OrderEvent{
		Type:        "order.created",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		AmountCents: order.TotalCents,
		Currency:    order.Currency,
	})
}

func generateOrderNumber(now time.Time) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("SKIN-%s-%s", now.Format("20060102"), suffix)
}
