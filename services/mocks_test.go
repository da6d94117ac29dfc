package services

import (
	"context"
	"net/http"
	"sync"
	"time"

	"storefront-backend/common/apperrors"
	"storefront-backend/models"
	"storefront-backend/payments"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ---- in-memory order repository ----

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID][]models.OrderItem

	createItemsErr error
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]*models.Order),
		items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (r *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.orders {
		if existing.IdempotencyKey == order.IdempotencyKey ||
			existing.OrderNumber == order.OrderNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	clone := *order
	r.orders[order.ID] = &clone
	return nil
}

func (r *fakeOrderRepo) CreateItems(ctx context.Context, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createItemsErr != nil {
		return r.createItemsErr
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		r.items[items[i].OrderID] = append(r.items[items[i].OrderID], items[i])
	}
	return nil
}

func (r *fakeOrderRepo) get(orderID uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	clone.OrderItems = r.items[orderID]
	return &clone, nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(orderID)
}

func (r *fakeOrderRepo) FindByIDAndUserID(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, err := r.get(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range r.orders {
		if order.IdempotencyKey == key {
			return r.get(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByPaymentReference(ctx context.Context, reference string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, order := range r.orders {
		if order.PaymentReference != nil && *order.PaymentReference == reference {
			return r.get(id)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			out = append(out, *order)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for _, order := range r.orders {
		out = append(out, *order)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) applyUpdates(order *models.Order, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "order_status":
			order.OrderStatus = value.(models.OrderStatus)
		case "payment_status":
			order.PaymentStatus = value.(models.PaymentStatus)
		case "payment_reference":
			ref := value.(string)
			order.PaymentReference = &ref
		case "fulfillment":
			order.Fulfillment = value.(*models.Fulfillment)
		}
	}
}

func (r *fakeOrderRepo) UpdateFields(ctx context.Context, orderID uuid.UUID, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	r.applyUpdates(order, updates)
	return nil
}

func (r *fakeOrderRepo) TransitionStatus(ctx context.Context, orderID uuid.UUID, from models.OrderStatus, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok || order.OrderStatus != from {
		return apperrors.ErrConcurrentUpdate
	}
	r.applyUpdates(order, updates)
	return nil
}

func (r *fakeOrderRepo) AppendLog(ctx context.Context, orderID uuid.UUID, actor, action, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.Metadata.Logs = append(order.Metadata.Logs, models.OrderLog{
		Actor: actor, Action: action, Message: message, At: time.Now().UTC(),
	})
	return nil
}

func (r *fakeOrderRepo) CancelExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for id, order := range r.orders {
		if order.OrderStatus == models.OrderPendingPayment && order.ExpiresAt.Before(now) {
			order.OrderStatus = models.OrderCancelled
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ---- in-memory inventory repository ----

type fakeInventoryRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
	locks    map[uuid.UUID]*models.InventoryLock
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{
		products: make(map[uuid.UUID]*models.Product),
		locks:    make(map[uuid.UUID]*models.InventoryLock),
	}
}

func (r *fakeInventoryRepo) addProduct(name string, priceCents int64, stock int) uuid.UUID {
	id := uuid.New()
	r.products[id] = &models.Product{
		ID: id, Name: name, PriceCents: priceCents, StockQuantity: stock,
	}
	return id
}

func (r *fakeInventoryRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if product, ok := r.products[id]; ok {
			out = append(out, *product)
		}
	}
	return out, nil
}

func (r *fakeInventoryRepo) reserved(productID uuid.UUID) int {
	total := 0
	for _, lock := range r.locks {
		if lock.ProductID == productID && lock.ExpiresAt.After(time.Now()) {
			total += lock.QtyReserved
		}
	}
	return total
}

func (r *fakeInventoryRepo) AvailableStock(ctx context.Context, productID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return product.StockQuantity - r.reserved(productID), nil
}

func (r *fakeInventoryRepo) Reserve(ctx context.Context, productID uuid.UUID, qty int, expiresAt time.Time) (*models.InventoryLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	available := product.StockQuantity - r.reserved(productID)
	if available < qty {
		return nil, &apperrors.InsufficientStockError{
			ProductName: product.Name, Available: available, Requested: qty,
		}
	}
	lock := &models.InventoryLock{
		ID: uuid.New(), ProductID: productID, QtyReserved: qty, ExpiresAt: expiresAt,
	}
	r.locks[lock.ID] = lock
	return lock, nil
}

func (r *fakeInventoryRepo) ReleaseLocks(ctx context.Context, lockIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range lockIDs {
		delete(r.locks, id)
	}
	return nil
}

func (r *fakeInventoryRepo) ReleaseOrderLocks(ctx context.Context, orderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var released int64
	for id, lock := range r.locks {
		if lock.OrderID != nil && *lock.OrderID == orderID {
			delete(r.locks, id)
			released++
		}
	}
	return released, nil
}

func (r *fakeInventoryRepo) AttachToOrder(ctx context.Context, lockIDs []uuid.UUID, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range lockIDs {
		if lock, ok := r.locks[id]; ok {
			oid := orderID
			lock.OrderID = &oid
		}
	}
	return nil
}

func (r *fakeInventoryRepo) LocksForOrder(ctx context.Context, orderID uuid.UUID) ([]models.InventoryLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.InventoryLock
	for _, lock := range r.locks {
		if lock.OrderID != nil && *lock.OrderID == orderID {
			out = append(out, *lock)
		}
	}
	return out, nil
}

func (r *fakeInventoryRepo) Deduct(ctx context.Context, productID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok || product.StockQuantity < qty {
		return gorm.ErrRecordNotFound
	}
	product.StockQuantity -= qty
	return nil
}

func (r *fakeInventoryRepo) Restore(ctx context.Context, productID uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	product.StockQuantity += qty
	return nil
}

func (r *fakeInventoryRepo) CleanupExpiredLocks(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var cleaned int64
	for id, lock := range r.locks {
		if lock.ExpiresAt.Before(now) {
			delete(r.locks, id)
			cleaned++
		}
	}
	return cleaned, nil
}

func (r *fakeInventoryRepo) stock(productID uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[productID].StockQuantity
}

func (r *fakeInventoryRepo) lockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}

// ---- in-memory payment repository ----

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []*models.OrderPayment
	refunds  []*models.Refund
}

func newFakePaymentRepo() *fakePaymentRepo { return &fakePaymentRepo{} }

func (r *fakePaymentRepo) Create(ctx context.Context, payment *models.OrderPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	payment.ID = uuid.New()
	r.payments = append(r.payments, payment)
	return nil
}

func (r *fakePaymentRepo) FindByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string) (*models.OrderPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.OrderID == orderID && payment.Gateway == gateway {
			return payment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePaymentRepo) UpdateByOrderAndGateway(ctx context.Context, orderID uuid.UUID, gateway string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.OrderID == orderID && payment.Gateway == gateway {
			if status, ok := updates["status"].(string); ok {
				payment.Status = status
			}
		}
	}
	return nil
}

func (r *fakePaymentRepo) IncrementAttempts(ctx context.Context, orderID uuid.UUID, gateway string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, payment := range r.payments {
		if payment.OrderID == orderID && payment.Gateway == gateway {
			payment.Attempts++
		}
	}
	return nil
}

func (r *fakePaymentRepo) CreateRefund(ctx context.Context, refund *models.Refund) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	refund.ID = uuid.New()
	r.refunds = append(r.refunds, refund)
	return nil
}

func (r *fakePaymentRepo) TotalRefunded(ctx context.Context, orderID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total int64
	for _, refund := range r.refunds {
		if refund.OrderID == orderID {
			total += refund.AmountCents
		}
	}
	return total, nil
}

// ---- in-memory webhook repository ----

type fakeWebhookRepo struct {
	mu     sync.Mutex
	events map[string]*models.WebhookEvent
}

func newFakeWebhookRepo() *fakeWebhookRepo {
	return &fakeWebhookRepo{events: make(map[string]*models.WebhookEvent)}
}

func (r *fakeWebhookRepo) key(gateway, eventID string) string { return gateway + "|" + eventID }

func (r *fakeWebhookRepo) Find(ctx context.Context, gateway, eventID string) (*models.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[r.key(gateway, eventID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return event, nil
}

func (r *fakeWebhookRepo) Create(ctx context.Context, event *models.WebhookEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(event.Gateway, event.EventID)
	if _, exists := r.events[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	event.ID = uuid.New()
	r.events[key] = event
	return nil
}

func (r *fakeWebhookRepo) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == id {
			now := time.Now().UTC()
			event.Processed = true
			event.ProcessedAt = &now
		}
	}
	return nil
}

func (r *fakeWebhookRepo) RecordError(ctx context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, event := range r.events {
		if event.ID == id {
			event.Error = &message
		}
	}
	return nil
}

// ---- in-memory user repository ----

type fakeUserRepo struct {
	profiles  map[uuid.UUID]*models.Profile
	addresses map[uuid.UUID]*models.Address
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		profiles:  make(map[uuid.UUID]*models.Profile),
		addresses: make(map[uuid.UUID]*models.Address),
	}
}

func (r *fakeUserRepo) addUser(email string, isAdmin bool) uuid.UUID {
	id := uuid.New()
	r.profiles[id] = &models.Profile{ID: id, Email: email, IsAdmin: isAdmin}
	return id
}

func (r *fakeUserRepo) addAddress(userID uuid.UUID) uuid.UUID {
	id := uuid.New()
	r.addresses[id] = &models.Address{
		ID: id, UserID: userID, FullName: "Ada Obi",
		AddressLine1: "12 Marina Rd", City: "Lagos", State: "Lagos",
		PostalCode: "100001", Country: "NG", Phone: "+2348000000000",
	}
	return id
}

func (r *fakeUserRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return profile, nil
}

func (r *fakeUserRepo) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	profile, ok := r.profiles[userID]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	return profile.IsAdmin, nil
}

func (r *fakeUserRepo) GetAddress(ctx context.Context, addressID uuid.UUID) (*models.Address, error) {
	address, ok := r.addresses[addressID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return address, nil
}

func (r *fakeUserRepo) CreateAddress(ctx context.Context, address *models.Address) error {
	address.ID = uuid.New()
	r.addresses[address.ID] = address
	return nil
}

// ---- in-memory cart repository ----

type fakeCartRepo struct {
	carts map[string]*models.Cart
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{carts: make(map[string]*models.Cart)}
}

func (r *fakeCartRepo) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	return r.carts[userID], nil
}

func (r *fakeCartRepo) SaveCart(ctx context.Context, cart *models.Cart) error {
	r.carts[cart.UserID] = cart
	return nil
}

func (r *fakeCartRepo) DeleteCart(ctx context.Context, userID string) error {
	delete(r.carts, userID)
	return nil
}

// ---- in-memory notification repository ----

type fakeNotificationRepo struct {
	queued []*models.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo { return &fakeNotificationRepo{} }

func (r *fakeNotificationRepo) Enqueue(ctx context.Context, notification *models.Notification) error {
	r.queued = append(r.queued, notification)
	return nil
}

// ---- scripted payment provider ----

type fakeProvider struct {
	name         string
	intent       *payments.Intent
	intentErr    error
	verification *payments.Verification
	refundResult *payments.RefundResult
	refundErr    error
	event        *payments.Event
	webhookErr   error

	intentCalls int
	refundCalls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) CreatePaymentIntent(ctx context.Context, params payments.IntentParams) (*payments.Intent, error) {
	p.intentCalls++
	if p.intentErr != nil {
		return nil, p.intentErr
	}
	return p.intent, nil
}

func (p *fakeProvider) VerifyPayment(ctx context.Context, reference string) (*payments.Verification, error) {
	return p.verification, nil
}

func (p *fakeProvider) VerifyWebhook(header http.Header, body []byte) (*payments.Event, error) {
	if p.webhookErr != nil {
		return nil, p.webhookErr
	}
	return p.event, nil
}

func (p *fakeProvider) Refund(ctx context.Context, params payments.RefundParams) (*payments.RefundResult, error) {
	p.refundCalls++
	if p.refundErr != nil {
		return nil, p.refundErr
	}
	if p.refundResult != nil {
		return p.refundResult, nil
	}
	return &payments.RefundResult{
		RefundID: "rf_test", AmountCents: params.AmountCents, Status: "processed",
	}, nil
}

func (p *fakeProvider) GetPaymentStatus(ctx context.Context, reference string) (string, error) {
	if p.verification == nil {
		return "", gorm.ErrRecordNotFound
	}
	return p.verification.Status, nil
}

func factoryFor(provider *fakeProvider) payments.Factory {
	return func(gateway string) (payments.Provider, error) {
		switch gateway {
		case provider.name:
			return provider, nil
		case payments.MethodBankTransfer, payments.MethodCashOnDelivery:
			return nil, payments.ErrNoProviderRequired
		default:
			return nil, &payments.UnsupportedGatewayError{Gateway: gateway}
		}
	}
}
