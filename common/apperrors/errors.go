package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across services and controllers.
var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNotPaid     = errors.New("order not found or not paid")
	ErrNoPaymentRecord  = errors.New("no payment record found")
	ErrCannotCancel     = errors.New("cannot cancel shipped orders")
	ErrConcurrentUpdate = errors.New("order was modified concurrently")
)

// ValidationError rejects malformed input before any side effect.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// InsufficientStockError aborts a checkout, naming the offending product.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d, requested: %d",
		e.ProductName, e.Available, e.Requested)
}

// InvalidTransitionError names both ends of a rejected lifecycle edge.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// AmountMismatchError rejects a settlement whose amount diverges from the
// order total beyond tolerance.
type AmountMismatchError struct {
	ExpectedCents int64
	GotCents      int64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected %d, got %d", e.ExpectedCents, e.GotCents)
}

// RefundExceedsTotalError rejects a refund that would push the cumulative
// refunded amount past the order total.
type RefundExceedsTotalError struct {
	RequestedCents int64
	RemainingCents int64
}

func (e *RefundExceedsTotalError) Error() string {
	return fmt.Sprintf("refund of %d exceeds refundable remainder of %d",
		e.RequestedCents, e.RemainingCents)
}

// AddressError wraps failures while resolving or persisting the shipping
// address.
type AddressError struct{ Err error }

func (e *AddressError) Error() string { return "failed to resolve shipping address: " + e.Err.Error() }
func (e *AddressError) Unwrap() error { return e.Err }

// OrderPersistenceError wraps failures writing the order or its items.
type OrderPersistenceError struct{ Err error }

func (e *OrderPersistenceError) Error() string { return "failed to create order: " + e.Err.Error() }
func (e *OrderPersistenceError) Unwrap() error { return e.Err }

// PaymentIntentError is non-fatal to checkout: the order persists unpaid
// and the customer can retry payment.
type PaymentIntentError struct{ Err error }

func (e *PaymentIntentError) Error() string { return "payment intent creation failed: " + e.Err.Error() }
func (e *PaymentIntentError) Unwrap() error { return e.Err }
