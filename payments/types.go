package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	GatewayPaystack      = "paystack"
	GatewayStripe        = "stripe"
	GatewayFlutterwave   = "flutterwave"
	MethodBankTransfer   = "bank_transfer"
	MethodCashOnDelivery = "cash_on_delivery"
)

var (
	// ErrNoProviderRequired is returned for payment methods settled
	// outside any gateway (bank transfer, cash on delivery).
	ErrNoProviderRequired = errors.New("payment method does not require a payment provider")
	// ErrInvalidSignature is returned when a webhook fails authenticity
	// verification.
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// UnsupportedGatewayError is returned for gateways declared but not
// implemented, and for unknown gateway names.
type UnsupportedGatewayError struct {
	Gateway string
}

func (e *UnsupportedGatewayError) Error() string {
	return fmt.Sprintf("unsupported payment gateway: %s", e.Gateway)
}

// EventKind is the normalized webhook event classification shared across
// gateways.
type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_succeeded"
	EventPaymentFailed    EventKind = "payment_failed"
	EventRefundProcessed  EventKind = "refund_processed"
	EventDisputeCreated   EventKind = "dispute_created"
	EventUnknown          EventKind = "unknown"
)

type IntentParams struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Email       string
	CallbackURL string
	Metadata    map[string]string
}

type Intent struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

type Verification struct {
	Success          bool
	Status           string
	AmountCents      int64
	Currency         string
	Reference        string
	GatewayPaymentID string
	Raw              json.RawMessage
}

type RefundParams struct {
	PaymentReference string
	AmountCents      int64 // 0 means full refund of the original charge
	Reason           string
}

type RefundResult struct {
	RefundID    string
	AmountCents int64
	Status      string
	Raw         json.RawMessage
}

// Event is a verified, normalized webhook callback.
type Event struct {
	ID          string // gateway-assigned event id, may be empty
	Type        string // gateway-native event type
	Kind        EventKind
	Reference   string // transaction/session reference
	AmountCents int64
	OrderID     string // from gateway metadata, may be empty
	Raw         json.RawMessage
}

// Provider is the capability set each gateway adapter implements.
type Provider interface {
	Name() string
	CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error)
	VerifyPayment(ctx context.Context, reference string) (*Verification, error)
	// VerifyWebhook authenticates the raw body against the gateway
	// signature header and returns the normalized event. Returns
	// ErrInvalidSignature without parsing further on failure.
	VerifyWebhook(header http.Header, body []byte) (*Event, error)
	Refund(ctx context.Context, params RefundParams) (*RefundResult, error)
	GetPaymentStatus(ctx context.Context, reference string) (string, error)
}
