package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/checkout/session"
	"github.com/stripe/stripe-go/v80/refund"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeProvider implements the provider contract on top of Stripe
// checkout sessions. The session id doubles as the payment reference.
type StripeProvider struct {
	secretKey     string
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{secretKey: secretKey, webhookSecret: webhookSecret}
}

func (s *StripeProvider) Name() string { return GatewayStripe }

func (s *StripeProvider) CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(params.CallbackURL),
		CancelURL:         stripe.String(params.CallbackURL),
		CustomerEmail:     stripe.String(params.Email),
		ClientReferenceID: stripe.String(params.OrderID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(params.Currency)),
				UnitAmount: stripe.Int64(params.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Order " + params.OrderID),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: withOrderID(params.Metadata, params.OrderID),
		},
	}
	sessionParams.Context = ctx
	for k, v := range withOrderID(params.Metadata, params.OrderID) {
		sessionParams.AddMetadata(k, v)
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, err
	}
	return &Intent{
		AuthorizationURL: sess.URL,
		Reference:        sess.ID,
	}, nil
}

func (s *StripeProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(reference, params)
	if err != nil {
		return nil, err
	}

	status := "not_paid"
	switch sess.PaymentStatus {
	case stripe.CheckoutSessionPaymentStatusPaid:
		status = "paid"
	case stripe.CheckoutSessionPaymentStatusUnpaid:
		status = "pending"
	}

	raw, _ := json.Marshal(sess)
	verification := &Verification{
		Success:     sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Status:      status,
		AmountCents: sess.AmountTotal,
		Currency:    strings.ToUpper(string(sess.Currency)),
		Reference:   sess.ID,
		Raw:         raw,
	}
	if sess.PaymentIntent != nil {
		verification.GatewayPaymentID = sess.PaymentIntent.ID
	}
	return verification, nil
}

func (s *StripeProvider) VerifyWebhook(header http.Header, body []byte) (*Event, error) {
	event, err := webhook.ConstructEvent(body, header.Get("Stripe-Signature"), s.webhookSecret)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	normalized := &Event{
		ID:   event.ID,
		Type: string(event.Type),
		Kind: EventUnknown,
		Raw:  body,
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, err
		}
		normalized.Kind = EventPaymentSucceeded
		normalized.Reference = sess.ID
		normalized.AmountCents = sess.AmountTotal
		normalized.OrderID = orderIDFromSession(&sess)

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, err
		}
		normalized.Kind = EventPaymentSucceeded
		if event.Type == "payment_intent.payment_failed" {
			normalized.Kind = EventPaymentFailed
		}
		normalized.Reference = pi.ID
		normalized.AmountCents = pi.Amount
		normalized.OrderID = pi.Metadata["order_id"]

	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, err
		}
		normalized.Kind = EventRefundProcessed
		normalized.Reference = ch.ID
		normalized.AmountCents = ch.AmountRefunded
		normalized.OrderID = ch.Metadata["order_id"]
		if ch.PaymentIntent != nil {
			normalized.Reference = ch.PaymentIntent.ID
		}

	case "charge.dispute.created":
		var dp stripe.Dispute
		if err := json.Unmarshal(event.Data.Raw, &dp); err != nil {
			return nil, err
		}
		normalized.Kind = EventDisputeCreated
		normalized.AmountCents = dp.Amount
		if dp.PaymentIntent != nil {
			normalized.Reference = dp.PaymentIntent.ID
		}
	}

	return normalized, nil
}

func (s *StripeProvider) Refund(ctx context.Context, params RefundParams) (*RefundResult, error) {
	refundParams := &stripe.RefundParams{}
	refundParams.Context = ctx
	if strings.HasPrefix(params.PaymentReference, "pi_") {
		refundParams.PaymentIntent = stripe.String(params.PaymentReference)
	} else {
		refundParams.Charge = stripe.String(params.PaymentReference)
	}
	if params.AmountCents > 0 {
		refundParams.Amount = stripe.Int64(params.AmountCents)
	}
	if params.Reason != "" {
		refundParams.AddMetadata("reason", params.Reason)
	}

	r, err := refund.New(refundParams)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(r)
	return &RefundResult{
		RefundID:    r.ID,
		AmountCents: r.Amount,
		Status:      string(r.Status),
		Raw:         raw,
	}, nil
}

func (s *StripeProvider) GetPaymentStatus(ctx context.Context, reference string) (string, error) {
	verification, err := s.VerifyPayment(ctx, reference)
	if err != nil {
		return "", err
	}
	return verification.Status, nil
}

func withOrderID(metadata map[string]string, orderID string) map[string]string {
	out := map[string]string{"order_id": orderID}
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

func orderIDFromSession(sess *stripe.CheckoutSession) string {
	if id, ok := sess.Metadata["order_id"]; ok && id != "" {
		return id
	}
	return sess.ClientReferenceID
}
