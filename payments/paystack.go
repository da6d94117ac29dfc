package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"
)

const paystackBaseURL = "https://api.paystack.co"

// PaystackProvider talks to the Paystack REST API. Amounts are in kobo,
// which is what the rest of this codebase calls cents.
type PaystackProvider struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewPaystackProvider(secretKey string) *PaystackProvider {
	return &PaystackProvider{
		secretKey: secretKey,
		baseURL:   paystackBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *PaystackProvider) Name() string { return GatewayPaystack }

// paystackEnvelope is the common {status, message, data} response shape.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (p *PaystackProvider) call(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body *bytes.Buffer
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("paystack: decoding response: %w", err)
	}
	if resp.StatusCode >= 400 || !envelope.Status {
		if envelope.Message == "" {
			envelope.Message = resp.Status
		}
		return nil, fmt.Errorf("paystack: %s", envelope.Message)
	}
	return envelope.Data, nil
}

func (p *PaystackProvider) CreatePaymentIntent(ctx context.Context, params IntentParams) (*Intent, error) {
	metadata := map[string]interface{}{"order_id": params.OrderID}
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	data, err := p.call(ctx, http.MethodPost, "/transaction/initialize", map[string]interface{}{
		"email":        params.Email,
		"amount":       params.AmountCents,
		"currency":     params.Currency,
		"reference":    generateReference(params.OrderID),
		"callback_url": params.CallbackURL,
		"metadata":     metadata,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &Intent{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

func (p *PaystackProvider) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	data, err := p.call(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID        json.Number `json:"id"`
		Status    string      `json:"status"`
		Amount    int64       `json:"amount"`
		Currency  string      `json:"currency"`
		Reference string      `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &Verification{
		Success:          out.Status == "success",
		Status:           mapPaystackStatus(out.Status),
		AmountCents:      out.Amount,
		Currency:         out.Currency,
		Reference:        out.Reference,
		GatewayPaymentID: out.ID.String(),
		Raw:              data,
	}, nil
}

func (p *PaystackProvider) VerifyWebhook(header http.Header, body []byte) (*Event, error) {
	signature := header.Get("x-paystack-signature")
	if signature == "" {
		return nil, ErrInvalidSignature
	}

	mac := hmac.New(sha512.New, []byte(p.secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	// hmac.Equal keeps the comparison constant-time.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrInvalidSignature
	}

	var envelope struct {
		Event string `json:"event"`
		Data  struct {
			ID                   json.Number `json:"id"`
			Reference            string      `json:"reference"`
			TransactionReference string      `json:"transaction_reference"`
			Amount               int64       `json:"amount"`
			Metadata             struct {
				OrderID string `json:"order_id"`
			} `json:"metadata"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("paystack: decoding webhook: %w", err)
	}

	reference := envelope.Data.Reference
	if envelope.Data.TransactionReference != "" {
		reference = envelope.Data.TransactionReference
	}

	eventID := envelope.Data.ID.String()
	if eventID == "" || eventID == "0" {
		eventID = envelope.Data.Reference
	}

	return &Event{
		ID:          eventID,
		Type:        envelope.Event,
		Kind:        mapPaystackEvent(envelope.Event),
		Reference:   reference,
		AmountCents: envelope.Data.Amount,
		OrderID:     envelope.Data.Metadata.OrderID,
		Raw:         body,
	}, nil
}

func (p *PaystackProvider) Refund(ctx context.Context, params RefundParams) (*RefundResult, error) {
	payload := map[string]interface{}{
		"transaction":   params.PaymentReference,
		"merchant_note": params.Reason,
	}
	if params.AmountCents > 0 {
		payload["amount"] = params.AmountCents
	}

	data, err := p.call(ctx, http.MethodPost, "/refund", payload)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID     json.Number `json:"id"`
		Amount int64       `json:"amount"`
		Status string      `json:"status"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	amount := out.Amount
	if amount == 0 {
		amount = params.AmountCents
	}
	return &RefundResult{
		RefundID:    out.ID.String(),
		AmountCents: amount,
		Status:      out.Status,
		Raw:         data,
	}, nil
}

func (p *PaystackProvider) GetPaymentStatus(ctx context.Context, reference string) (string, error) {
	verification, err := p.VerifyPayment(ctx, reference)
	if err != nil {
		return "", err
	}
	return verification.Status, nil
}

func mapPaystackStatus(status string) string {
	switch status {
	case "success":
		return "paid"
	case "pending":
		return "pending"
	default: // failed, abandoned
		return "not_paid"
	}
}

func mapPaystackEvent(eventType string) EventKind {
	switch eventType {
	case "charge.success", "payment.successful":
		return EventPaymentSucceeded
	case "charge.failed", "payment.failed":
		return EventPaymentFailed
	case "refund.processed", "refund.successful":
		return EventRefundProcessed
	case "dispute.create", "chargeback.created":
		return EventDisputeCreated
	default:
		return EventUnknown
	}
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReference(orderID string) string {
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = referenceAlphabet[rand.Intn(len(referenceAlphabet))]
	}
	short := orderID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("PAY-%s-%d-%s", strings.ToUpper(short), time.Now().UnixMilli(), suffix)
}
