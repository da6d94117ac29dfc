package services

import (
	"math"
	"time"

	"storefront-backend/models"
)

const (
	// Amounts are integer kobo throughout; ₦1 == 100 cents.
	FreeShippingThresholdCents int64 = 8_000_000 // free shipping over ₦80,000
	FlatShippingCents          int64 = 1_000_000 // ₦10,000
	TaxRate                          = 0.08

	DefaultCurrency = "NGN"

	// AmountToleranceCents absorbs gateway rounding on settlement and
	// refund classification (₦1).
	AmountToleranceCents int64 = 100

	LockWindow  = 30 * time.Minute
	OrderExpiry = 24 * time.Hour
)

// Totals is the monetary breakdown of a priced cart, all in cents.
type Totals struct {
	SubtotalCents int64
	ShippingCents int64
	TaxCents      int64
	TotalCents    int64
}

// PriceItems computes order totals from the items snapshot. Line totals
// are unit cents times quantity; shipping is flat below the
// free-shipping threshold; tax is a fixed percentage of the subtotal.
func PriceItems(items []models.ItemSnapshot) Totals {
	var subtotal int64
	for _, item := range items {
		subtotal += item.TotalCents
	}

	shipping := FlatShippingCents
	if subtotal >= FreeShippingThresholdCents {
		shipping = 0
	}

	tax := int64(math.Round(float64(subtotal) * TaxRate))

	return Totals{
		SubtotalCents: subtotal,
		ShippingCents: shipping,
		TaxCents:      tax,
		TotalCents:    subtotal + shipping + tax,
	}
}
