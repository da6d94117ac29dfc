package services

import (
	"testing"
	"time"

	"storefront-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func snapshot(unitCents int64, qty int) models.ItemSnapshot {
	return models.ItemSnapshot{
		ProductID:      uuid.New(),
		Name:           "test product",
		UnitPriceCents: unitCents,
		Quantity:       qty,
		TotalCents:     unitCents * int64(qty),
	}
}

func TestPriceItems_FlatShippingBelowThreshold(t *testing.T) {
	// Two items at N15,000 each: subtotal N30,000, flat shipping, 8% tax.
	totals := PriceItems([]models.ItemSnapshot{snapshot(1_500_000, 2)})

	assert.Equal(t, int64(3_000_000), totals.SubtotalCents)
	assert.Equal(t, FlatShippingCents, totals.ShippingCents)
	assert.Equal(t, int64(240_000), totals.TaxCents)
	assert.Equal(t, int64(4_240_000), totals.TotalCents)
}

func TestPriceItems_FreeShippingAtThreshold(t *testing.T) {
	// Subtotal exactly N80,000 qualifies for free shipping.
	totals := PriceItems([]models.ItemSnapshot{snapshot(8_000_000, 1)})

	assert.Equal(t, int64(8_000_000), totals.SubtotalCents)
	assert.Equal(t, int64(0), totals.ShippingCents)
	assert.Equal(t, int64(640_000), totals.TaxCents)
	assert.Equal(t, int64(8_640_000), totals.TotalCents)
}

func TestPriceItems_FreeShippingAboveThreshold(t *testing.T) {
	totals := PriceItems([]models.ItemSnapshot{
		snapshot(4_500_000, 2),
		snapshot(500_000, 1),
	})

	assert.Equal(t, int64(9_500_000), totals.SubtotalCents)
	assert.Equal(t, int64(0), totals.ShippingCents)
}

func TestPriceItems_TaxRounding(t *testing.T) {
	// 8% of 1111 kobo is 88.88, rounds to 89.
	totals := PriceItems([]models.ItemSnapshot{snapshot(1111, 1)})
	assert.Equal(t, int64(89), totals.TaxCents)
}

func TestPriceItems_EmptyItems(t *testing.T) {
	totals := PriceItems(nil)
	assert.Equal(t, int64(0), totals.SubtotalCents)
	assert.Equal(t, FlatShippingCents, totals.ShippingCents)
	assert.Equal(t, FlatShippingCents, totals.TotalCents)
}

func TestGenerateOrderNumber_Format(t *testing.T) {
	number := generateOrderNumber(mustTime(t, "2026-03-15T10:00:00Z"))
	assert.Regexp(t, `^SKIN-20260315-[0-9A-Z]{6}$`, number)
}
