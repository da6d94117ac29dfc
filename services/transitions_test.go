package services

import (
	"testing"

	"storefront-backend/common/apperrors"
	"storefront-backend/models"

	"github.com/stretchr/testify/assert"
)

func TestValidateTransition_AllowedEdges(t *testing.T) {
	cases := []struct {
		from models.OrderStatus
		to   models.OrderStatus
	}{
		{models.OrderPendingPayment, models.OrderPaid},
		{models.OrderPendingPayment, models.OrderPaymentFailed},
		{models.OrderPendingPayment, models.OrderCancelled},
		{models.OrderPaymentFailed, models.OrderPendingPayment},
		{models.OrderPaid, models.OrderProcessing},
		{models.OrderPaid, models.OrderRefunded},
		{models.OrderProcessing, models.OrderReadyForShipment},
		{models.OrderReadyForShipment, models.OrderShipped},
		{models.OrderShipped, models.OrderInTransit},
		{models.OrderInTransit, models.OrderDelivered},
		{models.OrderDelivered, models.OrderDisputed},
		{models.OrderDelivered, models.OrderPartiallyRefunded},
		{models.OrderPartiallyRefunded, models.OrderRefunded},
		{models.OrderDisputed, models.OrderResolved},
		{models.OrderCancelRequested, models.OrderProcessing},
		{models.OrderRefunded, models.OrderArchived},
	}
	for _, tc := range cases {
		assert.NoError(t, ValidateTransition(tc.from, tc.to),
			"expected %s -> %s to be allowed", tc.from, tc.to)
	}
}

func TestValidateTransition_RejectedEdges(t *testing.T) {
	cases := []struct {
		from models.OrderStatus
		to   models.OrderStatus
	}{
		{models.OrderPendingPayment, models.OrderShipped},
		{models.OrderPendingPayment, models.OrderDelivered},
		{models.OrderPaid, models.OrderDelivered},
		{models.OrderPaid, models.OrderPartiallyRefunded},
		{models.OrderPaid, models.OrderDisputed},
		{models.OrderShipped, models.OrderCancelled},
		{models.OrderInTransit, models.OrderCancelled},
		{models.OrderDelivered, models.OrderProcessing},
		{models.OrderCancelled, models.OrderPaid},
		{models.OrderRefunded, models.OrderPaid},
		{models.OrderRefunded, models.OrderCancelled},
		{models.OrderArchived, models.OrderPaid},
		{models.OrderResolved, models.OrderDisputed},
	}
	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		assert.Error(t, err, "expected %s -> %s to be rejected", tc.from, tc.to)

		var transitionErr *apperrors.InvalidTransitionError
		assert.ErrorAs(t, err, &transitionErr)
	}
}

func TestValidateTransition_TerminalStates(t *testing.T) {
	// Archived and resolved accept nothing but their own exits.
	for _, to := range []models.OrderStatus{
		models.OrderPendingPayment, models.OrderPaid, models.OrderCancelled,
		models.OrderRefunded, models.OrderDelivered,
	} {
		assert.Error(t, ValidateTransition(models.OrderArchived, to))
		assert.Error(t, ValidateTransition(models.OrderResolved, to))
	}
}
