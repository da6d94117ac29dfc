package services

import (
	"storefront-backend/common/apperrors"
	"storefront-backend/models"
)

// allowedTransitions is the order lifecycle state machine. Every status
// mutation, admin- or webhook-driven, is validated against it before any
// write.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPendingPayment:    {models.OrderPaymentFailed, models.OrderPaid, models.OrderCancelled},
	models.OrderPaymentFailed:     {models.OrderPendingPayment, models.OrderCancelled},
	models.OrderPaid:              {models.OrderProcessing, models.OrderCancelled, models.OrderRefunded},
	models.OrderProcessing:        {models.OrderReadyForShipment, models.OrderCancelled},
	models.OrderReadyForShipment:  {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:           {models.OrderInTransit, models.OrderDelivered},
	models.OrderInTransit:         {models.OrderDelivered},
	models.OrderDelivered:         {models.OrderPartiallyRefunded, models.OrderRefunded, models.OrderDisputed, models.OrderArchived},
	models.OrderCancelRequested:   {models.OrderCancelled, models.OrderProcessing},
	models.OrderCancelled:         {models.OrderArchived},
	models.OrderPartiallyRefunded: {models.OrderRefunded, models.OrderArchived},
	models.OrderRefunded:          {models.OrderArchived},
	models.OrderDisputed:          {models.OrderResolved, models.OrderArchived},
}

// ValidateTransition returns InvalidTransitionError when the edge
// from -> to is not part of the lifecycle.
func ValidateTransition(from, to models.OrderStatus) error {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return nil
		}
	}
	return &apperrors.InvalidTransitionError{From: string(from), To: string(to)}
}
