package controllers

import (
	"errors"
	"net/http"

	"storefront-backend/common/apperrors"
	"storefront-backend/payments"

	"github.com/gin-gonic/gin"
)

// respondError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func respondError(c *gin.Context, err error) {
	var (
		validationErr  *apperrors.ValidationError
		stockErr       *apperrors.InsufficientStockError
		transitionErr  *apperrors.InvalidTransitionError
		amountErr      *apperrors.AmountMismatchError
		refundBoundErr *apperrors.RefundExceedsTotalError
		unsupportedErr *payments.UnsupportedGatewayError
		persistenceErr *apperrors.OrderPersistenceError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.Is(err, apperrors.ErrEmptyCart),
		errors.Is(err, apperrors.ErrOrderNotPaid),
		errors.Is(err, apperrors.ErrNoPaymentRecord),
		errors.Is(err, payments.ErrNoProviderRequired),
		errors.As(err, &refundBoundErr),
		errors.As(err, &unsupportedErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &stockErr),
		errors.As(err, &transitionErr),
		errors.As(err, &amountErr),
		errors.Is(err, apperrors.ErrCannotCancel),
		errors.Is(err, apperrors.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, payments.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &persistenceErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "order_creation_failed",
			"message": "failed to create order",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "an unexpected error occurred",
		})
	}
}
