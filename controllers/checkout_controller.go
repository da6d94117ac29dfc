package controllers

import (
	"net/http"

	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CheckoutDefaults fills request fields the client may omit.
type CheckoutDefaults struct {
	PaymentMethod string
	CallbackURL   string
}

type CheckoutController struct {
	checkout *services.CheckoutService
	defaults CheckoutDefaults
}

func NewCheckoutController(checkout *services.CheckoutService, defaults CheckoutDefaults) *CheckoutController {
	return &CheckoutController{checkout: checkout, defaults: defaults}
}

type checkoutRequest struct {
	IdempotencyKey string          `json:"idempotency_key" binding:"required"`
	PaymentMethod  string          `json:"payment_method"`
	AddressID      *uuid.UUID      `json:"address_id"`
	Address        *models.Address `json:"address"`
	CallbackURL    string          `json:"callback_url"`
}

// Checkout places an order from the caller's cart.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if req.PaymentMethod == "" {
		req.PaymentMethod = cc.defaults.PaymentMethod
	}
	if req.CallbackURL == "" {
		req.CallbackURL = cc.defaults.CallbackURL
	}

	result, err := cc.checkout.Checkout(c.Request.Context(), services.CheckoutInput{
		UserID:         userID,
		IdempotencyKey: req.IdempotencyKey,
		PaymentMethod:  req.PaymentMethod,
		AddressID:      req.AddressID,
		Address:        req.Address,
		CallbackURL:    req.CallbackURL,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Idempotent {
		status = http.StatusOK
	}

	response := gin.H{"order": result.Order}
	if result.Intent != nil {
		response["payment"] = gin.H{
			"authorization_url": result.Intent.AuthorizationURL,
			"reference":         result.Intent.Reference,
		}
	}
	c.JSON(status, response)
}
