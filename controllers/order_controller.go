package controllers

import (
	"net/http"
	"strconv"

	"storefront-backend/middleware"
	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderController struct {
	orders   *services.OrderService
	webhooks *services.WebhookService
}

func NewOrderController(orders *services.OrderService, webhooks *services.WebhookService) *OrderController {
	return &OrderController{orders: orders, webhooks: webhooks}
}

func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	return page, limit
}

// ListMyOrders returns the caller's orders, newest first.
func (oc *OrderController) ListMyOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	page, limit := paging(c)
	result, err := oc.orders.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetOrder returns a single order. Admins can read any order.
func (oc *OrderController) GetOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	order, err := oc.orders.GetOrder(c.Request.Context(), orderID, userID, middleware.IsAdmin(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// VerifyPayment polls the gateway for the payment referenced in the
// query string and settles the order if it succeeded. Covers the
// redirect-back flow when the webhook is still in flight.
func (oc *OrderController) VerifyPayment(c *gin.Context) {
	if _, ok := middleware.GetUserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	gateway := c.Query("gateway")
	reference := c.Query("reference")
	if gateway == "" || reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gateway and reference are required"})
		return
	}

	order, err := oc.webhooks.VerifyAndSettle(c.Request.Context(), gateway, reference)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_status":   order.OrderStatus,
		"payment_status": order.PaymentStatus,
		"order":          order,
	})
}
