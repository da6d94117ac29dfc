package controllers

import (
	"net/http"

	"storefront-backend/middleware"
	"storefront-backend/models"
	"storefront-backend/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartController struct {
	carts  repository.CartRepository
	logger *zap.Logger
}

func NewCartController(carts repository.CartRepository, logger *zap.Logger) *CartController {
	return &CartController{carts: carts, logger: logger}
}

// GetCart returns the current cart for the caller.
func (cc *CartController) GetCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	cart, err := cc.carts.GetCart(c.Request.Context(), userID.String())
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID.String(), Items: []models.CartItem{}}
	}
	c.JSON(http.StatusOK, cart)
}

// AddItem adds or increments an item in the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var item models.CartItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ctx := c.Request.Context()
	cart, err := cc.carts.GetCart(ctx, userID.String())
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get cart"})
		return
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID.String(), Items: []models.CartItem{}}
	}

	found := false
	for i, existing := range cart.Items {
		if existing.ProductID == item.ProductID {
			cart.Items[i].Quantity += item.Quantity
			found = true
			break
		}
	}
	if !found {
		cart.Items = append(cart.Items, item)
	}

	if err := cc.carts.SaveCart(ctx, cart); err != nil {
		cc.logger.Error("Failed to save cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// RemoveItem removes one product line from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	ctx := c.Request.Context()
	cart, err := cc.carts.GetCart(ctx, userID.String())
	if err != nil {
		cc.logger.Error("Failed to get cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get cart"})
		return
	}
	if cart == nil {
		c.JSON(http.StatusOK, &models.Cart{UserID: userID.String(), Items: []models.CartItem{}})
		return
	}

	items := cart.Items[:0]
	for _, existing := range cart.Items {
		if existing.ProductID != productID {
			items = append(items, existing)
		}
	}
	cart.Items = items

	if err := cc.carts.SaveCart(ctx, cart); err != nil {
		cc.logger.Error("Failed to save cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save cart"})
		return
	}
	c.JSON(http.StatusOK, cart)
}

// ClearCart empties the caller's cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := cc.carts.DeleteCart(c.Request.Context(), userID.String()); err != nil {
		cc.logger.Error("Failed to clear cart", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cart"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
