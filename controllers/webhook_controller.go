package controllers

import (
	"io"
	"net/http"

	"storefront-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type WebhookController struct {
	webhooks *services.WebhookService
	logger   *zap.Logger
}

func NewWebhookController(webhooks *services.WebhookService, logger *zap.Logger) *WebhookController {
	return &WebhookController{webhooks: webhooks, logger: logger}
}

// Handle receives one gateway callback. The raw body is read before any
// parsing because signature verification runs over the exact bytes.
func (wc *WebhookController) Handle(c *gin.Context) {
	gateway := c.Param("gateway")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	result, err := wc.webhooks.Process(c.Request.Context(), gateway, c.Request.Header, body)
	if err != nil {
		wc.logger.Warn("Webhook processing failed",
			zap.String("gateway", gateway),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": result.Duplicate})
}
