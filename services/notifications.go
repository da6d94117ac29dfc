package services

import (
	"context"
	"fmt"

	"storefront-backend/models"
	"storefront-backend/repository"

	"go.uber.org/zap"
)

type emailTemplate struct {
	subject  string
	template string
}

// statusEmailTemplates maps lifecycle statuses to customer emails.
// Statuses without an entry produce no customer notification.
var statusEmailTemplates = map[models.OrderStatus]emailTemplate{
	models.OrderPaid:       {subject: "Payment Confirmed - Order %s", template: "payment_confirmed"},
	models.OrderProcessing: {subject: "Order Processing - %s", template: "order_processing"},
	models.OrderShipped:    {subject: "Order Shipped - %s", template: "order_shipped"},
	models.OrderDelivered:  {subject: "Order Delivered - %s", template: "order_delivered"},
	models.OrderCancelled:  {subject: "Order Cancelled - %s", template: "order_cancelled"},
	models.OrderRefunded:   {subject: "Refund Processed - %s", template: "order_refunded"},
}

// queueStatusNotification enqueues the customer email for a status
// change. Fire and forget: failures are logged and never fail the
// parent operation.
func queueStatusNotification(
	ctx context.Context,
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	order *models.Order,
	status models.OrderStatus,
	fulfillment *models.Fulfillment,
	logger *zap.Logger,
) {
	emailConfig, ok := statusEmailTemplates[status]
	if !ok {
		return
	}

	profile, err := users.GetProfile(ctx, order.UserID)
	if err != nil || profile.Email == "" {
		logger.Warn("Skipping customer notification, no recipient email",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}

	data := models.JSONMap{
		"order_number": order.OrderNumber,
		"order_id":     order.ID.String(),
	}
	if fulfillment != nil {
		data["fulfillment"] = fulfillment
	}

	notification := &models.Notification{
		Type:           "email",
		RecipientEmail: profile.Email,
		Subject:        fmt.Sprintf(emailConfig.subject, order.OrderNumber),
		TemplateName:   emailConfig.template,
		TemplateData:   data,
	}
	if err := notifications.Enqueue(ctx, notification); err != nil {
		logger.Warn("Failed to enqueue customer notification",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}
