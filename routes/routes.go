package routes

import (
	"time"

	"storefront-backend/controllers"
	"storefront-backend/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Controllers struct {
	Cart     *controllers.CartController
	Checkout *controllers.CheckoutController
	Orders   *controllers.OrderController
	Admin    *controllers.AdminController
	Webhooks *controllers.WebhookController
	Cron     *controllers.CronController
}

// Register wires every route group. Webhooks and cron sit outside user
// authentication; they carry their own verification.
func Register(r *gin.Engine, ctrl Controllers, jwtSecret []byte) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/webhooks/:gateway", ctrl.Webhooks.Handle)
	r.GET("/cron/cleanup", ctrl.Cron.Cleanup)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(rate.Every(time.Second/10), 30))
	api.Use(middleware.Authenticate(jwtSecret))
	{
		cart := api.Group("/cart")
		{
			cart.GET("", ctrl.Cart.GetCart)
			cart.POST("/items", ctrl.Cart.AddItem)
			cart.DELETE("/items/:product_id", ctrl.Cart.RemoveItem)
			cart.DELETE("", ctrl.Cart.ClearCart)
		}

		orders := api.Group("/orders")
		{
			orders.POST("/checkout", ctrl.Checkout.Checkout)
			orders.GET("", ctrl.Orders.ListMyOrders)
			orders.GET("/:id", ctrl.Orders.GetOrder)
			orders.GET("/verify-payment", ctrl.Orders.VerifyPayment)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/orders", ctrl.Admin.ListOrders)
			admin.PATCH("/orders/:id/status", ctrl.Admin.UpdateStatus)
			admin.POST("/orders/:id/refund", ctrl.Admin.Refund)
			admin.POST("/orders/:id/cancel", ctrl.Admin.Cancel)
		}
	}
}
