package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"order-hub/controllers"
)

// Controllers bundles the handlers wired into the router.
type Controllers struct {
	Order    *controllers.OrderController
	Payment  *controllers.PaymentController
	Webhook  *controllers.WebhookController
	Channel  *controllers.ChannelController
	Provider *controllers.ProviderController
}

// SetupRoutes registers the API surface. The idempotency guard applies to
// mutating order and payment routes; webhook routes are deduplicated by the
// provider reference instead.
func SetupRoutes(router *gin.Engine, c Controllers, idempotency gin.HandlerFunc) {
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	v1 := router.Group("/api/v1")

	orders := v1.Group("/orders")
	orders.Use(idempotency)
	{
		orders.POST("", c.Order.CreateOrder)
		orders.GET("", c.Order.GetOrdersByStatus)
		orders.GET("/:id", c.Order.GetOrder)
		orders.GET("/:id/with-payments", c.Order.GetOrderWithPayments)
		orders.GET("/:id/history", c.Order.GetOrderHistory)
		orders.PUT("/:id/status", c.Order.UpdateOrderStatus)
		orders.PATCH("/:id/metadata", c.Order.UpdateOrderMetadata)
		orders.GET("/source/:source/:source_order_id", c.Order.GetOrderBySource)
	}

	payments := v1.Group("/payments")
	payments.Use(idempotency)
	{
		payments.POST("", c.Payment.CreatePayment)
		payments.GET("", c.Payment.GetPaymentsByStatus)
		payments.GET("/:id", c.Payment.GetPayment)
		payments.GET("/:id/history", c.Payment.GetPaymentHistory)
		payments.PUT("/:id/status", c.Payment.UpdatePaymentStatus)
		payments.PATCH("/:id", c.Payment.UpdatePayment)
		payments.GET("/order/:order_id", c.Payment.GetPaymentsByOrder)
		payments.GET("/order/:order_id/summary", c.Payment.GetPaymentSummary)
	}

	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/provider", c.Webhook.HandleProviderEvent)
		webhooks.POST("/stripe", c.Webhook.HandleStripeWebhook)
		webhooks.POST("/simulate", c.Webhook.HandleSimulateWebhook)
	}

	channels := v1.Group("/channels")
	{
		channels.GET("/:channel/config", c.Channel.GetChannelConfig)
		channels.PUT("/:channel/config", c.Channel.UpdateChannelConfig)
	}

	providers := v1.Group("/providers")
	{
		providers.GET("", c.Provider.GetProviders)
		providers.POST("", c.Provider.CreateProvider)
		providers.GET("/:id", c.Provider.GetProvider)
		providers.PUT("/:id", c.Provider.UpdateProvider)
		providers.DELETE("/:id", c.Provider.DeleteProvider)
		providers.POST("/:id/test", c.Provider.TestProvider)
	}
}
