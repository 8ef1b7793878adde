package api

import (
	"time"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Orders    *OrderHandler
	Products  *ProductHandler
	Customers *CustomerHandler
	FeedLogs  *FeedLogHandler
}

// RegisterRoutes mounts the public routes and the token protected admin and delivery groups.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string) {
	e.GET("/orders/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "dairy-order-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})
	e.GET("/customers/lookup", h.Customers.LookupByPhone)

	auth := JWTMiddleware(jwtSecret)

	admin := []echo.MiddlewareFunc{auth, RequireRole(RoleAdmin)}
	e.POST("/orders", h.Orders.CreateOrder, admin...)
	e.GET("/orders/:id", h.Orders.GetOrder, admin...)
	e.PUT("/orders/:id", h.Orders.UpdateOrder, admin...)
	e.DELETE("/orders/:id", h.Orders.DeleteOrder, admin...)
	e.GET("/customers/:customerId/orders", h.Orders.GetCustomerOrders, admin...)
	e.GET("/products", h.Products.GetProducts, admin...)
	e.PUT("/products/:id/price", h.Products.UpdateProductPrice, admin...)
	e.POST("/products/warmup-cache", h.Products.PreWarmupCache, admin...)
	e.GET("/cows/:cowId/feed-logs/:date", h.FeedLogs.GetFeedLogs, admin...)
	e.PUT("/cows/:cowId/feed-logs/:date", h.FeedLogs.SaveFeedLogs, admin...)
	e.DELETE("/cows/:cowId/feed-logs/:date", h.FeedLogs.DeleteFeedLogs, admin...)

	delivery := e.Group("/delivery", auth, RequireRole(RoleAdmin, RoleDelivery))
	delivery.GET("/orders", h.Orders.GetDeliveryOrders)
	delivery.PATCH("/orders/:id/status", h.Orders.UpdateDeliveryStatus)
}
