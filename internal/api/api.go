package api

import (
	"context"
	"errors"
	"os"
	"time"

	"dairy-order-service/internal/entity"
	"dairy-order-service/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type OrderServicer interface {
	CreateOrder(ctx context.Context, draft *entity.OrderDraft) (*entity.Order, error)
	UpdateOrder(ctx context.Context, id string, patch *entity.OrderPatch) (*entity.Order, error)
	UpdateDeliveryStatus(ctx context.Context, id string, status entity.OrderStatus) (*entity.Order, error)
	DeleteOrder(ctx context.Context, id string) (bool, error)
	GetOrderByID(ctx context.Context, id string) (*entity.Order, error)
	GetOrdersForCustomer(ctx context.Context, customerID string) ([]*entity.Order, error)
	GetOrdersForDeliveryDate(ctx context.Context, date string) ([]*entity.Order, error)
}

type ProductServicer interface {
	GetProducts(ctx context.Context) ([]*entity.Product, error)
	UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) (*entity.Product, error)
	PreWarmCache(ctx context.Context) (int, error)
}

type CustomerServicer interface {
	FindByPhone(ctx context.Context, phone string) (*entity.Customer, []*entity.Order, error)
}

type FeedLogServicer interface {
	SaveDailyFeedLogs(ctx context.Context, cowID, date string, entries []entity.FeedInput, notes string) ([]entity.FeedLog, error)
	DeleteFeedLogsForDay(ctx context.Context, cowID, date string) (bool, error)
	GetFeedLogs(ctx context.Context, cowID, date string) ([]entity.FeedLog, error)
}

// errorResponse maps service errors to status codes. Unexpected errors are not echoed to the client.
func errorResponse(c echo.Context, err error) error {
	var validationErr *service.ValidationError
	var duplicateErr *service.DuplicateItemError

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(400, map[string]interface{}{"error": "Invalid request payload", "fields": validationErr.Fields})
	case errors.As(err, &duplicateErr):
		return c.JSON(409, map[string]string{"error": duplicateErr.Error()})
	case errors.Is(err, service.ErrDuplicateRequest):
		return c.JSON(409, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(404, map[string]string{"error": "Not found"})
	}

	logger.Error().Err(err).Msgf("%s %s failed", c.Request().Method, c.Path())
	return c.JSON(500, map[string]string{"error": "an unexpected error occurred"})
}

type OrderHandler struct {
	orderService OrderServicer
	now          func() time.Time
}

func NewOrderHandler(orderService OrderServicer) *OrderHandler {
	return &OrderHandler{orderService: orderService, now: time.Now}
}

// CreateOrder --> POST /orders
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	draft := entity.OrderDraft{}
	if err := c.Bind(&draft); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	draft.IdempotentKey = c.Request().Header.Get("Idempotent-Key")

	createdOrder, err := h.orderService.CreateOrder(ctx, &draft)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(201, createdOrder)
}

// GetOrder --> GET /orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	order, err := h.orderService.GetOrderByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, order)
}

// UpdateOrder --> PUT /orders/:id
func (h *OrderHandler) UpdateOrder(c echo.Context) error {
	patch := entity.OrderPatch{}
	if err := c.Bind(&patch); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	updatedOrder, err := h.orderService.UpdateOrder(c.Request().Context(), c.Param("id"), &patch)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.JSON(200, updatedOrder)
}

// DeleteOrder --> DELETE /orders/:id
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	deleted, err := h.orderService.DeleteOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return errorResponse(c, err)
	}
	if !deleted {
		return c.JSON(404, map[string]string{"error": "Not found"})
	}
	return c.NoContent(204)
}

// GetCustomerOrders --> GET /customers/:customerId/orders
func (h *OrderHandler) GetCustomerOrders(c echo.Context) error {
	orders, err := h.orderService.GetOrdersForCustomer(c.Request().Context(), c.Param("customerId"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, orders)
}

// GetDeliveryOrders --> GET /delivery/orders?date=yyyy-MM-dd, today when date is omitted
func (h *OrderHandler) GetDeliveryOrders(c echo.Context) error {
	date := c.QueryParam("date")
	if date == "" {
		date = h.now().Format(entity.DateLayout)
	}

	orders, err := h.orderService.GetOrdersForDeliveryDate(c.Request().Context(), date)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]interface{}{"date": date, "orders": orders})
}

// UpdateDeliveryStatus --> PATCH /delivery/orders/:id/status
func (h *OrderHandler) UpdateDeliveryStatus(c echo.Context) error {
	body := struct {
		Status entity.OrderStatus `json:"status"`
	}{}
	if err := c.Bind(&body); err != nil || !body.Status.Valid() {
		return c.JSON(400, map[string]string{"error": "Invalid status"})
	}

	claims := claimsFrom(c)
	if claims == nil || !canSetStatus(claims.Role, body.Status) {
		return c.JSON(403, map[string]string{"error": "Status not allowed for this role"})
	}

	order, err := h.orderService.UpdateDeliveryStatus(c.Request().Context(), c.Param("id"), body.Status)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, order)
}

type ProductHandler struct {
	productService ProductServicer
}

func NewProductHandler(productService ProductServicer) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts --> GET /products
func (h *ProductHandler) GetProducts(c echo.Context) error {
	products, err := h.productService.GetProducts(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, products)
}

// UpdateProductPrice --> PUT /products/:id/price
func (h *ProductHandler) UpdateProductPrice(c echo.Context) error {
	body := struct {
		PricePerUnit *decimal.Decimal `json:"price_per_unit"`
	}{}
	if err := c.Bind(&body); err != nil || body.PricePerUnit == nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	product, err := h.productService.UpdateProductPrice(c.Request().Context(), c.Param("id"), *body.PricePerUnit)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, product)
}

// PreWarmupCache --> POST /products/warmup-cache
func (h *ProductHandler) PreWarmupCache(c echo.Context) error {
	cached, err := h.productService.PreWarmCache(c.Request().Context())
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]int{"cached": cached})
}

type CustomerHandler struct {
	customerService CustomerServicer
}

func NewCustomerHandler(customerService CustomerServicer) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// LookupByPhone --> GET /customers/lookup?phone=
func (h *CustomerHandler) LookupByPhone(c echo.Context) error {
	customer, orders, err := h.customerService.FindByPhone(c.Request().Context(), c.QueryParam("phone"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, map[string]interface{}{"customer": customer, "orders": orders})
}

type FeedLogHandler struct {
	feedLogService FeedLogServicer
}

func NewFeedLogHandler(feedLogService FeedLogServicer) *FeedLogHandler {
	return &FeedLogHandler{feedLogService: feedLogService}
}

// GetFeedLogs --> GET /cows/:cowId/feed-logs/:date
func (h *FeedLogHandler) GetFeedLogs(c echo.Context) error {
	logs, err := h.feedLogService.GetFeedLogs(c.Request().Context(), c.Param("cowId"), c.Param("date"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, logs)
}

// SaveFeedLogs --> PUT /cows/:cowId/feed-logs/:date
func (h *FeedLogHandler) SaveFeedLogs(c echo.Context) error {
	body := struct {
		Items []entity.FeedInput `json:"items"`
		Notes string             `json:"notes"`
	}{}
	if err := c.Bind(&body); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	logs, err := h.feedLogService.SaveDailyFeedLogs(c.Request().Context(), c.Param("cowId"), c.Param("date"), body.Items, body.Notes)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(200, logs)
}

// DeleteFeedLogs --> DELETE /cows/:cowId/feed-logs/:date
func (h *FeedLogHandler) DeleteFeedLogs(c echo.Context) error {
	deleted, err := h.feedLogService.DeleteFeedLogsForDay(c.Request().Context(), c.Param("cowId"), c.Param("date"))
	if err != nil {
		return errorResponse(c, err)
	}
	if !deleted {
		return c.JSON(404, map[string]string{"error": "No feed logs for this day"})
	}
	return c.NoContent(204)
}
