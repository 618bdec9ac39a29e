package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"bakery/internal/errors"
	"bakery/internal/model"
	"bakery/internal/service"
)

// OrderHandler handles order and sales report endpoints.
type OrderHandler struct {
	orders  service.OrderService
	reports service.ReportService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, reports service.ReportService) *OrderHandler {
	return &OrderHandler{orders: orders, reports: reports}
}

// OrderItemRequest is one cart line.
type OrderItemRequest struct {
	ProductID uint            `json:"product_id" validate:"required"`
	VariantID *uint           `json:"variant_id"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// PlaceOrderRequest is a checkout request. UserID defaults to the caller.
type PlaceOrderRequest struct {
	UserID uint               `json:"user_id"`
	Total  decimal.Decimal    `json:"total"`
	Items  []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Place godoc
// @Summary Place an order
// @Description Checks stock, records the order and decrements stock atomically. Clients may only order for themselves.
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PlaceOrderRequest true "Cart"
// @Success 201 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) Place(c echo.Context) error {
	claims := Claims(c)
	if claims == nil {
		return respondError(c, errors.ErrUnauthenticated)
	}
	var req PlaceOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	userID := req.UserID
	if userID == 0 {
		userID = claims.UserID
	}
	if claims.Role == model.RoleClient && userID != claims.UserID {
		return respondError(c, errors.ErrForbidden)
	}

	in := service.PlaceOrderInput{
		UserID:        userID,
		DeclaredTotal: req.Total,
		Items:         make([]service.OrderItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		in.Items = append(in.Items, service.OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order, err := h.orders.PlaceOrder(c.Request().Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// List godoc
// @Summary List orders, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	orders, err := h.orders.ListOrders(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Get godoc
// @Summary Get order by id
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.Order
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	order, err := h.orders.GetOrder(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// Mine godoc
// @Summary List the caller's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Order
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders/mine [get]
func (h *OrderHandler) Mine(c echo.Context) error {
	claims := Claims(c)
	if claims == nil {
		return respondError(c, errors.ErrUnauthenticated)
	}
	orders, err := h.orders.ListOrdersForUser(c.Request().Context(), claims.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// Last15Days godoc
// @Summary Daily sales for the last 15 days
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.DailySalesReport
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders/stats/last-15-days [get]
func (h *OrderHandler) Last15Days(c echo.Context) error {
	report, err := h.reports.SalesLastNDays(c.Request().Context(), 15)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// FirstHalf godoc
// @Summary Monthly sales January to June
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} service.MonthlySalesReport
// @Failure 400 {object} errors.ErrorResponse
// @Router /orders/stats/first-half [get]
func (h *OrderHandler) FirstHalf(c echo.Context) error {
	year := 0
	if raw := c.QueryParam("year"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return respondError(c, errors.Invalid("year", "must be a positive year"))
		}
		year = v
	}
	report, err := h.reports.SalesFirstHalfOfYear(c.Request().Context(), year)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// Summary godoc
// @Summary Order totals overview
// @Tags reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Summary
// @Router /orders/stats/summary [get]
func (h *OrderHandler) Summary(c echo.Context) error {
	summary, err := h.reports.GeneralSummary(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}
