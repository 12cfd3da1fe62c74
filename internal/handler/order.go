package handler

import (
	"net/http"

	"sportzone/internal/dto"
	"sportzone/internal/middleware"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService   service.OrderService
	paymentService service.PaymentService
}

func NewOrderHandler(orderService service.OrderService, paymentService service.PaymentService) *OrderHandler {
	return &OrderHandler{
		orderService:   orderService,
		paymentService: paymentService,
	}
}

func (h *OrderHandler) CheckoutForm(c echo.Context) error {
	form, err := h.orderService.CheckoutForm(c.Request().Context(), middleware.CartSession(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, form)
}

func (h *OrderHandler) Checkout(c echo.Context) error {
	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.Request().Header.Get("Idempotency-Key")
	}

	resp, err := h.orderService.Checkout(c.Request().Context(), viewerID(c), middleware.CartSession(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.UserOrders(c.Request().Context(), viewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.OrderDetail(c.Request().Context(), viewerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Instructions(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	instructions, err := h.orderService.PaymentInstructions(c.Request().Context(), viewerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, instructions)
}

func (h *OrderHandler) ConfirmPayment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.ConfirmPayment(c.Request().Context(), viewerID(c), middleware.CartSession(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// ResumePayment hands back a gateway redirect for an order still waiting
// for payment.
func (h *OrderHandler) ResumePayment(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	redirectURL, err := h.paymentService.ResumePayment(c.Request().Context(), viewerID(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"redirect_url": redirectURL,
	})
}
