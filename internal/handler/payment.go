package handler

import (
	"io"
	"net/http"

	"sportzone/internal/apperr"
	"sportzone/internal/middleware"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

// maxNotificationSize bounds the notification body read into memory.
const maxNotificationSize = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
}

func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// HandleReturn is where the gateway sends the buyer back after paying.
func (h *PaymentHandler) HandleReturn(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	token := c.QueryParam("token")
	if token == "" {
		return apperr.Forbidden("missing return token")
	}

	order, err := h.paymentService.HandleReturn(c.Request().Context(), viewerID(c), middleware.CartSession(c), id, token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *PaymentHandler) Notification(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxNotificationSize))
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.paymentService.HandleNotification(c.Request().Context(), body); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}
