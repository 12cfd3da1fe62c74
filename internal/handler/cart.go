package handler

import (
	"net/http"

	"sportzone/internal/cart"
	"sportzone/internal/dto"
	"sportzone/internal/middleware"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService  cart.Service
	orderService service.OrderService
}

func NewCartHandler(cartService cart.Service, orderService service.OrderService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
	}
}

func (h *CartHandler) Get(c echo.Context) error {
	resp, err := h.orderService.Cart(c.Request().Context(), middleware.CartSession(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Add(c echo.Context) error {
	ctx := c.Request().Context()

	req := dto.AddToCartRequest{Quantity: 1}
	if err := bind(c, &req); err != nil {
		return err
	}

	sess := middleware.CartSession(c)
	if _, err := h.cartService.Add(ctx, sess, req.VariantID, req.Quantity); err != nil {
		return err
	}

	resp, err := h.orderService.Cart(ctx, sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *CartHandler) Remove(c echo.Context) error {
	ctx := c.Request().Context()

	variantID, err := paramID(c, "variantID")
	if err != nil {
		return err
	}

	sess := middleware.CartSession(c)
	if err := h.cartService.Remove(ctx, sess, variantID); err != nil {
		return err
	}

	resp, err := h.orderService.Cart(ctx, sess)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
