package handler

import (
	"net/http"

	"sportzone/internal/dto"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

// PanelHandler serves the staff back office. Every route sits behind
// middleware.RequireStaff.
type PanelHandler struct {
	panelService service.PanelService
}

func NewPanelHandler(panelService service.PanelService) *PanelHandler {
	return &PanelHandler{
		panelService: panelService,
	}
}

func bindPanelQuery(c echo.Context) (dto.PanelListQuery, error) {
	var q dto.PanelListQuery
	err := (&echo.DefaultBinder{}).BindQueryParams(c, &q)
	return q, err
}

func (h *PanelHandler) Dashboard(c echo.Context) error {
	dashboard, err := h.panelService.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

// -------- products --------

func (h *PanelHandler) Products(c echo.Context) error {
	q, err := bindPanelQuery(c)
	if err != nil {
		return err
	}

	page, err := h.panelService.Products(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PanelHandler) Product(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.panelService.Product(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *PanelHandler) CreateProduct(c echo.Context) error {
	var in dto.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}

	product, err := h.panelService.CreateProduct(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}

func (h *PanelHandler) UpdateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.ProductInput
	if err := bind(c, &in); err != nil {
		return err
	}

	product, err := h.panelService.UpdateProduct(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

func (h *PanelHandler) DeleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.panelService.DeleteProduct(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PanelHandler) AddVariant(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.VariantInput
	if err := bind(c, &in); err != nil {
		return err
	}

	variant, err := h.panelService.AddVariant(c.Request().Context(), productID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, variant)
}

func (h *PanelHandler) UpdateVariant(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	variantID, err := paramID(c, "variantID")
	if err != nil {
		return err
	}

	var in dto.VariantInput
	if err := bind(c, &in); err != nil {
		return err
	}

	variant, err := h.panelService.UpdateVariant(c.Request().Context(), productID, variantID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, variant)
}

func (h *PanelHandler) DeleteVariant(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	variantID, err := paramID(c, "variantID")
	if err != nil {
		return err
	}

	if err := h.panelService.DeleteVariant(c.Request().Context(), productID, variantID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PanelHandler) AddImage(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.ImageInput
	if err := bind(c, &in); err != nil {
		return err
	}

	image, err := h.panelService.AddImage(c.Request().Context(), productID, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, image)
}

func (h *PanelHandler) DeleteImage(c echo.Context) error {
	productID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	imageID, err := paramID(c, "imageID")
	if err != nil {
		return err
	}

	if err := h.panelService.DeleteImage(c.Request().Context(), productID, imageID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -------- categories --------

func (h *PanelHandler) Categories(c echo.Context) error {
	categories, err := h.panelService.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *PanelHandler) CreateCategory(c echo.Context) error {
	var in dto.CategoryInput
	if err := bind(c, &in); err != nil {
		return err
	}

	category, err := h.panelService.CreateCategory(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category)
}

func (h *PanelHandler) DeleteCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.panelService.DeleteCategory(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -------- discounts --------

func (h *PanelHandler) Discounts(c echo.Context) error {
	discounts, err := h.panelService.Discounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, discounts)
}

func (h *PanelHandler) CreateDiscount(c echo.Context) error {
	var in dto.DiscountInput
	if err := bind(c, &in); err != nil {
		return err
	}

	discount, err := h.panelService.CreateDiscount(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, discount)
}

func (h *PanelHandler) UpdateDiscount(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.DiscountInput
	if err := bind(c, &in); err != nil {
		return err
	}

	discount, err := h.panelService.UpdateDiscount(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, discount)
}

func (h *PanelHandler) DeleteDiscount(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.panelService.DeleteDiscount(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// -------- users --------

func (h *PanelHandler) Users(c echo.Context) error {
	q, err := bindPanelQuery(c)
	if err != nil {
		return err
	}

	page, err := h.panelService.Users(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PanelHandler) UpdateUser(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.UserUpdateInput
	if err := bind(c, &in); err != nil {
		return err
	}

	user, err := h.panelService.UpdateUser(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// -------- orders --------

func (h *PanelHandler) Orders(c echo.Context) error {
	q, err := bindPanelQuery(c)
	if err != nil {
		return err
	}

	page, err := h.panelService.Orders(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

func (h *PanelHandler) Order(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.panelService.Order(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *PanelHandler) SetOrderStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.OrderStatusInput
	if err := bind(c, &in); err != nil {
		return err
	}

	order, err := h.panelService.SetOrderStatus(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

func (h *PanelHandler) MarkOrderCompleted(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.panelService.MarkOrderCompleted(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// -------- payment methods --------

func (h *PanelHandler) PaymentMethods(c echo.Context) error {
	methods, err := h.panelService.PaymentMethods(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, methods)
}

func (h *PanelHandler) CreatePaymentMethod(c echo.Context) error {
	var in dto.PaymentMethodInput
	if err := bind(c, &in); err != nil {
		return err
	}

	method, err := h.panelService.CreatePaymentMethod(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, method)
}

func (h *PanelHandler) UpdatePaymentMethod(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var in dto.PaymentMethodInput
	if err := bind(c, &in); err != nil {
		return err
	}

	method, err := h.panelService.UpdatePaymentMethod(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, method)
}
