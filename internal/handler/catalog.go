package handler

import (
	"net/http"

	"sportzone/internal/dto"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	reviewService  service.ReviewService
}

func NewCatalogHandler(catalogService service.CatalogService, reviewService service.ReviewService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		reviewService:  reviewService,
	}
}

func (h *CatalogHandler) Home(c echo.Context) error {
	home, err := h.catalogService.Home(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, home)
}

func (h *CatalogHandler) Categories(c echo.Context) error {
	categories, err := h.catalogService.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	var q dto.ProductListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return err
	}

	products, err := h.catalogService.ListProducts(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

func (h *CatalogHandler) ProductDetail(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.catalogService.ProductDetail(c.Request().Context(), id, viewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *CatalogHandler) SubmitReview(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req dto.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.reviewService.Submit(c.Request().Context(), viewerID(c), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}
