package handler

import (
	"strconv"

	"sportzone/internal/apperr"
	"sportzone/internal/middleware"

	"github.com/labstack/echo/v4"
)

// paramID reads a numeric path parameter. Anything that is not a positive
// id is reported as a missing resource.
func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound(name)
	}
	return uint(id), nil
}

func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("body", "malformed request body")
	}
	return nil
}

// viewerID is zero for anonymous visitors.
func viewerID(c echo.Context) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}
