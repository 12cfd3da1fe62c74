package handler

import (
	"net/http"

	"sportzone/internal/dto"
	"sportzone/internal/middleware"
	"sportzone/internal/model"
	"sportzone/internal/service"

	"github.com/labstack/echo/v4"
)

type AccountHandler struct {
	accountService service.AccountService
	sessions       *middleware.Sessions
}

func NewAccountHandler(accountService service.AccountService, sessions *middleware.Sessions) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		sessions:       sessions,
	}
}

func userView(user *model.User) dto.UserView {
	return dto.UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		IsStaff:  user.IsStaff,
		IsActive: user.IsActive,
	}
}

// Signup registers the account and signs it in straight away.
func (h *AccountHandler) Signup(c echo.Context) error {
	var req dto.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userView(user))
}

func (h *AccountHandler) Login(c echo.Context) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	if err := h.sessions.Login(c, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userView(user))
}

func (h *AccountHandler) Logout(c echo.Context) error {
	if err := h.sessions.Logout(c); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AccountHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, userView(middleware.CurrentUser(c)))
}

func (h *AccountHandler) Profile(c echo.Context) error {
	profile, err := h.accountService.Profile(c.Request().Context(), viewerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req dto.ProfileUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.accountService.UpdateProfile(c.Request().Context(), viewerID(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.accountService.ChangePassword(c.Request().Context(), viewerID(c), req); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
