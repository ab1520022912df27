package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/middleware"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/utils"
)

// ProfileHandler serves the /user endpoints of the logged in user.
type ProfileHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
	Log      hclog.Logger
}

func NewProfileHandler(cfg config.Config, u UserStore, s SessionStore, logger hclog.Logger) *ProfileHandler {
	return &ProfileHandler{Cfg: cfg, Users: u, Sessions: s, Log: logger}
}

// Get handles GET /user.
func (h *ProfileHandler) Get(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(http.StatusOK, api.UserResponse{User: api.UserFrom(u)})
}

// Update handles PUT /user.
func (h *ProfileHandler) Update(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req api.ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeValidation, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, api.CodeValidation, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	err := h.Users.UpdateProfile(ctx, uid, model.Profile{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Country:   req.Country,
		Email:     req.Email,
		Contact:   req.Contact,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, api.CodeEmailExists, "an account with this email already exists")
		}
		return h.userError(c, err)
	}
	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return h.userError(c, err)
	}
	return c.JSON(http.StatusOK, api.ProfileResponse{Message: "Profile updated successfully", User: api.UserFrom(u)})
}

// ResetPassword handles PUT /user/resetpassword.  The current password
// must match; on success every other session of the user is revoked.
func (h *ProfileHandler) ResetPassword(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req api.PasswordReset
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeValidation, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, api.CodeValidation, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		return h.userError(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return fail(c, http.StatusUnauthorized, api.CodeInvalidCredentials, "current password is incorrect")
	}
	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		h.Log.Error("hash password failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "update password failed")
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return h.userError(c, err)
	}
	if err := h.Sessions.RevokeOthers(ctx, uid, utils.HashTokenID(middleware.TokenID(c))); err != nil {
		h.Log.Warn("revoke other sessions failed", "user_id", uid, "error", err)
	}
	return c.JSON(http.StatusOK, api.MessageResponse{Message: "Password updated successfully"})
}

// userError maps lookup failures.  A token whose user is gone is treated
// like an invalid session.
func (h *ProfileHandler) userError(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrUserNotFound) {
		return unauthorized(c)
	}
	h.Log.Error("user storage failed", "error", err)
	return fail(c, http.StatusInternalServerError, api.CodeInternal, "internal error")
}
