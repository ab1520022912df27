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
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions SessionStore
	Log      hclog.Logger
}

func NewAuthHandler(cfg config.Config, u UserStore, s SessionStore, logger hclog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Sessions: s, Log: logger}
}

// Signup handles POST /auth/signin: create an account.  The client logs
// in separately afterwards.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req api.SignupRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeValidation, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, api.CodeValidation, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.FirstName, req.Email, req.Password, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, api.CodeEmailExists, "an account with this email already exists")
		}
		h.Log.Error("create user failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "create user failed")
	}
	h.Log.Info("user registered", "user_id", uid)
	return c.JSON(http.StatusCreated, api.MessageResponse{Message: "Account created successfully"})
}

// Login handles POST /auth/login: verify credentials and issue an access
// token backed by a new session row.
func (h *AuthHandler) Login(c echo.Context) error {
	var req api.LoginRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeValidation, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, api.CodeValidation, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return fail(c, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
		}
		h.Log.Error("load user failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "query failed")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		h.Log.Error("issue access token failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "issue access failed")
	}
	if err := h.Sessions.Store(ctx, u.ID, utils.HashTokenID(access.ID), access.Exp); err != nil {
		h.Log.Error("save session failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "save session failed")
	}

	return c.JSON(http.StatusOK, api.TokenResponse{
		Token:     access.Token,
		ExpiresAt: access.Exp,
		Message:   "Login successful",
	})
}

// Logout handles POST /auth/logout: revoke the session of the token used
// for this request.  Other sessions of the user stay valid.
func (h *AuthHandler) Logout(c echo.Context) error {
	jti := middleware.TokenID(c)
	if jti == "" {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()
	if err := h.Sessions.Revoke(ctx, utils.HashTokenID(jti)); err != nil {
		h.Log.Error("revoke session failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "logout failed")
	}
	return c.JSON(http.StatusOK, api.MessageResponse{Message: "Logged out"})
}
