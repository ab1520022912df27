package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"errors"
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/utils"
)

// SessionValidator resolves a hashed token id to its owning user.  It must
// return repository.ErrSessionNotFound for unknown, revoked or expired
// sessions.
type SessionValidator interface {
	Validate(ctx context.Context, tokenHash string) (uint64, error)
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: api.CodeUnauthorized, Message: msg})
}

// JWTAuth returns an Echo middleware that validates a Bearer access token,
// checks that its session is still active and injects the user id and
// token id into the request context.  Handlers read them back with
// UserID(c) and TokenID(c).
func JWTAuth(secret string, sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// A valid header starts with "Bearer " followed by the JWT.
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			// Signature, algorithm and expiry are checked here.
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c, "invalid token")
			}

			// The session row is what logout and password changes revoke.
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			uid, err := sessions.Validate(ctx, utils.HashTokenID(claims.ID))
			if err != nil {
				if errors.Is(err, repository.ErrSessionNotFound) {
					return unauthorized(c, "session expired, please log in again")
				}
				return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: api.CodeInternal, Message: "session lookup failed"})
			}
			if uid != claims.UserID {
				return unauthorized(c, "invalid token")
			}

			setIdentity(c, claims.UserID, claims.ID)
			return next(c)
		}
	}
}
