package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/model"
)

// dbTimeout bounds the storage work of a single request.
const dbTimeout = 5 * time.Second

// UserStore is the account storage used by the handlers.  Implemented by
// repository.UserRepo and repository.MemoryUsers.
type UserStore interface {
	Create(ctx context.Context, firstName, email, password string, cost int) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	UpdateProfile(ctx context.Context, id uint64, p model.Profile) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

// SessionStore persists issued tokens.  Implemented by
// repository.SessionRepo and repository.MemorySessions.
type SessionStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	Validate(ctx context.Context, tokenHash string) (uint64, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeOthers(ctx context.Context, userID uint64, keepHash string) error
}

// Validator adapts api.Validate to echo so handlers can call c.Validate.
type Validator struct{}

func (Validator) Validate(i interface{}) error { return api.Validate(i) }

func fail(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, api.ErrorResponse{Error: code, Message: msg})
}

// invalid answers 400 with the validation messages of err.
func invalid(c echo.Context, code string, err error) error {
	var verr *api.ValidationError
	if errors.As(err, &verr) {
		return fail(c, http.StatusBadRequest, code, verr.Error())
	}
	return fail(c, http.StatusBadRequest, code, "invalid request body")
}

// unauthorized answers 401 for routes reached without an identity.  It
// only fires when JWTAuth was not mounted in front of the handler.
func unauthorized(c echo.Context) error {
	return fail(c, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
}
