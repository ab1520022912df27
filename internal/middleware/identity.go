package middleware

// identity.go holds the helpers that store and read the authenticated
// caller on the Echo context.  JWTAuth writes them; handlers and the rate
// limiter read them.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	ctxUserID  = "user_id"
	ctxTokenID = "token_id"
)

func setIdentity(c echo.Context, userID uint64, tokenID string) {
	c.Set(ctxUserID, userID)
	c.Set(ctxTokenID, tokenID)
}

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// TokenID returns the jti of the access token used for this request.
func TokenID(c echo.Context) string {
	s, _ := c.Get(ctxTokenID).(string)
	return s
}

// userKey returns the user id as a string, or "anon" when not logged in.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
