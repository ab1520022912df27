package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/registry"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/service"
)

func newServer(t *testing.T, seats int) *echo.Echo {
	t.Helper()
	e := echo.New()
	RegisterRoutes(e, Deps{
		Cfg:      config.Config{JWTSecret: "router-test", AccessTTLMin: 5, BcryptCost: 4},
		Users:    repository.NewMemoryUsers(),
		Sessions: repository.NewMemorySessions(),
		Alloc:    service.NewAllocator(registry.NewMemory(model.Layout(seats, 7)), queue.Noop{}, nil),
	})
	return e
}

func call(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[api.ErrorResponse](t, rec).Error
}

func register(t *testing.T, e *echo.Echo, email string) string {
	t.Helper()
	rec := call(e, http.MethodPost, "/auth/signin", "", api.SignupRequest{FirstName: "Ann", Email: email, Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return login(t, e, email, "secret1")
}

func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	rec := call(e, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tok := decode[api.TokenResponse](t, rec)
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func TestHealth(t *testing.T) {
	e := newServer(t, 10)
	rec := call(e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestSignup(t *testing.T) {
	e := newServer(t, 10)

	rec := call(e, http.MethodPost, "/auth/signin", "", api.SignupRequest{FirstName: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Account created successfully", decode[api.MessageResponse](t, rec).Message)

	rec = call(e, http.MethodPost, "/auth/signin", "", api.SignupRequest{FirstName: "Ann", Email: "ANN@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeEmailExists, errorCode(t, rec))

	rec = call(e, http.MethodPost, "/auth/signin", "", api.SignupRequest{FirstName: "Bob", Email: "not-an-email", Password: "secret1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeValidation, errorCode(t, rec))

	rec = call(e, http.MethodPost, "/auth/signin", "", api.SignupRequest{FirstName: "Bob", Email: "bob@example.com", Password: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newServer(t, 10)
	register(t, e, "ann@example.com")

	for _, req := range []api.LoginRequest{
		{Email: "ann@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "secret1"},
	} {
		rec := call(e, http.MethodPost, "/auth/login", "", req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, api.CodeInvalidCredentials, errorCode(t, rec))
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e := newServer(t, 10)
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/seats"},
		{http.MethodGet, "/seats/1"},
		{http.MethodGet, "/user"},
		{http.MethodPut, "/user"},
		{http.MethodPut, "/user/resetpassword"},
		{http.MethodGet, "/booking"},
		{http.MethodPost, "/booking/book"},
		{http.MethodDelete, "/booking/cancel"},
		{http.MethodPost, "/auth/logout"},
	} {
		rec := call(e, r.method, r.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", r.method, r.path)
		assert.Equal(t, api.CodeUnauthorized, errorCode(t, rec))
	}
}

func TestSeats(t *testing.T) {
	e := newServer(t, 10)
	tok := register(t, e, "ann@example.com")

	rec := call(e, http.MethodGet, "/seats", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	seats := decode[api.SeatsResponse](t, rec).Seats
	require.Len(t, seats, 10)
	for i, s := range seats {
		assert.Equal(t, uint64(i+1), s.ID)
		assert.True(t, s.Available())
	}
	assert.Equal(t, uint32(2), seats[7].RowNumber)
	assert.Equal(t, uint32(1), seats[7].SeatNumber)

	rec = call(e, http.MethodGet, "/seats/3", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(3), decode[api.SeatResponse](t, rec).Seat.ID)

	rec = call(e, http.MethodGet, "/seats/99", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, api.CodeNotFound, errorCode(t, rec))

	rec = call(e, http.MethodGet, "/seats/abc", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBooking_Flow(t *testing.T) {
	e := newServer(t, 10)
	ann := register(t, e, "ann@example.com")
	bob := register(t, e, "bob@example.com")

	rec := call(e, http.MethodPost, "/booking/book", ann, map[string]interface{}{"numOfSeats": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booked := decode[api.BookResponse](t, rec)
	assert.Equal(t, "3 seats booked successfully", booked.Message)
	require.Len(t, booked.Seats, 3)
	for i, s := range booked.Seats {
		assert.Equal(t, uint64(i+1), s.ID)
		assert.Equal(t, model.StatusReserved, s.Status)
	}

	// numeric strings are accepted
	rec = call(e, http.MethodPost, "/booking/book", bob, map[string]interface{}{"numOfSeats": "2"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []uint64{4, 5}, seatIDs(decode[api.BookResponse](t, rec).Seats))

	rec = call(e, http.MethodGet, "/booking", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []uint64{1, 2, 3}, seatIDs(decode[api.SeatsResponse](t, rec).Seats))

	// 5 left, 6 requested: nothing changes
	rec = call(e, http.MethodPost, "/booking/book", bob, map[string]interface{}{"numOfSeats": 6})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeInsufficientSeats, errorCode(t, rec))

	rec = call(e, http.MethodDelete, "/booking/cancel", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[api.CancelResponse](t, rec).Released)

	rec = call(e, http.MethodDelete, "/booking/cancel", ann, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[api.CancelResponse](t, rec).Released)

	rec = call(e, http.MethodGet, "/seats", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var reserved []uint64
	for _, s := range decode[api.SeatsResponse](t, rec).Seats {
		if !s.Available() {
			reserved = append(reserved, s.ID)
		}
	}
	assert.Equal(t, []uint64{4, 5}, reserved)
}

func TestBooking_InvalidCount(t *testing.T) {
	e := newServer(t, 10)
	tok := register(t, e, "ann@example.com")

	for _, body := range []interface{}{
		map[string]interface{}{"numOfSeats": 0},
		map[string]interface{}{"numOfSeats": 8},
		map[string]interface{}{"numOfSeats": -1},
		map[string]interface{}{"numOfSeats": "three"},
		map[string]interface{}{},
	} {
		rec := call(e, http.MethodPost, "/booking/book", tok, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "%v", body)
		assert.Equal(t, api.CodeInvalidCount, errorCode(t, rec))
	}

	rec := call(e, http.MethodGet, "/booking", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[api.SeatsResponse](t, rec).Seats)
}

func TestProfile(t *testing.T) {
	e := newServer(t, 10)
	tok := register(t, e, "ann@example.com")
	register(t, e, "bob@example.com")

	rec := call(e, http.MethodGet, "/user", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	u := decode[api.UserResponse](t, rec).User
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, "ann@example.com", u.Email)

	rec = call(e, http.MethodPut, "/user", tok, api.ProfileUpdate{
		FirstName: "Anna", LastName: "Smith", Country: "NZ", Email: "anna@example.com", Contact: "+64 21 000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[api.ProfileResponse](t, rec).User
	assert.Equal(t, "Smith", updated.LastName)
	assert.Equal(t, "anna@example.com", updated.Email)

	rec = call(e, http.MethodPut, "/user", tok, api.ProfileUpdate{FirstName: "Anna", Email: "bob@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, api.CodeEmailExists, errorCode(t, rec))

	rec = call(e, http.MethodPut, "/user", tok, api.ProfileUpdate{Email: "anna@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetPassword(t *testing.T) {
	e := newServer(t, 10)
	tok := register(t, e, "ann@example.com")
	other := login(t, e, "ann@example.com", "secret1")

	rec := call(e, http.MethodPut, "/user/resetpassword", tok, api.PasswordReset{
		CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "different",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, api.CodeValidation, errorCode(t, rec))

	rec = call(e, http.MethodPut, "/user/resetpassword", tok, api.PasswordReset{
		CurrentPassword: "wrong", NewPassword: "secret2", ConfirmPassword: "secret2",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, api.CodeInvalidCredentials, errorCode(t, rec))

	rec = call(e, http.MethodPut, "/user/resetpassword", tok, api.PasswordReset{
		CurrentPassword: "secret1", NewPassword: "secret2", ConfirmPassword: "secret2",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the calling session survives, the other one does not
	assert.Equal(t, http.StatusOK, call(e, http.MethodGet, "/user", tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/user", other, nil).Code)

	rec = call(e, http.MethodPost, "/auth/login", "", api.LoginRequest{Email: "ann@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	login(t, e, "ann@example.com", "secret2")
}

func TestLogout(t *testing.T) {
	e := newServer(t, 10)
	tok := register(t, e, "ann@example.com")

	rec := call(e, http.MethodPost, "/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodGet, "/seats", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func seatIDs(seats []api.Seat) []uint64 {
	out := make([]uint64, len(seats))
	for i, s := range seats {
		out[i] = s.ID
	}
	return out
}
