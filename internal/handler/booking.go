package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/middleware"
	"github.com/iliyamo/seat-booking/internal/registry"
	"github.com/iliyamo/seat-booking/internal/repository"
	"github.com/iliyamo/seat-booking/internal/service"
)

// BookingHandler turns booking requests into allocator calls.
type BookingHandler struct {
	Alloc *service.Allocator
	Log   hclog.Logger
}

func NewBookingHandler(a *service.Allocator, logger hclog.Logger) *BookingHandler {
	return &BookingHandler{Alloc: a, Log: logger}
}

// Book handles POST /booking/book.  numOfSeats may be a number or a
// numeric string.
func (h *BookingHandler) Book(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	var req api.BookRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, api.CodeInvalidCount, "numOfSeats must be a whole number")
	}
	if err := c.Validate(&req); err != nil {
		return invalid(c, api.CodeInvalidCount, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	seats, err := h.Alloc.Reserve(ctx, uid, int(req.NumOfSeats))
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCount):
		return fail(c, http.StatusBadRequest, api.CodeInvalidCount,
			fmt.Sprintf("numOfSeats must be between 1 and %d", h.Alloc.MaxParty()))
	case errors.Is(err, registry.ErrInsufficientSeats):
		return fail(c, http.StatusConflict, api.CodeInsufficientSeats, "not enough seats available")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, api.CodeConflict, "seats are in high demand, please try again")
	default:
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "booking failed")
	}

	msg := fmt.Sprintf("%d seats booked successfully", len(seats))
	if len(seats) == 1 {
		msg = "1 seat booked successfully"
	}
	return c.JSON(http.StatusCreated, api.BookResponse{Message: msg, Seats: api.SeatsFrom(seats)})
}

// Cancel handles DELETE /booking/cancel.  Cancelling with nothing booked
// succeeds with released = 0.
func (h *BookingHandler) Cancel(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	n, err := h.Alloc.Cancel(ctx, uid)
	if err != nil {
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "cancel failed")
	}
	msg := "Booking cancelled successfully"
	if n == 0 {
		msg = "No booking to cancel"
	}
	return c.JSON(http.StatusOK, api.CancelResponse{Message: msg, Released: n})
}

// Mine handles GET /booking: the seats held by the caller.
func (h *BookingHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	seats, err := h.Alloc.Held(ctx, uid)
	if err != nil {
		h.Log.Error("list booking failed", "user_id", uid, "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "database error")
	}
	return c.JSON(http.StatusOK, api.SeatsResponse{Seats: api.SeatsFrom(seats)})
}
