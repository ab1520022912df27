package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/hashicorp/go-hclog"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/registry"
	"github.com/iliyamo/seat-booking/internal/service"
)

// SeatHandler exposes the seat registry read side.
type SeatHandler struct {
	Seats *service.Allocator
	Log   hclog.Logger
}

func NewSeatHandler(a *service.Allocator, logger hclog.Logger) *SeatHandler {
	return &SeatHandler{Seats: a, Log: logger}
}

// List handles GET /seats: the whole pool ordered by id.
func (h *SeatHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	seats, err := h.Seats.Snapshot(ctx)
	if err != nil {
		h.Log.Error("list seats failed", "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "database error")
	}
	return c.JSON(http.StatusOK, api.SeatsResponse{Seats: api.SeatsFrom(seats)})
}

// Get handles GET /seats/:id.
func (h *SeatHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return fail(c, http.StatusBadRequest, api.CodeValidation, "invalid seat id")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	seat, err := h.Seats.Get(ctx, id)
	if err != nil {
		if errors.Is(err, registry.ErrSeatNotFound) {
			return fail(c, http.StatusNotFound, api.CodeNotFound, "seat not found")
		}
		h.Log.Error("get seat failed", "seat_id", id, "error", err)
		return fail(c, http.StatusInternalServerError, api.CodeInternal, "database error")
	}
	return c.JSON(http.StatusOK, api.SeatResponse{Seat: api.SeatFrom(seat)})
}
