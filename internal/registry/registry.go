// Package registry defines the authoritative seat store and an in-memory
// implementation of it.
//
// Every Store guarantees that a seat has at most one owner at any time and
// that Reserve and Release are all-or-nothing: a failed call leaves the
// pool exactly as it was.
package registry

import (
	"context"
	"errors"

	"github.com/iliyamo/seat-booking/internal/model"
)

var (
	// ErrInsufficientSeats is returned when fewer seats are available than requested.
	ErrInsufficientSeats = errors.New("insufficient seats available")
	// ErrSeatNotFound is returned when a seat id does not exist.
	ErrSeatNotFound = errors.New("seat not found")
	// ErrBadCount is returned by Reserve when count is less than one.
	ErrBadCount = errors.New("reserve count must be at least 1")
)

// Store is the seat registry.  Snapshot returns every seat ordered by id.
// Reserve picks the first count available seats in ascending id order and
// assigns them to owner in one atomic step; count must be at least 1.  Release frees every seat held
// by owner and reports how many were freed; releasing nothing is not an
// error.
type Store interface {
	Snapshot(ctx context.Context) ([]model.Seat, error)
	Get(ctx context.Context, id uint64) (model.Seat, error)
	Reserve(ctx context.Context, owner uint64, count int) ([]model.Seat, error)
	Release(ctx context.Context, owner uint64) ([]uint64, error)
}
