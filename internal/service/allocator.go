// Package service holds the booking business rules that sit between the
// HTTP handlers and the seat registry.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/iliyamo/seat-booking/internal/api"
	"github.com/iliyamo/seat-booking/internal/logging"
	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/queue"
	"github.com/iliyamo/seat-booking/internal/registry"
)

// MaxPartySize is the default largest number of seats one request may reserve.
const MaxPartySize = api.MaxPartySize

var (
	// ErrInvalidCount is returned when the requested count is outside 1..max party size.
	ErrInvalidCount = errors.New("invalid number of seats")
	// ErrUnauthorized is returned when no requester is attached to the call.
	ErrUnauthorized = errors.New("unauthorized")
)

// publishTimeout bounds how long a committed booking waits on the broker.
const publishTimeout = 3 * time.Second

// Allocator reserves and releases seats on behalf of authenticated users.
// All exclusion guarantees come from the registry; the allocator adds
// request validation and publishes an event after every committed change.
type Allocator struct {
	store    registry.Store
	events   queue.Publisher
	log      hclog.Logger
	maxParty int
}

// Option customizes an Allocator.
type Option func(*Allocator)

// WithMaxPartySize overrides the per-request seat ceiling.
func WithMaxPartySize(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxParty = n
		}
	}
}

// NewAllocator wires an allocator.  A nil publisher drops events and a nil
// logger discards output.
func NewAllocator(store registry.Store, events queue.Publisher, logger hclog.Logger, opts ...Option) *Allocator {
	if events == nil {
		events = queue.Noop{}
	}
	a := &Allocator{store: store, events: events, log: logging.OrNull(logger), maxParty: MaxPartySize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MaxParty returns the per-request seat ceiling.
func (a *Allocator) MaxParty() int { return a.maxParty }

// Reserve assigns count seats to requesterID and returns them in ascending
// id order.  On any error nothing is reserved.
func (a *Allocator) Reserve(ctx context.Context, requesterID uint64, count int) ([]model.Seat, error) {
	if requesterID == 0 {
		return nil, ErrUnauthorized
	}
	if count < 1 || count > a.maxParty {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidCount, a.maxParty)
	}
	seats, err := a.store.Reserve(ctx, requesterID, count)
	if err != nil {
		if !errors.Is(err, registry.ErrInsufficientSeats) {
			a.log.Error("reserve failed", "user_id", requesterID, "count", count, "error", err)
		}
		return nil, err
	}
	ids := seatIDs(seats)
	a.log.Info("seats reserved", "user_id", requesterID, "seats", ids)
	a.publish(ctx, queue.NewSeatEvent(queue.SeatsReserved, requesterID, ids))
	return seats, nil
}

// Cancel releases every seat held by requesterID and returns how many were
// released.  Cancelling with nothing held succeeds with zero.
func (a *Allocator) Cancel(ctx context.Context, requesterID uint64) (int, error) {
	if requesterID == 0 {
		return 0, ErrUnauthorized
	}
	ids, err := a.store.Release(ctx, requesterID)
	if err != nil {
		a.log.Error("cancel failed", "user_id", requesterID, "error", err)
		return 0, err
	}
	if len(ids) > 0 {
		a.log.Info("seats released", "user_id", requesterID, "seats", ids)
		a.publish(ctx, queue.NewSeatEvent(queue.SeatsReleased, requesterID, ids))
	}
	return len(ids), nil
}

// Snapshot returns the whole pool ordered by seat id.
func (a *Allocator) Snapshot(ctx context.Context) ([]model.Seat, error) {
	return a.store.Snapshot(ctx)
}

// Get returns a single seat.
func (a *Allocator) Get(ctx context.Context, id uint64) (model.Seat, error) {
	return a.store.Get(ctx, id)
}

// Held returns the seats currently owned by requesterID.
func (a *Allocator) Held(ctx context.Context, requesterID uint64) ([]model.Seat, error) {
	all, err := a.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Seat
	for _, s := range all {
		if s.OwnedBy(requesterID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a *Allocator) publish(ctx context.Context, ev queue.SeatEvent) {
	// the request may already be finished; keep its values but not its deadline
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := a.events.Publish(pctx, ev); err != nil {
		a.log.Warn("event not published", "type", ev.Type, "event", ev.ID, "error", err)
	}
}

func seatIDs(seats []model.Seat) []uint64 {
	ids := make([]uint64, len(seats))
	for i, s := range seats {
		ids[i] = s.ID
	}
	return ids
}
