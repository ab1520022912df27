package registry

import (
	"context"
	"sync"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
)

// Memory is a Store kept in process memory.  A single RWMutex guards the
// pool: reads share it, Reserve and Release hold it exclusively for the
// whole scan-and-commit.
type Memory struct {
	mu    sync.RWMutex
	seats []model.Seat // ordered by id
	index map[uint64]int
	now   func() time.Time
}

// NewMemory returns a store holding a copy of seats.  Seats are expected in
// ascending id order, as produced by model.Layout.
func NewMemory(seats []model.Seat) *Memory {
	m := &Memory{
		seats: make([]model.Seat, len(seats)),
		index: make(map[uint64]int, len(seats)),
		now:   time.Now,
	}
	for i, s := range seats {
		m.seats[i] = cloneSeat(s)
		m.index[s.ID] = i
	}
	return m
}

func (m *Memory) Snapshot(ctx context.Context) ([]model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Seat, len(m.seats))
	for i, s := range m.seats {
		out[i] = cloneSeat(s)
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id uint64) (model.Seat, error) {
	if err := ctx.Err(); err != nil {
		return model.Seat{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.index[id]
	if !ok {
		return model.Seat{}, ErrSeatNotFound
	}
	return cloneSeat(m.seats[i]), nil
}

func (m *Memory) Reserve(ctx context.Context, owner uint64, count int) ([]model.Seat, error) {
	if count < 1 {
		return nil, ErrBadCount
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	picked := make([]int, 0, count)
	for i := range m.seats {
		if m.seats[i].Available() {
			picked = append(picked, i)
			if len(picked) == count {
				break
			}
		}
	}
	if len(picked) < count {
		return nil, ErrInsufficientSeats
	}

	at := m.now().UTC()
	out := make([]model.Seat, 0, count)
	for _, i := range picked {
		o, ts := owner, at
		m.seats[i].OwnerID = &o
		m.seats[i].ReservedAt = &ts
		out = append(out, cloneSeat(m.seats[i]))
	}
	return out, nil
}

func (m *Memory) Release(ctx context.Context, owner uint64) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var released []uint64
	for i := range m.seats {
		if m.seats[i].OwnedBy(owner) {
			m.seats[i].OwnerID = nil
			m.seats[i].ReservedAt = nil
			released = append(released, m.seats[i].ID)
		}
	}
	return released, nil
}

// cloneSeat copies the pointer fields so callers never alias store state.
func cloneSeat(s model.Seat) model.Seat {
	if s.OwnerID != nil {
		o := *s.OwnerID
		s.OwnerID = &o
	}
	if s.ReservedAt != nil {
		t := *s.ReservedAt
		s.ReservedAt = &t
	}
	return s
}
