package model

import "time"

// Seat status values as exposed to clients.
const (
	StatusAvailable = "available"
	StatusReserved  = "reserved"
)

// Seat describes one seat of the pool.  ID, SeatNumber and RowNumber are
// fixed when the pool is laid out; only the owner changes afterwards.
// The status is never stored on its own: a seat is reserved exactly when
// it has an owner.
//
// Fields:
//  ID         – primary key identifier, stable for the seat's lifetime.
//  SeatNumber – display number of the seat.
//  RowNumber  – display row of the seat (1-based).
//  OwnerID    – id of the user holding the seat, nil when available.
//  ReservedAt – when the current owner took the seat.
type Seat struct {
	ID         uint64     // seats.id
	SeatNumber uint32     // seats.seat_number
	RowNumber  uint32     // seats.row_num
	OwnerID    *uint64    // seats.owner_id (nullable)
	ReservedAt *time.Time // seats.reserved_at (nullable)
}

// Status returns "reserved" when the seat has an owner, "available" otherwise.
func (s Seat) Status() string {
	if s.OwnerID != nil {
		return StatusReserved
	}
	return StatusAvailable
}

// Available reports whether the seat can be reserved.
func (s Seat) Available() bool { return s.OwnerID == nil }

// OwnedBy reports whether the seat is held by the given user.
func (s Seat) OwnedBy(userID uint64) bool { return s.OwnerID != nil && *s.OwnerID == userID }

// Layout builds total seats in row-major order with perRow seats per row.
// Seat i (1-based) gets id i, seat number i and row (i-1)/perRow+1, so
// ascending id order and row-major order coincide.
func Layout(total, perRow int) []Seat {
	if total <= 0 {
		return nil
	}
	if perRow <= 0 {
		perRow = total
	}
	seats := make([]Seat, total)
	for i := range seats {
		n := i + 1
		seats[i] = Seat{
			ID:         uint64(n),
			SeatNumber: uint32(n),
			RowNumber:  uint32(i/perRow + 1),
		}
	}
	return seats
}
