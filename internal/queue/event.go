// Package queue defines message payloads exchanged over the message broker
// and the publishers and consumers that move them.
package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	SeatsReserved = "seats.reserved"
	SeatsReleased = "seats.released"
)

// SeatEvent is published after a reservation or cancellation commits.  It
// carries enough information for downstream consumers to audit or notify
// without querying the seat registry.
type SeatEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	RequesterID uint64    `json:"requester_id"`
	SeatIDs     []uint64  `json:"seat_ids"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// NewSeatEvent stamps a new event with a random id and the current time.
func NewSeatEvent(typ string, requesterID uint64, seatIDs []uint64) SeatEvent {
	return SeatEvent{
		ID:          uuid.NewString(),
		Type:        typ,
		RequesterID: requesterID,
		SeatIDs:     append([]uint64(nil), seatIDs...),
		OccurredAt:  time.Now().UTC(),
	}
}

// Key is the partition key; events of one requester stay ordered.
func (e SeatEvent) Key() []byte { return []byte(fmt.Sprintf("user-%d", e.RequesterID)) }

func decodeEvent(body []byte) (SeatEvent, error) {
	var ev SeatEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return SeatEvent{}, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.ID == "" {
		return SeatEvent{}, fmt.Errorf("event without id")
	}
	switch ev.Type {
	case SeatsReserved, SeatsReleased:
	default:
		return SeatEvent{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	return ev, nil
}
