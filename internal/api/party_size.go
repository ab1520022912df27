package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PartySize is a seat count that decodes from either a JSON number or a
// numeric string, e.g. {"numOfSeats": 3} and {"numOfSeats": "3"}.
type PartySize int

func (p *PartySize) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*p = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("numOfSeats must be a whole number, got %q", s)
		}
		*p = PartySize(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("numOfSeats must be a whole number")
	}
	*p = PartySize(n)
	return nil
}
