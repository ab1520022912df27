package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/seat-booking/internal/model"
)

func TestPartySize_DecodesStringsAndNumbers(t *testing.T) {
	cases := map[string]PartySize{
		`{"numOfSeats": 3}`:     3,
		`{"numOfSeats": "4"}`:   4,
		`{"numOfSeats": " 5 "}`: 5,
		`{"numOfSeats": null}`:  0,
		`{}`:                    0,
	}
	for body, want := range cases {
		var req BookRequest
		require.NoError(t, json.Unmarshal([]byte(body), &req), body)
		assert.Equal(t, want, req.NumOfSeats, body)
	}

	for _, body := range []string{`{"numOfSeats": "three"}`, `{"numOfSeats": 2.5}`, `{"numOfSeats": true}`} {
		var req BookRequest
		assert.Error(t, json.Unmarshal([]byte(body), &req), body)
	}
}

func TestValidate_BookBounds(t *testing.T) {
	assert.NoError(t, Validate(BookRequest{NumOfSeats: 1}))
	assert.NoError(t, Validate(BookRequest{NumOfSeats: 7}))

	for _, n := range []PartySize{0, 8} {
		err := Validate(BookRequest{NumOfSeats: n})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.True(t, verr.HasField("numOfSeats"))
	}
}

func TestValidate_Messages(t *testing.T) {
	err := Validate(SignupRequest{FirstName: "", Email: "nope", Password: "123"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Issues, 3)
	assert.Contains(t, err.Error(), "firstName is required")
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
}

func TestValidate_PasswordMismatch(t *testing.T) {
	err := Validate(PasswordReset{CurrentPassword: "old", NewPassword: "secret1", ConfirmPassword: "secret2"})
	assert.EqualError(t, err, "passwords do not match")
	assert.NoError(t, Validate(PasswordReset{CurrentPassword: "old", NewPassword: "secret1", ConfirmPassword: "secret1"}))
}

func TestSeatFrom_HidesOwner(t *testing.T) {
	owner := uint64(5)
	s := SeatFrom(model.Seat{ID: 9, SeatNumber: 9, RowNumber: 2, OwnerID: &owner})
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":9,"seat_number":9,"row_number":2,"status":"reserved"}`, string(b))
	assert.False(t, s.Available())
}

func TestUserJSON_LowercaseNames(t *testing.T) {
	b, err := json.Marshal(UserFrom(model.User{ID: 1, FirstName: "Ada", LastName: "L", Email: "a@b.c"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"firstname":"Ada","lastname":"L","country":"","email":"a@b.c","contact":""}`, string(b))
}
