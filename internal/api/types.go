// Package api holds the JSON request and response bodies shared by the
// HTTP handlers and the Go client.
package api

import (
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
)

// Error codes carried in ErrorResponse.Error.
const (
	CodeValidation         = "validation_failed"
	CodeInvalidCount       = "invalid_count"
	CodeInsufficientSeats  = "insufficient_seats"
	CodeUnauthorized       = "unauthorized"
	CodeInvalidCredentials = "invalid_credentials"
	CodeNotFound           = "not_found"
	CodeEmailExists        = "email_exists"
	CodeTooManyRequests    = "too_many_requests"
	CodeConflict           = "conflict"
	CodeInternal           = "internal"
)

// MaxPartySize is the largest numOfSeats a booking request may carry.
const MaxPartySize = 7

// ----- requests -----

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

type BookRequest struct {
	NumOfSeats PartySize `json:"numOfSeats" validate:"min=1,max=7"`
}

type ProfileUpdate struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Country   string `json:"country" validate:"max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Contact   string `json:"contact" validate:"max=50"`
}

type PasswordReset struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// ----- responses -----

type Seat struct {
	ID         uint64 `json:"id"`
	SeatNumber uint32 `json:"seat_number"`
	RowNumber  uint32 `json:"row_number"`
	Status     string `json:"status"`
}

// Available reports whether the seat was free when the snapshot was taken.
func (s Seat) Available() bool { return s.Status == model.StatusAvailable }

func SeatFrom(s model.Seat) Seat {
	return Seat{ID: s.ID, SeatNumber: s.SeatNumber, RowNumber: s.RowNumber, Status: s.Status()}
}

func SeatsFrom(seats []model.Seat) []Seat {
	out := make([]Seat, len(seats))
	for i, s := range seats {
		out[i] = SeatFrom(s)
	}
	return out
}

// User is the public view of an account.  The lower-case first and last
// name keys are what existing clients read.
type User struct {
	ID        uint64 `json:"id"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
}

func UserFrom(u model.User) User {
	return User{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Country: u.Country, Email: u.Email, Contact: u.Contact}
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type SeatsResponse struct {
	Seats []Seat `json:"seats"`
}

type SeatResponse struct {
	Seat Seat `json:"seat"`
}

type BookResponse struct {
	Message string `json:"message"`
	Seats   []Seat `json:"seats"`
}

type CancelResponse struct {
	Message  string `json:"message"`
	Released int    `json:"released"`
}

type UserResponse struct {
	User User `json:"user"`
}

type ProfileResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
