// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrConflict is returned when a write keeps losing to concurrent writers
// and gives up.  Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when an email is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when a user lookup yields no rows.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound is returned for unknown, revoked or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// MySQL server error numbers inspected by the repositories.
const (
	errDuplicateEntry  = 1062
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlErrNumber(err error) uint16 {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number
	}
	return 0
}

func isDuplicate(err error) bool { return mysqlErrNumber(err) == errDuplicateEntry }

// isRetryable reports lock contention errors after which the whole
// transaction can safely be run again.
func isRetryable(err error) bool {
	switch mysqlErrNumber(err) {
	case errDeadlock, errLockWaitTimeout:
		return true
	}
	return false
}
