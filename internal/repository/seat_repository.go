package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/seat-booking/internal/model"
	"github.com/iliyamo/seat-booking/internal/registry"
)

// errLostRace signals that the guarded update touched fewer rows than
// were selected; the transaction is rolled back and run again.
var errLostRace = errors.New("seat taken concurrently")

const defaultReserveAttempts = 3

// SeatRepo is the MySQL backed seat registry.  Reserve and Release run in a
// transaction that locks the affected rows, and every update is guarded by
// the owner column so a seat can never be handed to two users.
type SeatRepo struct {
	db          *sql.DB
	maxAttempts int
}

var _ registry.Store = (*SeatRepo)(nil)

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db, maxAttempts: defaultReserveAttempts}
}

const seatColumns = `id, seat_number, row_num, owner_id, reserved_at`

type rowScanner interface{ Scan(dest ...any) error }

func scanSeat(row rowScanner) (model.Seat, error) {
	var (
		s          model.Seat
		owner      sql.NullInt64
		reservedAt sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.SeatNumber, &s.RowNumber, &owner, &reservedAt); err != nil {
		return model.Seat{}, err
	}
	if owner.Valid {
		o := uint64(owner.Int64)
		s.OwnerID = &o
	}
	if reservedAt.Valid {
		t := reservedAt.Time
		s.ReservedAt = &t
	}
	return s, nil
}

// Snapshot returns every seat ordered by id from a single consistent read.
func (r *SeatRepo) Snapshot(ctx context.Context) ([]model.Seat, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+seatColumns+` FROM seats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a seat by its id.
func (r *SeatRepo) Get(ctx context.Context, id uint64) (model.Seat, error) {
	s, err := scanSeat(r.db.QueryRowContext(ctx, `SELECT `+seatColumns+` FROM seats WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Seat{}, registry.ErrSeatNotFound
		}
		return model.Seat{}, err
	}
	return s, nil
}

// Reserve assigns the first count available seats (ascending id) to owner.
// Lock contention and lost races are retried a bounded number of times
// before ErrConflict is returned.
func (r *SeatRepo) Reserve(ctx context.Context, owner uint64, count int) ([]model.Seat, error) {
	if count < 1 {
		return nil, registry.ErrBadCount
	}
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		seats, err := r.reserveOnce(ctx, owner, count)
		if err == nil || !(errors.Is(err, errLostRace) || isRetryable(err)) {
			return seats, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
}

func (r *SeatRepo) reserveOnce(ctx context.Context, owner uint64, count int) ([]model.Seat, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, seat_number, row_num FROM seats
		 WHERE owner_id IS NULL
		 ORDER BY id
		 LIMIT ?
		 FOR UPDATE`, count)
	if err != nil {
		return nil, err
	}
	picked := make([]model.Seat, 0, count)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.SeatNumber, &s.RowNumber); err != nil {
			rows.Close()
			return nil, err
		}
		picked = append(picked, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(picked) < count {
		return nil, registry.ErrInsufficientSeats
	}

	now := time.Now().UTC().Truncate(time.Second)
	placeholders := make([]string, len(picked))
	args := make([]any, 0, len(picked)+2)
	args = append(args, owner, now)
	for i, s := range picked {
		placeholders[i] = "?"
		args = append(args, s.ID)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET owner_id = ?, reserved_at = ?
		 WHERE owner_id IS NULL AND id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, err
	} else if n != int64(len(picked)) {
		return nil, errLostRace
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	for i := range picked {
		o, t := owner, now
		picked[i].OwnerID = &o
		picked[i].ReservedAt = &t
	}
	return picked, nil
}

// Release frees every seat held by owner and returns their ids.
func (r *SeatRepo) Release(ctx context.Context, owner uint64) ([]uint64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM seats WHERE owner_id = ? ORDER BY id FOR UPDATE`, owner)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE seats SET owner_id = NULL, reserved_at = NULL WHERE owner_id = ?`, owner); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return ids, nil
}

// SeedIfEmpty inserts seats in a single statement when the table is empty.
// It returns the number of rows written.
func (r *SeatRepo) SeedIfEmpty(ctx context.Context, seats []model.Seat) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats`).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 || len(seats) == 0 {
		return 0, nil
	}
	query := `INSERT INTO seats (id, seat_number, row_num) VALUES `
	args := make([]any, 0, len(seats)*3)
	for i, seat := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, seat.ID, seat.SeatNumber, seat.RowNumber)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return 0, err
	}
	return len(seats), nil
}
