package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// ShowtimeRepo manages persistence for showtimes. A showtime owns its
// seats; they are generated together and removed together.
type ShowtimeRepo struct {
	db    *sql.DB
	seats *SeatRepo
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo {
	return &ShowtimeRepo{db: db, seats: NewSeatRepo(db)}
}

const showtimeColumns = `id, movie_id, show_date, start_time, created_at`

func scanShowtime(row interface{ Scan(...interface{}) error }, s *model.Showtime) error {
	return row.Scan(&s.ID, &s.MovieID, &s.ShowDate, &s.StartTime, &s.CreatedAt)
}

// Create inserts a showtime and seats numbered 1..seatCount in one
// transaction. An unknown movie yields ErrMovieNotFound.
func (r *ShowtimeRepo) Create(ctx context.Context, s *model.Showtime, seatCount int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := r.CreateTx(ctx, tx, s); err != nil {
		return err
	}
	if err := r.seats.CreateBulkTx(ctx, tx, s.ID, seatCount); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// CreateTx inserts a showtime using the provided transaction. The caller
// must commit or roll back. On success ID and CreatedAt are populated.
func (r *ShowtimeRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, show_date, start_time) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.MovieID, s.ShowDate.Format(model.DateFormat), s.StartTime)
	if err != nil {
		switch {
		case isMissingParent(err):
			return ErrMovieNotFound
		case isDuplicate(err):
			return ErrShowtimeExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	return scanShowtime(tx.QueryRowContext(ctx, sel, s.ID), s)
}

// GetByID retrieves a showtime by its ID. It returns ErrShowtimeNotFound if
// there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE id = ?`
	var s model.Showtime
	if err := scanShowtime(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShowtimeNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByMovie returns the showtimes of a movie ordered chronologically.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error) {
	const q = `SELECT ` + showtimeColumns + ` FROM showtimes WHERE movie_id = ? ORDER BY show_date, start_time`
	return r.list(ctx, q, movieID)
}

func (r *ShowtimeRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Showtime, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Showtime{}
	for rows.Next() {
		var s model.Showtime
		if err := scanShowtime(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes a showtime together with its seats. It fails with
// ErrShowtimeReserved while any reservation references the showtime.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var exists uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM showtimes WHERE id = ? FOR UPDATE`, id).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrShowtimeNotFound
		}
		return err
	}
	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations WHERE showtime_id = ?`, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrShowtimeReserved
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seats WHERE showtime_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
