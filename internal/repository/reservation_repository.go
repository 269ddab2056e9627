package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// ReservationRepo provides persistence for reservations and their seats.
// Seats reserved under a reservation are stored in the reservation_seats
// table; seat_id is unique there so a seat can belong to at most one
// reservation. All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const reservationSelect = `SELECT r.id, r.user_id, r.movie_id, r.showtime_id, st.show_date, r.created_at, r.updated_at
FROM reservations r
JOIN showtimes st ON st.id = r.showtime_id`

func scanReservation(row interface{ Scan(...interface{}) error }, res *model.Reservation) error {
	return row.Scan(&res.ID, &res.UserID, &res.MovieID, &res.ShowtimeID, &res.ShowDate, &res.CreatedAt, &res.UpdatedAt)
}

// ExistsTx reports whether the user already holds a reservation for the
// (movie, showtime) pair.
func (r *ReservationRepo) ExistsTx(ctx context.Context, tx *sql.Tx, userID, movieID, showtimeID uint64) (bool, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE user_id = ? AND movie_id = ? AND showtime_id = ?`
	var n int
	if err := tx.QueryRowContext(ctx, q, userID, movieID, showtimeID).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CreateTx inserts a reservation and its seat links within the scope of
// an existing transaction. It populates the generated ID and timestamps.
// Unique key violations surface as ErrReservationExists or ErrSeatTaken.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (user_id, movie_id, showtime_id) VALUES (?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.UserID, res.MovieID, res.ShowtimeID)
	if err != nil {
		if isDuplicate(err) {
			return ErrReservationExists
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)

	if len(res.Seats) > 0 {
		query := `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `
		args := make([]interface{}, 0, len(res.Seats)*2)
		for i, s := range res.Seats {
			if i > 0 {
				query += ","
			}
			query += "(?, ?)"
			args = append(args, res.ID, s.ID)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			if isDuplicate(err) {
				return ErrSeatTaken
			}
			return err
		}
	}

	const sel = `SELECT created_at, updated_at FROM reservations WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt, &res.UpdatedAt)
}

// GetByID returns a reservation with its seats and show date.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return r.get(ctx, r.db, reservationSelect+` WHERE r.id = ?`, id)
}

// LockTx locks a reservation row for update and returns it with its
// seats. When userID is non-nil the reservation must belong to that user;
// otherwise ErrReservationNotFound is returned just as for a missing row.
func (r *ReservationRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64, userID *uint64) (*model.Reservation, error) {
	if userID != nil {
		return r.get(ctx, tx, reservationSelect+` WHERE r.id = ? AND r.user_id = ? FOR UPDATE`, id, *userID)
	}
	return r.get(ctx, tx, reservationSelect+` WHERE r.id = ? FOR UPDATE`, id)
}

func (r *ReservationRepo) get(ctx context.Context, q queryer, query string, args ...interface{}) (*model.Reservation, error) {
	var res model.Reservation
	if err := scanReservation(q.QueryRowContext(ctx, query, args...), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	seats, err := r.seatsFor(ctx, q, []uint64{res.ID})
	if err != nil {
		return nil, err
	}
	res.Seats = seats[res.ID]
	return &res, nil
}

// DeleteTx removes the seat links and the reservation row.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM reservation_seats WHERE reservation_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// List returns reservations newest first, optionally restricted to one
// user. Seats are loaded with one additional query.
func (r *ReservationRepo) List(ctx context.Context, userID *uint64) ([]model.Reservation, error) {
	query := reservationSelect
	var args []interface{}
	if userID != nil {
		query += ` WHERE r.user_id = ?`
		args = append(args, *userID)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []model.Reservation{}
	var ids []uint64
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		list = append(list, res)
		ids = append(ids, res.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}

	seats, err := r.seatsFor(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Seats = seats[list[i].ID]
	}
	return list, nil
}

// seatsFor loads the seats of the given reservations keyed by reservation
// id, each slice ordered by seat number.
func (r *ReservationRepo) seatsFor(ctx context.Context, q queryer, reservationIDs []uint64) (map[uint64][]model.Seat, error) {
	in, args := inClause(reservationIDs)
	query := `SELECT rs.reservation_id, s.id, s.showtime_id, s.seat_number, s.is_reserved
FROM reservation_seats rs
JOIN seats s ON s.id = rs.seat_id
WHERE rs.reservation_id IN (` + in + `)
ORDER BY rs.reservation_id, s.seat_number`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uint64][]model.Seat, len(reservationIDs))
	for rows.Next() {
		var (
			resID uint64
			s     model.Seat
		)
		if err := rows.Scan(&resID, &s.ID, &s.ShowtimeID, &s.SeatNumber, &s.IsReserved); err != nil {
			return nil, err
		}
		out[resID] = append(out[resID], s)
	}
	return out, rows.Err()
}
