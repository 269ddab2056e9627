package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// SeatRepo provides methods to work with seats in the database. Reads go
// through the pool; the *Tx methods run on a caller's transaction and form
// the write side of the seat ledger.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

const seatColumns = `id, showtime_id, seat_number, is_reserved`

// CreateBulkTx inserts seats numbered 1..count for a showtime in a single
// statement.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, count int) error {
	if count <= 0 {
		return nil
	}
	query := `INSERT INTO seats (showtime_id, seat_number) VALUES `
	args := make([]interface{}, 0, count*2)
	for i := 1; i <= count; i++ {
		if i > 1 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, showtimeID, i)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID retrieves a seat by its id.
func (r *SeatRepo) GetByID(ctx context.Context, id uint64) (*model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE id = ?`
	var s model.Seat
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.ShowtimeID, &s.SeatNumber, &s.IsReserved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListByShowtime returns the full seat map of a showtime ordered by seat
// number.
func (r *SeatRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE showtime_id = ? ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// ListAvailable returns the free seats of a showtime ordered by seat
// number. The (showtime_id, is_reserved) index serves this query.
func (r *SeatRepo) ListAvailable(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	const q = `SELECT ` + seatColumns + ` FROM seats WHERE showtime_id = ? AND is_reserved = 0 ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// LockTx locks the rows of the given seat ids with SELECT ... FOR UPDATE
// and returns those that exist. Rows are locked in id order.
func (r *SeatRepo) LockTx(ctx context.Context, tx *sql.Tx, ids []uint64) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	q := `SELECT ` + seatColumns + ` FROM seats WHERE id IN (` + in + `) ORDER BY id FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// ReserveTx marks free seats of the showtime as reserved and returns the
// number of rows that changed. A count lower than len(ids) means some
// seat was taken or did not belong to the showtime.
func (r *SeatRepo) ReserveTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, ids []uint64) (int64, error) {
	return r.flipTx(ctx, tx, showtimeID, ids, true)
}

// ReleaseTx marks reserved seats of the showtime as free and returns the
// number of rows that changed.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, ids []uint64) (int64, error) {
	return r.flipTx(ctx, tx, showtimeID, ids, false)
}

func (r *SeatRepo) flipTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, ids []uint64, reserve bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	in, idArgs := inClause(ids)
	to, from := 1, 0
	if !reserve {
		to, from = 0, 1
	}
	q := `UPDATE seats SET is_reserved = ? WHERE showtime_id = ? AND is_reserved = ? AND id IN (` + in + `)`
	args := append([]interface{}{to, showtimeID, from}, idArgs...)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	result := []model.Seat{}
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ShowtimeID, &s.SeatNumber, &s.IsReserved); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
