package service

import (
	"context"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// Store is the persistence the reservation service runs on. Reads outside
// of InTx see committed state; everything that mutates seats or
// reservations happens inside a single InTx call so that it commits or
// rolls back as one unit.
//
// Lookups report absence with an error of kind apperr.KindNotFound.
type Store interface {
	GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error)
	// ListAvailableSeats returns the free seats of a showtime ordered by
	// seat number.
	ListAvailableSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error)
	GetReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	// ListReservations returns reservations newest first, limited to one
	// user when userID is non-nil.
	ListReservations(ctx context.Context, userID *uint64) ([]model.Reservation, error)
	// InTx runs fn inside a transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional view of the Store.
type Tx interface {
	// LockSeats locks and returns the rows for the given seat ids that
	// exist, regardless of showtime. Ids with no row are simply absent.
	LockSeats(ctx context.Context, seatIDs []uint64) ([]model.Seat, error)
	// ReserveSeats flips free seats of the showtime to reserved and
	// returns how many rows changed.
	ReserveSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) (int64, error)
	// ReleaseSeats flips reserved seats of the showtime back to free and
	// returns how many rows changed.
	ReleaseSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) (int64, error)
	ReservationExists(ctx context.Context, userID, movieID, showtimeID uint64) (bool, error)
	// InsertReservation stores r and its seat links and fills r.ID and
	// timestamps. A uniqueness violation is reported as a conflict.
	InsertReservation(ctx context.Context, r *model.Reservation) error
	// LockReservation locks and returns a reservation with its seats and
	// show date. When userID is non-nil only a reservation owned by that
	// user is found.
	LockReservation(ctx context.Context, id uint64, userID *uint64) (*model.Reservation, error)
	DeleteReservation(ctx context.Context, id uint64) error
}
