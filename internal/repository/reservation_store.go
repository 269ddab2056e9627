package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/service"
)

// ReservationStore implements service.Store on MySQL. Transactions use the
// default isolation level; correctness comes from the row locks taken by
// LockSeats/LockReservation and the count-checked conditional updates.
type ReservationStore struct {
	db           *sql.DB
	showtimes    *ShowtimeRepo
	seats        *SeatRepo
	reservations *ReservationRepo
}

var _ service.Store = (*ReservationStore)(nil)

// NewReservationStore builds a store over db.
func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{
		db:           db,
		showtimes:    NewShowtimeRepo(db),
		seats:        NewSeatRepo(db),
		reservations: NewReservationRepo(db),
	}
}

func (s *ReservationStore) GetShowtime(ctx context.Context, id uint64) (*model.Showtime, error) {
	return s.showtimes.GetByID(ctx, id)
}

func (s *ReservationStore) ListAvailableSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	return s.seats.ListAvailable(ctx, showtimeID)
}

func (s *ReservationStore) GetReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

func (s *ReservationStore) ListReservations(ctx context.Context, userID *uint64) ([]model.Reservation, error) {
	return s.reservations.List(ctx, userID)
}

// InTx begins a transaction, runs fn and commits when fn succeeds. Any
// error, or a panic in fn, rolls back.
func (s *ReservationStore) InTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&storeTx{store: s, tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// storeTx binds the repositories to one *sql.Tx.
type storeTx struct {
	store *ReservationStore
	tx    *sql.Tx
}

func (t *storeTx) LockSeats(ctx context.Context, seatIDs []uint64) ([]model.Seat, error) {
	return t.store.seats.LockTx(ctx, t.tx, seatIDs)
}

func (t *storeTx) ReserveSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) (int64, error) {
	return t.store.seats.ReserveTx(ctx, t.tx, showtimeID, seatIDs)
}

func (t *storeTx) ReleaseSeats(ctx context.Context, showtimeID uint64, seatIDs []uint64) (int64, error) {
	return t.store.seats.ReleaseTx(ctx, t.tx, showtimeID, seatIDs)
}

func (t *storeTx) ReservationExists(ctx context.Context, userID, movieID, showtimeID uint64) (bool, error) {
	return t.store.reservations.ExistsTx(ctx, t.tx, userID, movieID, showtimeID)
}

func (t *storeTx) InsertReservation(ctx context.Context, r *model.Reservation) error {
	return t.store.reservations.CreateTx(ctx, t.tx, r)
}

func (t *storeTx) LockReservation(ctx context.Context, id uint64, userID *uint64) (*model.Reservation, error) {
	return t.store.reservations.LockTx(ctx, t.tx, id, userID)
}

func (t *storeTx) DeleteReservation(ctx context.Context, id uint64) error {
	return t.store.reservations.DeleteTx(ctx, t.tx, id)
}
