// Package service implements the seat reservation workflow. It validates
// requests, applies the access policy and drives the Store inside
// transactions so that seat state and reservation rows never disagree.
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/policy"
)

// ErrPastShowtime is returned when cancelling a reservation whose showtime
// date is already behind us.
var ErrPastShowtime = apperr.Validation("cannot cancel past showtime")

// CreateReservationInput is the request to book seats of one showtime.
type CreateReservationInput struct {
	ShowtimeID uint64
	SeatIDs    []uint64
}

// ReservationService is the reservation orchestrator.
type ReservationService struct {
	store  Store
	events EventPublisher
	loc    *time.Location
	now    func() time.Time
}

// Option customises a ReservationService.
type Option func(*ReservationService)

// WithEvents publishes reservation events through p.
func WithEvents(p EventPublisher) Option {
	return func(s *ReservationService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLocation sets the timezone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(s *ReservationService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *ReservationService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewReservationService builds the orchestrator on top of store.
func NewReservationService(store Store, opts ...Option) *ReservationService {
	if store == nil {
		panic("nil store passed to NewReservationService")
	}
	s := &ReservationService{
		store:  store,
		events: noopPublisher{},
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListAvailableSeats returns the free seats of a showtime.
func (s *ReservationService) ListAvailableSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error) {
	if showtimeID == 0 {
		return nil, apperr.Validation("showtime_id is required")
	}
	if _, err := s.store.GetShowtime(ctx, showtimeID); err != nil {
		return nil, err
	}
	seats, err := s.store.ListAvailableSeats(ctx, showtimeID)
	if err != nil {
		return nil, fmt.Errorf("list available seats: %w", err)
	}
	return seats, nil
}

// ListReservations returns the global reservation set when all is true
// (staff only) and the principal's own reservations otherwise.
func (s *ReservationService) ListReservations(ctx context.Context, p model.Principal, all bool) ([]model.Reservation, error) {
	var userID *uint64
	if all {
		if err := policy.CanListAllReservations(p); err != nil {
			return nil, err
		}
	} else {
		if err := policy.RequireActive(p); err != nil {
			return nil, err
		}
		id := p.ID
		userID = &id
	}
	list, err := s.store.ListReservations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}

// GetReservation returns one reservation if the principal may see it.
func (s *ReservationService) GetReservation(ctx context.Context, p model.Principal, id uint64) (*model.Reservation, error) {
	if err := policy.RequireActive(p); err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, apperr.Validation("reservation id is required")
	}
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanAccessReservation(p, *r); err != nil {
		return nil, err
	}
	return r, nil
}

// CreateReservation books every requested seat for the principal or
// nothing at all. The full seat set is locked and validated for existence
// and availability before the first mutation.
func (s *ReservationService) CreateReservation(ctx context.Context, p model.Principal, in CreateReservationInput) (*model.Reservation, error) {
	if err := policy.CanCreateReservation(p); err != nil {
		return nil, err
	}
	seatIDs, err := normalizeSeatIDs(in)
	if err != nil {
		return nil, err
	}
	showtime, err := s.store.GetShowtime(ctx, in.ShowtimeID)
	if err != nil {
		return nil, err
	}

	var created *model.Reservation
	err = s.store.InTx(ctx, func(tx Tx) error {
		locked, err := tx.LockSeats(ctx, seatIDs)
		if err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}
		seats, err := checkSeats(showtime.ID, seatIDs, locked)
		if err != nil {
			return err
		}

		exists, err := tx.ReservationExists(ctx, p.ID, showtime.MovieID, showtime.ID)
		if err != nil {
			return fmt.Errorf("check existing reservation: %w", err)
		}
		if exists {
			return apperr.Conflict("you already have a reservation for this showtime")
		}

		n, err := tx.ReserveSeats(ctx, showtime.ID, seatIDs)
		if err != nil {
			return fmt.Errorf("reserve seats: %w", err)
		}
		if n != int64(len(seatIDs)) {
			return apperr.Conflict("one or more seats were reserved concurrently")
		}

		r := &model.Reservation{
			UserID:     p.ID,
			MovieID:    showtime.MovieID,
			ShowtimeID: showtime.ID,
			ShowDate:   showtime.ShowDate,
			Seats:      seats,
		}
		if err := tx.InsertReservation(ctx, r); err != nil {
			return fmt.Errorf("insert reservation: %w", err)
		}
		created = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": created.ID,
		"user_id":        created.UserID,
		"showtime_id":    created.ShowtimeID,
		"seats":          len(created.Seats),
	}).Info("reservation created")
	if err := s.events.ReservationCreated(ctx, *created); err != nil {
		logrus.WithError(err).WithField("reservation_id", created.ID).Warn("publish reservation.created failed")
	}
	return created, nil
}

// CancelReservation releases the reservation's seats and deletes it in a
// single transaction. Regular users only find their own reservations.
func (s *ReservationService) CancelReservation(ctx context.Context, p model.Principal, id uint64) error {
	if err := policy.RequireActive(p); err != nil {
		return err
	}
	if id == 0 {
		return apperr.Validation("reservation id is required")
	}
	var owner *uint64
	if !p.IsStaff {
		uid := p.ID
		owner = &uid
	}

	var cancelled model.Reservation
	err := s.store.InTx(ctx, func(tx Tx) error {
		r, err := tx.LockReservation(ctx, id, owner)
		if err != nil {
			return err
		}
		if err := policy.CanAccessReservation(p, *r); err != nil {
			return err
		}
		if (model.Showtime{ShowDate: r.ShowDate}).IsBefore(s.now(), s.loc) {
			return ErrPastShowtime
		}

		seatIDs := r.SeatIDs()
		if len(seatIDs) > 0 {
			n, err := tx.ReleaseSeats(ctx, r.ShowtimeID, seatIDs)
			if err != nil {
				return fmt.Errorf("release seats: %w", err)
			}
			if n != int64(len(seatIDs)) {
				return fmt.Errorf("release seats: %d of %d seats were reserved", n, len(seatIDs))
			}
		}
		if err := tx.DeleteReservation(ctx, r.ID); err != nil {
			return fmt.Errorf("delete reservation: %w", err)
		}
		cancelled = *r
		return nil
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"reservation_id": cancelled.ID,
		"user_id":        cancelled.UserID,
		"cancelled_by":   p.ID,
		"seats":          len(cancelled.Seats),
	}).Info("reservation cancelled")
	if err := s.events.ReservationCancelled(ctx, cancelled); err != nil {
		logrus.WithError(err).WithField("reservation_id", cancelled.ID).Warn("publish reservation.cancelled failed")
	}
	return nil
}

// normalizeSeatIDs validates the request and returns its seat ids sorted
// and deduplicated. Sorting keeps row lock order stable across requests.
func normalizeSeatIDs(in CreateReservationInput) ([]uint64, error) {
	if in.ShowtimeID == 0 {
		return nil, apperr.Validation("showtime_id is required")
	}
	if len(in.SeatIDs) == 0 {
		return nil, apperr.Validation("seat_ids must contain at least one seat")
	}
	seen := make(map[uint64]struct{}, len(in.SeatIDs))
	ids := make([]uint64, 0, len(in.SeatIDs))
	for _, id := range in.SeatIDs {
		if id == 0 {
			return nil, apperr.Validation("seat_ids must be positive integers")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// checkSeats verifies that every requested id was found, belongs to the
// showtime and is free. It returns the seats ordered by seat number.
func checkSeats(showtimeID uint64, requested []uint64, locked []model.Seat) ([]model.Seat, error) {
	byID := make(map[uint64]model.Seat, len(locked))
	for _, s := range locked {
		byID[s.ID] = s
	}
	var missing, taken []uint64
	seats := make([]model.Seat, 0, len(requested))
	for _, id := range requested {
		seat, ok := byID[id]
		if !ok || seat.ShowtimeID != showtimeID {
			missing = append(missing, id)
			continue
		}
		if seat.IsReserved {
			taken = append(taken, id)
			continue
		}
		seats = append(seats, seat)
	}
	if len(missing) > 0 {
		return nil, apperr.NotFound("seats %v not found for showtime %d", missing, showtimeID)
	}
	if len(taken) > 0 {
		return nil, apperr.Conflict("seats %v are already reserved", taken)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i].SeatNumber < seats[j].SeatNumber })
	for i := range seats {
		seats[i].IsReserved = true
	}
	return seats, nil
}
