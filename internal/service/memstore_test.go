package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
)

// memState is the full content of a memStore. Transactions work on a
// clone and replace the committed state only when fn succeeds.
type memState struct {
	showtimes    map[uint64]model.Showtime
	seats        map[uint64]model.Seat
	reservations map[uint64]model.Reservation
	nextResID    uint64
}

func (s *memState) clone() *memState {
	c := &memState{
		showtimes:    make(map[uint64]model.Showtime, len(s.showtimes)),
		seats:        make(map[uint64]model.Seat, len(s.seats)),
		reservations: make(map[uint64]model.Reservation, len(s.reservations)),
		nextResID:    s.nextResID,
	}
	for k, v := range s.showtimes {
		c.showtimes[k] = v
	}
	for k, v := range s.seats {
		c.seats[k] = v
	}
	for k, v := range s.reservations {
		v.Seats = append([]model.Seat(nil), v.Seats...)
		c.reservations[k] = v
	}
	return c
}

// memStore is an in-memory Store. InTx holds the store mutex for the
// whole transaction which gives the same serialisation on overlapping
// seats that row locks give in MySQL.
type memStore struct {
	mu    sync.Mutex
	state *memState
	txs   int
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		showtimes:    map[uint64]model.Showtime{},
		seats:        map[uint64]model.Seat{},
		reservations: map[uint64]model.Reservation{},
		nextResID:    1,
	}}
}

// addShowtime registers a showtime with seats numbered 1..n. Seat ids are
// showtimeID*1000 + seat number.
func (m *memStore) addShowtime(id, movieID uint64, date time.Time, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.showtimes[id] = model.Showtime{ID: id, MovieID: movieID, ShowDate: date, StartTime: "20:00:00"}
	for i := 1; i <= n; i++ {
		sid := id*1000 + uint64(i)
		m.state.seats[sid] = model.Seat{ID: sid, ShowtimeID: id, SeatNumber: uint32(i)}
	}
}

func (m *memStore) seat(id uint64) model.Seat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.seats[id]
}

func (m *memStore) reservationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.reservations)
}

// checkLedger returns false if the reserved flags disagree with the seats
// referenced by reservations.
func (m *memStore) checkLedger() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	owned := map[uint64]int{}
	for _, r := range m.state.reservations {
		for _, s := range r.Seats {
			owned[s.ID]++
		}
	}
	for id, s := range m.state.seats {
		n := owned[id]
		if n > 1 || s.IsReserved != (n == 1) {
			return false
		}
	}
	return true
}

func (m *memStore) GetShowtime(_ context.Context, id uint64) (*model.Showtime, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.state.showtimes[id]
	if !ok {
		return nil, apperr.NotFound("showtime not found")
	}
	return &st, nil
}

func (m *memStore) ListAvailableSeats(_ context.Context, showtimeID uint64) ([]model.Seat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Seat
	for _, s := range m.state.seats {
		if s.ShowtimeID == showtimeID && !s.IsReserved {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatNumber < out[j].SeatNumber })
	return out, nil
}

func (m *memStore) GetReservation(_ context.Context, id uint64) (*model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.reservations[id]
	if !ok {
		return nil, apperr.NotFound("reservation not found")
	}
	return &r, nil
}

func (m *memStore) ListReservations(_ context.Context, userID *uint64) ([]model.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Reservation
	for _, r := range m.state.reservations {
		if userID == nil || r.UserID == *userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) InTx(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs++
	work := m.state.clone()
	if err := fn(&memTx{st: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

type memTx struct {
	st *memState
}

func (t *memTx) LockSeats(_ context.Context, seatIDs []uint64) ([]model.Seat, error) {
	var out []model.Seat
	for _, id := range seatIDs {
		if s, ok := t.st.seats[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *memTx) flip(showtimeID uint64, seatIDs []uint64, from bool) int64 {
	var n int64
	for _, id := range seatIDs {
		s, ok := t.st.seats[id]
		if !ok || s.ShowtimeID != showtimeID || s.IsReserved != from {
			continue
		}
		s.IsReserved = !from
		t.st.seats[id] = s
		n++
	}
	return n
}

func (t *memTx) ReserveSeats(_ context.Context, showtimeID uint64, seatIDs []uint64) (int64, error) {
	return t.flip(showtimeID, seatIDs, false), nil
}

func (t *memTx) ReleaseSeats(_ context.Context, showtimeID uint64, seatIDs []uint64) (int64, error) {
	return t.flip(showtimeID, seatIDs, true), nil
}

func (t *memTx) ReservationExists(_ context.Context, userID, movieID, showtimeID uint64) (bool, error) {
	for _, r := range t.st.reservations {
		if r.UserID == userID && r.MovieID == movieID && r.ShowtimeID == showtimeID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertReservation(_ context.Context, r *model.Reservation) error {
	r.ID = t.st.nextResID
	t.st.nextResID++
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	stored := *r
	stored.Seats = append([]model.Seat(nil), r.Seats...)
	t.st.reservations[r.ID] = stored
	return nil
}

func (t *memTx) LockReservation(_ context.Context, id uint64, userID *uint64) (*model.Reservation, error) {
	r, ok := t.st.reservations[id]
	if !ok || (userID != nil && r.UserID != *userID) {
		return nil, apperr.NotFound("reservation not found")
	}
	return &r, nil
}

func (t *memTx) DeleteReservation(_ context.Context, id uint64) error {
	delete(t.st.reservations, id)
	return nil
}
