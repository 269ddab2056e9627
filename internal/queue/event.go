// Package queue defines message payloads exchanged over the message broker.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// Event types carried in ReservationEvent.Type.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published after a reservation is created or
// cancelled. It contains enough information for downstream consumers to
// log, notify or trigger analytics without querying the primary database.
type ReservationEvent struct {
	EventID       string   `json:"event_id"`
	Type          string   `json:"type"`
	ReservationID uint64   `json:"reservation_id"`
	UserID        uint64   `json:"user_id"`
	MovieID       uint64   `json:"movie_id"`
	ShowtimeID    uint64   `json:"showtime_id"`
	ShowDate      string   `json:"show_date"`
	SeatNumbers   []uint32 `json:"seats"`
	OccurredAt    string   `json:"occurred_at"`
}

// NewReservationEvent builds an event of the given type for r.
func NewReservationEvent(typ string, r model.Reservation, at time.Time) ReservationEvent {
	seats := make([]uint32, 0, len(r.Seats))
	for _, s := range r.Seats {
		seats = append(seats, s.SeatNumber)
	}
	ev := ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          typ,
		ReservationID: r.ID,
		UserID:        r.UserID,
		MovieID:       r.MovieID,
		ShowtimeID:    r.ShowtimeID,
		SeatNumbers:   seats,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
	if !r.ShowDate.IsZero() {
		ev.ShowDate = r.ShowDate.Format(model.DateFormat)
	}
	return ev
}
