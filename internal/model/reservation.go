package model

import "time"

// Reservation is a user's claim on one or more seats of a single
// showtime. There is at most one reservation per (user, movie, showtime);
// cancelling deletes the row and frees its seats.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – user who made the reservation.
//  MovieID    – movie of the reserved showtime.
//  ShowtimeID – reserved showtime.
//  ShowDate   – date of the showtime (filled on reads that join showtimes).
//  Seats      – seats owned by the reservation, ordered by seat number.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Reservation struct {
	ID         uint64    // reservations.id
	UserID     uint64    // reservations.user_id
	MovieID    uint64    // reservations.movie_id
	ShowtimeID uint64    // reservations.showtime_id
	ShowDate   time.Time // showtimes.show_date
	Seats      []Seat    // reservation_seats -> seats
	CreatedAt  time.Time // reservations.created_at
	UpdatedAt  time.Time // reservations.updated_at
}

// SeatIDs returns the ids of the reservation's seats in order.
func (r Reservation) SeatIDs() []uint64 {
	ids := make([]uint64, 0, len(r.Seats))
	for _, s := range r.Seats {
		ids = append(ids, s.ID)
	}
	return ids
}
