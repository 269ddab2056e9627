package model

// Seat is a bookable unit of one showtime. Reservation state lives on the
// seat row itself, so the same physical seat in two screenings is two
// Seat records.
//
// Fields:
//  ID         – primary key identifier.
//  ShowtimeID – showtime the seat belongs to.
//  SeatNumber – number of the seat, unique within the showtime.
//  IsReserved – whether an active reservation owns the seat.
type Seat struct {
	ID         uint64 // seats.id
	ShowtimeID uint64 // seats.showtime_id
	SeatNumber uint32 // seats.seat_number
	IsReserved bool   // seats.is_reserved
}
