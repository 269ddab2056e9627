package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShowtimeIsBefore(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) Showtime {
		return Showtime{ShowDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
	}

	assert.True(t, day(2026, 10, 17).IsBefore(now, time.UTC))
	assert.False(t, day(2026, 10, 18).IsBefore(now, time.UTC), "same day is not in the past")
	assert.False(t, day(2026, 10, 19).IsBefore(now, time.UTC))
}

func TestShowtimeIsBeforeUsesLocation(t *testing.T) {
	// 23:30 UTC on the 18th is already the 19th in UTC+2.
	now := time.Date(2026, 10, 18, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*60*60)
	st := Showtime{ShowDate: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)}

	assert.True(t, st.IsBefore(now, loc))
	assert.False(t, st.IsBefore(now, nil))
}

func TestReservationSeatIDs(t *testing.T) {
	r := Reservation{Seats: []Seat{{ID: 3}, {ID: 7}}}
	assert.Equal(t, []uint64{3, 7}, r.SeatIDs())
	assert.Empty(t, Reservation{}.SeatIDs())
}
