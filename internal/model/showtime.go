package model

import "time"

// Showtime is a scheduled screening of a movie. ShowDate carries only the
// calendar date (time of day is zero, UTC); StartTime is the wall clock
// start in "15:04:05" form.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – movie being screened.
//  ShowDate  – date of the screening.
//  StartTime – start time of the screening.
//  CreatedAt – creation timestamp.
type Showtime struct {
	ID        uint64    // showtimes.id
	MovieID   uint64    // showtimes.movie_id
	ShowDate  time.Time // showtimes.show_date
	StartTime string    // showtimes.start_time
	CreatedAt time.Time // showtimes.created_at
}

// DateFormat is the layout used for show dates on the wire and in queries.
const DateFormat = "2006-01-02"

// IsBefore reports whether the show date falls on a calendar day strictly
// earlier than the day of now in loc. A showtime dated today is not
// before today.
func (s Showtime) IsBefore(now time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	sy, sm, sd := s.ShowDate.Date()
	show := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	return show.Before(today)
}
