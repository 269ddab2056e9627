package handler

import (
	"time"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

type seatResponse struct {
	ID         uint64 `json:"id"`
	ShowtimeID uint64 `json:"showtime_id"`
	SeatNumber uint32 `json:"seat_number"`
	IsReserved bool   `json:"is_reserved"`
}

func toSeatResponse(s model.Seat) seatResponse {
	return seatResponse{ID: s.ID, ShowtimeID: s.ShowtimeID, SeatNumber: s.SeatNumber, IsReserved: s.IsReserved}
}

func toSeatResponses(seats []model.Seat) []seatResponse {
	out := make([]seatResponse, 0, len(seats))
	for _, s := range seats {
		out = append(out, toSeatResponse(s))
	}
	return out
}

type reservationResponse struct {
	ID         uint64         `json:"id"`
	UserID     uint64         `json:"user_id"`
	MovieID    uint64         `json:"movie_id"`
	ShowtimeID uint64         `json:"showtime_id"`
	ShowDate   string         `json:"show_date,omitempty"`
	Seats      []seatResponse `json:"seats"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func toReservationResponse(r model.Reservation) reservationResponse {
	out := reservationResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		MovieID:    r.MovieID,
		ShowtimeID: r.ShowtimeID,
		Seats:      toSeatResponses(r.Seats),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if !r.ShowDate.IsZero() {
		out.ShowDate = r.ShowDate.Format(model.DateFormat)
	}
	return out
}

func toReservationResponses(list []model.Reservation) []reservationResponse {
	out := make([]reservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return out
}

type genreResponse struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Slug        string    `json:"slug"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toGenreResponse(g model.Genre) genreResponse {
	return genreResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Slug:        g.Slug,
		IsActive:    g.IsActive,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

type movieResponse struct {
	ID              uint64    `json:"id"`
	Title           string    `json:"title"`
	GenreID         *uint64   `json:"genre_id"`
	Director        string    `json:"director"`
	DurationMinutes uint32    `json:"duration_minutes"`
	Language        string    `json:"language"`
	ReleaseDate     *string   `json:"release_date"`
	Slug            string    `json:"slug"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toMovieResponse(m model.Movie) movieResponse {
	out := movieResponse{
		ID:              m.ID,
		Title:           m.Title,
		GenreID:         m.GenreID,
		Director:        m.Director,
		DurationMinutes: m.DurationMinutes,
		Language:        m.Language,
		Slug:            m.Slug,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.ReleaseDate != nil {
		d := m.ReleaseDate.Format(model.DateFormat)
		out.ReleaseDate = &d
	}
	return out
}

type showtimeResponse struct {
	ID        uint64    `json:"id"`
	MovieID   uint64    `json:"movie_id"`
	ShowDate  string    `json:"show_date"`
	StartTime string    `json:"start_time"`
	CreatedAt time.Time `json:"created_at"`
}

func toShowtimeResponse(s model.Showtime) showtimeResponse {
	return showtimeResponse{
		ID:        s.ID,
		MovieID:   s.MovieID,
		ShowDate:  s.ShowDate.Format(model.DateFormat),
		StartTime: s.StartTime,
		CreatedAt: s.CreatedAt,
	}
}

type movieScheduleResponse struct {
	movieResponse
	Showtimes []showtimeResponse `json:"showtimes"`
}

func toMovieScheduleResponse(ms repository.MovieSchedule) movieScheduleResponse {
	out := movieScheduleResponse{movieResponse: toMovieResponse(ms.Movie), Showtimes: []showtimeResponse{}}
	for _, st := range ms.Showtimes {
		out.Showtimes = append(out.Showtimes, toShowtimeResponse(st))
	}
	return out
}

type userResponse struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		IsStaff:   u.IsStaff,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}
