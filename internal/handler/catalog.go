package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
)

// maxSeatsPerShowtime caps seat generation for a single showtime.
const maxSeatsPerShowtime = 1000

var startTimeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d(:[0-5]\d)?$`)

// GenreStore is the genre persistence used by CatalogHandler.
type GenreStore interface {
	List(ctx context.Context) ([]model.Genre, error)
	GetByID(ctx context.Context, id uint64) (*model.Genre, error)
	Create(ctx context.Context, g *model.Genre) error
	Update(ctx context.Context, g *model.Genre) error
	Delete(ctx context.Context, id uint64) error
}

// MovieStore is the movie persistence used by CatalogHandler.
type MovieStore interface {
	List(ctx context.Context) ([]model.Movie, error)
	GetByID(ctx context.Context, id uint64) (*model.Movie, error)
	Create(ctx context.Context, m *model.Movie) error
	Update(ctx context.Context, m *model.Movie) error
	Delete(ctx context.Context, id uint64) error
	ListShowingOn(ctx context.Context, date time.Time) ([]repository.MovieSchedule, error)
}

// ShowtimeStore is the showtime persistence used by CatalogHandler.
type ShowtimeStore interface {
	Create(ctx context.Context, s *model.Showtime, seatCount int) error
	GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
	ListByMovie(ctx context.Context, movieID uint64) ([]model.Showtime, error)
	Delete(ctx context.Context, id uint64) error
}

// SeatStore is the seat lookup used by CatalogHandler.
type SeatStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Seat, error)
	ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.Seat, error)
}

// CatalogHandler serves genres, movies, showtimes and seats. Write
// routes are registered behind RequireCatalogWriter.
type CatalogHandler struct {
	Genres    GenreStore
	Movies    MovieStore
	Showtimes ShowtimeStore
	Seats     SeatStore
}

// NewCatalogHandler constructs a CatalogHandler and panics if any
// dependency is nil.
func NewCatalogHandler(genres GenreStore, movies MovieStore, showtimes ShowtimeStore, seats SeatStore) *CatalogHandler {
	if genres == nil || movies == nil || showtimes == nil || seats == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Genres: genres, Movies: movies, Showtimes: showtimes, Seats: seats}
}

// ----- genres -----

// genreReq is the body of genre create and update. Absent fields keep
// their current value on update.
type genreReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Slug        *string `json:"slug"`
	IsActive    *bool   `json:"is_active"`
}

func (r genreReq) apply(g *model.Genre) error {
	if r.Name != nil {
		g.Name = strings.TrimSpace(*r.Name)
	}
	if r.Description != nil {
		g.Description = nil
		if d := strings.TrimSpace(*r.Description); d != "" {
			g.Description = &d
		}
	}
	if r.Slug != nil && strings.TrimSpace(*r.Slug) != "" {
		g.Slug = strings.TrimSpace(*r.Slug)
	}
	if r.IsActive != nil {
		g.IsActive = *r.IsActive
	}
	switch {
	case g.Name == "":
		return apperr.Validation("name is required")
	case len(g.Name) > 100:
		return apperr.Validation("name must be at most 100 characters")
	}
	return nil
}

// ListGenres handles GET /v1/genres.
func (h *CatalogHandler) ListGenres(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Genres.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]genreResponse, 0, len(list))
	for _, g := range list {
		out = append(out, toGenreResponse(g))
	}
	return c.JSON(http.StatusOK, out)
}

// GetGenre handles GET /v1/genres/:id.
func (h *CatalogHandler) GetGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenreResponse(*g))
}

// CreateGenre handles POST /v1/genres.
func (h *CatalogHandler) CreateGenre(c echo.Context) error {
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	g := model.Genre{IsActive: true}
	if err := req.apply(&g); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Genres.Create(ctx, &g); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toGenreResponse(g))
}

// UpdateGenre handles PUT /v1/genres/:id. Only the fields present in the
// body change; the slug stays unless a new one is given.
func (h *CatalogHandler) UpdateGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := req.apply(g); err != nil {
		return respondError(c, err)
	}
	if err := h.Genres.Update(ctx, g); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toGenreResponse(*g))
}

// DeleteGenre handles DELETE /v1/genres/:id.
func (h *CatalogHandler) DeleteGenre(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Genres.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- movies -----

// movieReq is the body of movie create and update. Absent fields keep
// their current value on update; genre_id 0 and an empty release_date
// clear them.
type movieReq struct {
	Title           *string `json:"title"`
	GenreID         *uint64 `json:"genre_id"`
	Director        *string `json:"director"`
	DurationMinutes *uint32 `json:"duration_minutes"`
	Language        *string `json:"language"`
	ReleaseDate     *string `json:"release_date"`
	Slug            *string `json:"slug"`
}

func trimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (r movieReq) apply(m *model.Movie) error {
	trimmed(&m.Title, r.Title)
	trimmed(&m.Director, r.Director)
	trimmed(&m.Language, r.Language)
	if r.DurationMinutes != nil {
		m.DurationMinutes = *r.DurationMinutes
	}
	if r.GenreID != nil {
		m.GenreID = nil
		if *r.GenreID != 0 {
			id := *r.GenreID
			m.GenreID = &id
		}
	}
	if r.ReleaseDate != nil {
		m.ReleaseDate = nil
		if raw := strings.TrimSpace(*r.ReleaseDate); raw != "" {
			d, err := parseDate("release_date", raw)
			if err != nil {
				return err
			}
			m.ReleaseDate = &d
		}
	}
	if r.Slug != nil && strings.TrimSpace(*r.Slug) != "" {
		m.Slug = strings.TrimSpace(*r.Slug)
	}
	if m.Title == "" {
		return apperr.Validation("title is required")
	}
	if m.DurationMinutes == 0 {
		return apperr.Validation("duration_minutes must be positive")
	}
	return nil
}

// ListMovies handles GET /v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Movies.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]movieResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMovieResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

// GetMovie handles GET /v1/movies/:id.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResponse(*m))
}

// CreateMovie handles POST /v1/movies.
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	var m model.Movie
	if err := req.apply(&m); err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Movies.Create(ctx, &m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toMovieResponse(m))
}

// UpdateMovie handles PUT /v1/movies/:id with the same partial semantics
// as UpdateGenre.
func (h *CatalogHandler) UpdateMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	m, err := h.Movies.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	if err := req.apply(m); err != nil {
		return respondError(c, err)
	}
	if err := h.Movies.Update(ctx, m); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toMovieResponse(*m))
}

// DeleteMovie handles DELETE /v1/movies/:id. Movies with showtimes are
// rejected with 409.
func (h *CatalogHandler) DeleteMovie(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Movies.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// MoviesShowingOn handles GET /v1/movies/showtimes?date=YYYY-MM-DD and
// returns the movies screened that day with their showtimes.
func (h *CatalogHandler) MoviesShowingOn(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("date"))
	if raw == "" {
		return respondError(c, apperr.Validation("date query parameter is required"))
	}
	date, err := parseDate("date", raw)
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	list, err := h.Movies.ListShowingOn(ctx, date)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]movieScheduleResponse, 0, len(list))
	for _, ms := range list {
		out = append(out, toMovieScheduleResponse(ms))
	}
	return c.JSON(http.StatusOK, out)
}

// MovieShowtimes handles GET /v1/movies/:id/showtimes.
func (h *CatalogHandler) MovieShowtimes(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := h.Movies.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	list, err := h.Showtimes.ListByMovie(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]showtimeResponse, 0, len(list))
	for _, st := range list {
		out = append(out, toShowtimeResponse(st))
	}
	return c.JSON(http.StatusOK, out)
}

// ----- showtimes & seats -----

type showtimeReq struct {
	MovieID   uint64 `json:"movie_id"`
	ShowDate  string `json:"show_date"`
	StartTime string `json:"start_time"`
	SeatCount int    `json:"seat_count"`
}

// CreateShowtime handles POST /v1/showtimes. Seats numbered 1..seat_count
// are created together with the showtime.
func (h *CatalogHandler) CreateShowtime(c echo.Context) error {
	var req showtimeReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if req.MovieID == 0 {
		return respondError(c, apperr.Validation("movie_id is required"))
	}
	date, err := parseDate("show_date", strings.TrimSpace(req.ShowDate))
	if err != nil {
		return respondError(c, err)
	}
	start := strings.TrimSpace(req.StartTime)
	if !startTimeRe.MatchString(start) {
		return respondError(c, apperr.Validation("start_time must be HH:MM or HH:MM:SS"))
	}
	if len(start) == len("15:04") {
		start += ":00"
	}
	if req.SeatCount < 1 || req.SeatCount > maxSeatsPerShowtime {
		return respondError(c, apperr.Validation("seat_count must be between 1 and %d", maxSeatsPerShowtime))
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	st := model.Showtime{MovieID: req.MovieID, ShowDate: date, StartTime: start}
	if err := h.Showtimes.Create(ctx, &st, req.SeatCount); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toShowtimeResponse(st))
}

// GetShowtime handles GET /v1/showtimes/:id.
func (h *CatalogHandler) GetShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toShowtimeResponse(*st))
}

// DeleteShowtime handles DELETE /v1/showtimes/:id. Showtimes that still
// have reservations are rejected with 409.
func (h *CatalogHandler) DeleteShowtime(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if err := h.Showtimes.Delete(ctx, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ShowtimeSeats handles GET /v1/showtimes/:id/seats, the full seat map.
func (h *CatalogHandler) ShowtimeSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	if _, err := h.Showtimes.GetByID(ctx, id); err != nil {
		return respondError(c, err)
	}
	seats, err := h.Seats.ListByShowtime(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSeatResponses(seats))
}

// GetSeat handles GET /v1/seats/:id.
func (h *CatalogHandler) GetSeat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()
	s, err := h.Seats.GetByID(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSeatResponse(*s))
}
