package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// MovieRepo provides CRUD operations for movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// MovieSchedule is a movie with its showtimes on one date.
type MovieSchedule struct {
	Movie     model.Movie
	Showtimes []model.Showtime
}

const movieColumns = `m.id, m.title, m.genre_id, m.director, m.duration_minutes, m.language, m.release_date, m.slug, m.created_at, m.updated_at`

func scanMovie(row interface{ Scan(...interface{}) error }, m *model.Movie, extra ...interface{}) error {
	var (
		genreID sql.NullInt64
		release sql.NullTime
	)
	dest := append([]interface{}{
		&m.ID, &m.Title, &genreID, &m.Director, &m.DurationMinutes, &m.Language, &release, &m.Slug, &m.CreatedAt, &m.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	m.GenreID, m.ReleaseDate = nil, nil
	if genreID.Valid {
		id := uint64(genreID.Int64)
		m.GenreID = &id
	}
	if release.Valid {
		d := release.Time
		m.ReleaseDate = &d
	}
	return nil
}

func movieSlug(m *model.Movie) string {
	if s := strings.TrimSpace(m.Slug); s != "" {
		return slug.Make(s)
	}
	return slug.Make(m.Title)
}

func releaseArg(d *time.Time) interface{} {
	if d == nil {
		return nil
	}
	return d.Format(model.DateFormat)
}

// List returns all movies ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+movieColumns+` FROM movies m ORDER BY m.title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Movie{}
	for rows.Next() {
		var m model.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetByID returns ErrMovieNotFound when no row matches.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	var m model.Movie
	err := scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.id = ?`, id), &m)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Create inserts m, deriving the slug from the title when absent.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	m.Slug = movieSlug(m)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movies (title, genre_id, director, duration_minutes, language, release_date, slug) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Title, m.GenreID, m.Director, m.DurationMinutes, m.Language, releaseArg(m.ReleaseDate), m.Slug)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrMovieExists
		case isMissingParent(err):
			return ErrGenreNotFound
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanMovie(r.db.QueryRowContext(ctx, `SELECT `+movieColumns+` FROM movies m WHERE m.id = ?`, id), m)
}

// Update overwrites the mutable fields of m. The stored slug is kept
// unless m carries a new one.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE movies SET title = ?, genre_id = ?, director = ?, duration_minutes = ?, language = ?, release_date = ?, slug = COALESCE(NULLIF(?, ''), slug), updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		m.Title, m.GenreID, m.Director, m.DurationMinutes, m.Language, releaseArg(m.ReleaseDate), explicitSlug(m.Slug), m.ID)
	if err != nil {
		switch {
		case isDuplicate(err):
			return ErrMovieExists
		case isMissingParent(err):
			return ErrGenreNotFound
		}
		return err
	}
	got, err := r.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	*m = *got
	return nil
}

// Delete removes a movie. Movies with showtimes cannot be deleted.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		if isReferenced(err) {
			return ErrInUse
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// ListShowingOn returns the movies that have at least one showtime on
// date, each with those showtimes ordered by start time.
func (r *MovieRepo) ListShowingOn(ctx context.Context, date time.Time) ([]MovieSchedule, error) {
	q := `SELECT ` + movieColumns + `, st.id, st.show_date, st.start_time, st.created_at
FROM movies m
JOIN showtimes st ON st.movie_id = m.id
WHERE st.show_date = ?
ORDER BY m.title, m.id, st.start_time`
	rows, err := r.db.QueryContext(ctx, q, date.Format(model.DateFormat))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []MovieSchedule{}
	for rows.Next() {
		var (
			m  model.Movie
			st model.Showtime
		)
		if err := scanMovie(rows, &m, &st.ID, &st.ShowDate, &st.StartTime, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.MovieID = m.ID
		if n := len(out); n == 0 || out[n-1].Movie.ID != m.ID {
			out = append(out, MovieSchedule{Movie: m})
		}
		last := &out[len(out)-1]
		last.Showtimes = append(last.Showtimes, st)
	}
	return out, rows.Err()
}
