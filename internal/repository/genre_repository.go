package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/gosimple/slug"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// GenreRepo provides CRUD operations for genres.
type GenreRepo struct {
	db *sql.DB
}

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{db: db} }

const genreColumns = `id, name, description, slug, is_active, created_at, updated_at`

func scanGenre(row interface{ Scan(...interface{}) error }, g *model.Genre) error {
	var desc sql.NullString
	if err := row.Scan(&g.ID, &g.Name, &desc, &g.Slug, &g.IsActive, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return err
	}
	g.Description = nil
	if desc.Valid {
		d := desc.String
		g.Description = &d
	}
	return nil
}

// genreSlug returns the explicit slug when set and one derived from the
// name otherwise.
func genreSlug(g *model.Genre) string {
	if s := strings.TrimSpace(g.Slug); s != "" {
		return slug.Make(s)
	}
	return slug.Make(g.Name)
}

// List returns all genres ordered by name.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+genreColumns+` FROM genres ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := scanGenre(rows, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID returns ErrGenreNotFound when no row matches.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (*model.Genre, error) {
	var g model.Genre
	err := scanGenre(r.db.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = ?`, id), &g)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGenreNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Create inserts g, deriving the slug from the name when absent, and
// reloads it to pick up defaults.
func (r *GenreRepo) Create(ctx context.Context, g *model.Genre) error {
	g.Slug = genreSlug(g)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO genres (name, description, slug, is_active) VALUES (?, ?, ?, ?)`,
		g.Name, g.Description, g.Slug, g.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return ErrGenreExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanGenre(r.db.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = ?`, id), g)
}

// explicitSlug normalises a caller supplied slug, or returns "" when none
// was given so the stored one is kept.
func explicitSlug(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return ""
	}
	return slug.Make(s)
}

// Update overwrites the mutable fields of g. The stored slug is kept
// unless g carries a new one.
func (r *GenreRepo) Update(ctx context.Context, g *model.Genre) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE genres SET name = ?, description = ?, slug = COALESCE(NULLIF(?, ''), slug), is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		g.Name, g.Description, explicitSlug(g.Slug), g.IsActive, g.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrGenreExists
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 for unchanged rows too; tell them apart.
		if _, err := r.GetByID(ctx, g.ID); err != nil {
			return err
		}
	}
	return scanGenre(r.db.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = ?`, g.ID), g)
}

// Delete removes a genre. Movies referencing it keep existing with a NULL
// genre.
func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM genres WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGenreNotFound
	}
	return nil
}
