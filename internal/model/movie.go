package model

import "time"

// Genre groups movies. Slug is derived from Name when it is not
// supplied and is unique across genres.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique genre name.
//  Description – free-form description (nullable).
//  Slug        – URL-friendly unique identifier.
//  IsActive    – whether the genre is offered to clients.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Genre struct {
	ID          uint64    // genres.id
	Name        string    // genres.name
	Description *string   // genres.description (nullable)
	Slug        string    // genres.slug
	IsActive    bool      // genres.is_active
	CreatedAt   time.Time // genres.created_at
	UpdatedAt   time.Time // genres.updated_at
}

// Movie is a catalog entry. Its identity is fixed once created; the slug
// is only computed when absent.
type Movie struct {
	ID              uint64     // movies.id
	Title           string     // movies.title (unique)
	GenreID         *uint64    // movies.genre_id (nullable)
	Director        string     // movies.director
	DurationMinutes uint32     // movies.duration_minutes
	Language        string     // movies.language
	ReleaseDate     *time.Time // movies.release_date (nullable)
	Slug            string     // movies.slug (unique)
	CreatedAt       time.Time  // movies.created_at
	UpdatedAt       time.Time  // movies.updated_at
}
