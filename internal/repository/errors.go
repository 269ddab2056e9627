// Package repository implements MySQL persistence for the catalog, seats,
// reservations and accounts. Errors that callers must react to are
// package sentinels carrying an apperr kind, so handlers can map them to
// HTTP statuses and services can test them with errors.Is after wrapping.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/movie-reservation/internal/apperr"
)

var (
	ErrGenreNotFound       = apperr.NotFound("genre not found")
	ErrMovieNotFound       = apperr.NotFound("movie not found")
	ErrShowtimeNotFound    = apperr.NotFound("showtime not found")
	ErrSeatNotFound        = apperr.NotFound("seat not found")
	ErrReservationNotFound = apperr.NotFound("reservation not found")
	ErrUserNotFound        = apperr.NotFound("user not found")

	ErrGenreExists       = apperr.Conflict("a genre with this name or slug already exists")
	ErrMovieExists       = apperr.Conflict("a movie with this title or slug already exists")
	ErrEmailExists       = apperr.Conflict("email already exists")
	ErrPhoneExists       = apperr.Conflict("phone number already exists")
	ErrReservationExists = apperr.Conflict("you already have a reservation for this showtime")
	ErrSeatTaken         = apperr.Conflict("seat is already reserved")
	ErrShowtimeExists    = apperr.Conflict("movie already has a showtime at this date and time")
	ErrShowtimeReserved  = apperr.Conflict("showtime has reservations")
	ErrInUse             = apperr.Conflict("record is referenced by other records")
)

const (
	mysqlDuplicateEntry = 1062
	mysqlRowReferenced  = 1451
	mysqlNoParentRow    = 1452
)

// isMySQLError reports whether err carries a MySQL server error with code.
func isMySQLError(err error, code uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == code
}

func isDuplicate(err error) bool { return isMySQLError(err, mysqlDuplicateEntry) }

func isReferenced(err error) bool { return isMySQLError(err, mysqlRowReferenced) }

func isMissingParent(err error) bool { return isMySQLError(err, mysqlNoParentRow) }

// duplicateKey returns the key name from a duplicate entry error message,
// e.g. "users.uq_users_phone".
func duplicateKey(err error) string {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return ""
	}
	i := strings.LastIndex(me.Message, "for key '")
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(me.Message[i+len("for key '"):], "'")
}

// inClause returns "?,?,?" for n placeholders and the ids as driver args.
func inClause(ids []uint64) (string, []interface{}) {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}
