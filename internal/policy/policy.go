// Package policy holds the authorization rules of the service. Every rule
// is a pure predicate over the acting principal and, for object level
// checks, the owning user id. A denied check yields an apperr forbidden
// error; callers never turn a denial into an empty result.
package policy

import (
	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
)

// ErrInactive is returned for principals whose account is disabled.
var ErrInactive = apperr.Forbidden("account is inactive")

// errDenied is the generic denial.
var errDenied = apperr.Forbidden("you do not have permission to perform this action")

// RequireActive allows any authenticated, active principal.
func RequireActive(p model.Principal) error {
	if p.ID == 0 || !p.IsActive {
		return ErrInactive
	}
	return nil
}

// RequireStaff allows active staff principals only.
func RequireStaff(p model.Principal) error {
	if err := RequireActive(p); err != nil {
		return err
	}
	if !p.IsStaff {
		return errDenied
	}
	return nil
}

// CanCreateReservation allows any active principal to book seats.
func CanCreateReservation(p model.Principal) error { return RequireActive(p) }

// CanListAllReservations guards the global reservation list.
func CanListAllReservations(p model.Principal) error { return RequireStaff(p) }

// CanAccessReservation guards viewing or cancelling one reservation:
// staff or the owning user.
func CanAccessReservation(p model.Principal, r model.Reservation) error {
	return ownerOrStaff(p, r.UserID)
}

// CanListUsers guards the user directory.
func CanListUsers(p model.Principal) error { return RequireStaff(p) }

// CanManageUser guards retrieve/update/delete of a user record: staff or
// the user themself.
func CanManageUser(p model.Principal, userID uint64) error {
	return ownerOrStaff(p, userID)
}

// CanWriteCatalog guards genre, movie and showtime mutations.
func CanWriteCatalog(p model.Principal) error { return RequireStaff(p) }

func ownerOrStaff(p model.Principal, ownerID uint64) error {
	if err := RequireActive(p); err != nil {
		return err
	}
	if p.IsStaff || p.ID == ownerID {
		return nil
	}
	return errDenied
}
