package policy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
)

var (
	staff    = model.Principal{ID: 1, IsStaff: true, IsActive: true}
	owner    = model.Principal{ID: 2, IsActive: true}
	stranger = model.Principal{ID: 3, IsActive: true}
	inactive = model.Principal{ID: 2, IsActive: false}
)

func assertForbidden(t *testing.T, err error) {
	t.Helper()
	assert.True(t, errors.Is(err, apperr.ErrForbidden), "expected forbidden, got %v", err)
}

func TestCanAccessReservation(t *testing.T) {
	res := model.Reservation{ID: 10, UserID: owner.ID}

	assert.NoError(t, CanAccessReservation(staff, res))
	assert.NoError(t, CanAccessReservation(owner, res))
	assertForbidden(t, CanAccessReservation(stranger, res))
	assertForbidden(t, CanAccessReservation(inactive, res))
}

func TestCanListAllReservations(t *testing.T) {
	assert.NoError(t, CanListAllReservations(staff))
	assertForbidden(t, CanListAllReservations(owner))
	assertForbidden(t, CanListAllReservations(model.Principal{ID: 1, IsStaff: true}))
}

func TestCanCreateReservation(t *testing.T) {
	assert.NoError(t, CanCreateReservation(owner))
	assert.NoError(t, CanCreateReservation(staff))
	assertForbidden(t, CanCreateReservation(inactive))
	assertForbidden(t, CanCreateReservation(model.Principal{}))
}

func TestUserRules(t *testing.T) {
	assert.NoError(t, CanListUsers(staff))
	assertForbidden(t, CanListUsers(owner))

	assert.NoError(t, CanManageUser(owner, owner.ID))
	assert.NoError(t, CanManageUser(staff, owner.ID))
	assertForbidden(t, CanManageUser(stranger, owner.ID))
}

func TestCanWriteCatalog(t *testing.T) {
	assert.NoError(t, CanWriteCatalog(staff))
	assertForbidden(t, CanWriteCatalog(owner))
}
