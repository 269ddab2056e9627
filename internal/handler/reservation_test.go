package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-reservation/internal/apperr"
	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/repository"
	"github.com/iliyamo/movie-reservation/internal/service"
)

func reservationServer(svc ReservationService, p model.Principal) *echo.Echo {
	h := NewReservationHandler(svc)
	e := echo.New()
	g := e.Group("/v1", as(p))
	g.GET("/showtimes/:id/available-seats", h.AvailableSeats)
	g.GET("/reservations", h.List)
	g.GET("/my-reservations", h.ListMine)
	g.GET("/reservations/:id", h.Get)
	g.POST("/reservations", h.Create)
	g.DELETE("/reservations/:id", h.Cancel)
	return e
}

func decodeError(t *testing.T, body []byte) (string, string) {
	t.Helper()
	var out struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	return out.Error, out.Code
}

func TestCreateReservationHandler(t *testing.T) {
	show := time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)
	var got service.CreateReservationInput
	svc := &mockReservationService{
		CreateReservationFunc: func(_ context.Context, p model.Principal, in service.CreateReservationInput) (*model.Reservation, error) {
			assert.Equal(t, customer, p)
			got = in
			return &model.Reservation{
				ID: 11, UserID: p.ID, MovieID: 3, ShowtimeID: in.ShowtimeID, ShowDate: show,
				Seats: []model.Seat{{ID: 73, ShowtimeID: 7, SeatNumber: 3, IsReserved: true}, {ID: 77, ShowtimeID: 7, SeatNumber: 7, IsReserved: true}},
			}, nil
		},
	}

	rec := call(reservationServer(svc, customer), http.MethodPost, "/v1/reservations", `{"showtime_id":7,"seat_ids":[77,73]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, service.CreateReservationInput{ShowtimeID: 7, SeatIDs: []uint64{77, 73}}, got)

	var body reservationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, uint64(11), body.ID)
	assert.Equal(t, "2030-01-15", body.ShowDate)
	require.Len(t, body.Seats, 2)
	assert.Equal(t, uint32(3), body.Seats[0].SeatNumber)
}

func TestCreateReservationHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperr.Validation("seat_ids must contain at least one seat"), http.StatusBadRequest, "validation"},
		{"unknown showtime", repository.ErrShowtimeNotFound, http.StatusNotFound, "not_found"},
		{"seat taken", apperr.Conflict("seats [73] are already reserved"), http.StatusConflict, "conflict"},
		{"wrapped conflict", fmt.Errorf("insert reservation: %w", repository.ErrReservationExists), http.StatusConflict, "conflict"},
		{"inactive", apperr.Forbidden("account is inactive"), http.StatusForbidden, "forbidden"},
		{"database down", errors.New("driver: bad connection"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockReservationService{
				CreateReservationFunc: func(context.Context, model.Principal, service.CreateReservationInput) (*model.Reservation, error) {
					return nil, tt.err
				},
			}
			rec := call(reservationServer(svc, customer), http.MethodPost, "/v1/reservations", `{"showtime_id":7,"seat_ids":[73]}`)
			assert.Equal(t, tt.status, rec.Code)
			msg, code := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.code, code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, msg, "driver")
			}
		})
	}
}

func TestCreateReservationRejectsMalformedBody(t *testing.T) {
	svc := &mockReservationService{}
	rec := call(reservationServer(svc, customer), http.MethodPost, "/v1/reservations", `{"showtime_id":"seven"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationRoutesRequirePrincipal(t *testing.T) {
	e := reservationServer(&mockReservationService{}, model.Principal{})
	for _, r := range []struct{ method, path string }{
		{http.MethodGet, "/v1/my-reservations"},
		{http.MethodPost, "/v1/reservations"},
		{http.MethodDelete, "/v1/reservations/1"},
	} {
		rec := call(e, r.method, r.path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
	}
}

func TestCancelReservationHandler(t *testing.T) {
	var cancelled uint64
	svc := &mockReservationService{
		CancelReservationFunc: func(_ context.Context, _ model.Principal, id uint64) error {
			cancelled = id
			return nil
		},
	}
	rec := call(reservationServer(svc, customer), http.MethodDelete, "/v1/reservations/11", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, uint64(11), cancelled)

	svc.CancelReservationFunc = func(context.Context, model.Principal, uint64) error { return service.ErrPastShowtime }
	rec = call(reservationServer(svc, customer), http.MethodDelete, "/v1/reservations/11", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	msg, _ := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, "cannot cancel past showtime", msg)

	rec = call(reservationServer(svc, customer), http.MethodDelete, "/v1/reservations/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListReservationsHandler(t *testing.T) {
	var sawAll []bool
	svc := &mockReservationService{
		ListReservationsFunc: func(_ context.Context, p model.Principal, all bool) ([]model.Reservation, error) {
			sawAll = append(sawAll, all)
			if all && !p.IsStaff {
				return nil, apperr.Forbidden("you do not have permission to perform this action")
			}
			return []model.Reservation{}, nil
		},
	}
	rec := call(reservationServer(svc, customer), http.MethodGet, "/v1/reservations", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(reservationServer(svc, customer), http.MethodGet, "/v1/my-reservations", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = call(reservationServer(svc, staff), http.MethodGet, "/v1/reservations", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []bool{true, false, true}, sawAll)
}

func TestGetReservationAndAvailableSeats(t *testing.T) {
	svc := &mockReservationService{
		GetReservationFunc: func(context.Context, model.Principal, uint64) (*model.Reservation, error) {
			return nil, repository.ErrReservationNotFound
		},
		ListAvailableSeatsFunc: func(_ context.Context, id uint64) ([]model.Seat, error) {
			return []model.Seat{{ID: 71, ShowtimeID: id, SeatNumber: 1}}, nil
		},
	}
	e := reservationServer(svc, customer)

	rec := call(e, http.MethodGet, "/v1/reservations/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(e, http.MethodGet, "/v1/showtimes/7/available-seats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":71,"showtime_id":7,"seat_number":1,"is_reserved":false}]`, rec.Body.String())
}
