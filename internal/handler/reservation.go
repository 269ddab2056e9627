package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-reservation/internal/model"
	"github.com/iliyamo/movie-reservation/internal/service"
)

// ReservationService is the reservation workflow as seen by the HTTP
// layer. *service.ReservationService implements it.
type ReservationService interface {
	ListAvailableSeats(ctx context.Context, showtimeID uint64) ([]model.Seat, error)
	ListReservations(ctx context.Context, p model.Principal, all bool) ([]model.Reservation, error)
	GetReservation(ctx context.Context, p model.Principal, id uint64) (*model.Reservation, error)
	CreateReservation(ctx context.Context, p model.Principal, in service.CreateReservationInput) (*model.Reservation, error)
	CancelReservation(ctx context.Context, p model.Principal, id uint64) error
}

var _ ReservationService = (*service.ReservationService)(nil)

// ReservationHandler exposes seat availability and the reservation
// lifecycle. Every route except available seats requires JWTAuth.
type ReservationHandler struct {
	svc ReservationService
}

// NewReservationHandler panics when svc is nil.
func NewReservationHandler(svc ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{svc: svc}
}

type createReservationReq struct {
	ShowtimeID uint64   `json:"showtime_id"`
	SeatIDs    []uint64 `json:"seat_ids"`
}

// AvailableSeats handles GET /v1/showtimes/:id/available-seats.
func (h *ReservationHandler) AvailableSeats(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	seats, err := h.svc.ListAvailableSeats(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSeatResponses(seats))
}

// List handles GET /v1/reservations, the staff view over every user.
func (h *ReservationHandler) List(c echo.Context) error {
	return h.list(c, true)
}

// ListMine handles GET /v1/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	return h.list(c, false)
}

func (h *ReservationHandler) list(c echo.Context, all bool) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	list, err := h.svc.ListReservations(ctx, p, all)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponses(list))
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := h.svc.GetReservation(ctx, p, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(*r))
}

// Create handles POST /v1/reservations with {"showtime_id", "seat_ids"}.
// All requested seats are reserved or none are.
func (h *ReservationHandler) Create(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	r, err := h.svc.CreateReservation(ctx, p, service.CreateReservationInput{
		ShowtimeID: req.ShowtimeID,
		SeatIDs:    req.SeatIDs,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(*r))
}

// Cancel handles DELETE /v1/reservations/:id and answers 204.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.svc.CancelReservation(ctx, p, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
