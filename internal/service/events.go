package service

import (
	"context"

	"github.com/iliyamo/movie-reservation/internal/model"
)

// EventPublisher receives reservation lifecycle notifications after the
// corresponding transaction has committed.
type EventPublisher interface {
	ReservationCreated(ctx context.Context, r model.Reservation) error
	ReservationCancelled(ctx context.Context, r model.Reservation) error
}

type noopPublisher struct{}

func (noopPublisher) ReservationCreated(context.Context, model.Reservation) error   { return nil }
func (noopPublisher) ReservationCancelled(context.Context, model.Reservation) error { return nil }
