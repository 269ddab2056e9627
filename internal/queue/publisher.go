package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/movie-reservation/internal/model"
)

const (
	dialTimeout   = 2 * time.Second
	redialBackoff = 5 * time.Second
)

// errBrokerDown is returned without dialling while a failed dial is
// backing off.
var errBrokerDown = errors.New("rabbitmq unavailable")

// Publisher sends reservation events to a durable RabbitMQ queue. The
// connection is opened lazily and re-dialled after a failure, so a broker
// outage only costs the events published while it lasts.
type Publisher struct {
	url   string
	queue string
	dial  func(url string) (*amqp.Connection, error)
	now   func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewPublisher returns a Publisher for queue on the broker at url.
func NewPublisher(url, queue string) *Publisher {
	return &Publisher{url: url, queue: queue, dial: dialBroker, now: time.Now}
}

func dialBroker(url string) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
}

// ReservationCreated publishes a reservation.created event.
func (p *Publisher) ReservationCreated(ctx context.Context, r model.Reservation) error {
	return p.Publish(ctx, NewReservationEvent(EventReservationCreated, r, time.Now()))
}

// ReservationCancelled publishes a reservation.cancelled event.
func (p *Publisher) ReservationCancelled(ctx context.Context, r model.Reservation) error {
	return p.Publish(ctx, NewReservationEvent(EventReservationCancelled, r, time.Now()))
}

// Publish marshals ev and sends it as a persistent message.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.EventID,
			Type:         ev.Type,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.reset()
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	logrus.WithFields(logrus.Fields{"event_id": ev.EventID, "type": ev.Type}).Debug("event published")
	return nil
}

// channel returns an open channel, dialling when needed. p.mu is held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.now().Before(p.retryAt) {
		return nil, errBrokerDown
	}

	conn, err := p.dial(p.url)
	if err != nil {
		p.retryAt = p.now().Add(redialBackoff)
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// declareQueue makes sure the durable queue exists (idempotent).
func declareQueue(ch *amqp.Channel, name string) error {
	if name == "" {
		return errors.New("queue name is empty")
	}
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare %s: %w", name, err)
	}
	return nil
}
