package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Consumer drains the reservation event queue and appends one line per
// event to out.
type Consumer struct {
	url   string
	queue string
	out   io.Writer
}

// NewConsumer returns a consumer that writes to out, typically a rotating
// file from logging.RotatingFile.
func NewConsumer(url, queue string, out io.Writer) *Consumer {
	return &Consumer{url: url, queue: queue, out: out}
}

// Run connects to the broker and consumes until ctx is cancelled. Dial and
// channel failures are retried with exponential backoff capped at 30s.
// Messages that cannot be handled are rejected without requeue so a bad
// payload never spins the loop.
func (c *Consumer) Run(ctx context.Context) error {
	log := logrus.WithField("queue", c.queue)
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("reservation consumer: dial failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("reservation consumer: loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logrus.WithError(err).Warn("reservation consumer: set QoS failed")
	}
	if err := declareQueue(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				logrus.WithError(err).Error("reservation consumer: handle message failed")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return fmt.Errorf("incomplete event %q", ev.EventID)
	}
	if _, err := io.WriteString(c.out, formatEvent(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatEvent renders a single human-friendly line for ev.
func formatEvent(ev ReservationEvent) string {
	seats := make([]string, 0, len(ev.SeatNumbers))
	for _, n := range ev.SeatNumbers {
		seats = append(seats, fmt.Sprint(n))
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | reservation_id=%d | user_id=%d | movie_id=%d | showtime_id=%d | show_date=%s | seats=[%s]\n",
		ev.OccurredAt, ev.Type, ev.EventID, ev.ReservationID, ev.UserID, ev.MovieID, ev.ShowtimeID, ev.ShowDate, strings.Join(seats, ","))
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
