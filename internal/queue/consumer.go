package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
	"github.com/iliyamo/theater-seat-ticketing/internal/metrics"
	"github.com/iliyamo/theater-seat-ticketing/internal/ticket"
)

// Mailer delivers an issued ticket to its customer.
type Mailer interface {
	Deliver(ctx context.Context, ev TicketIssuedEvent) error
}

// Consumer reads the ticket queue and hands each message to a Mailer.
// Messages whose ticket signature does not verify are rejected without
// delivery.
type Consumer struct {
	url      string
	queue    string
	prefetch int
	codec    *ticket.Codec
	mailer   Mailer
}

func NewConsumer(url, queue string, codec *ticket.Codec, mailer Mailer) *Consumer {
	return &Consumer{url: url, queue: queue, prefetch: 50, codec: codec, mailer: mailer}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff (capped at 30s) whenever the
// connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	log := logging.FromContext(ctx).WithField("queue", c.queue)
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("ticket consumer: dial failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, 30*time.Second)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("ticket consumer: loop ended, reconnecting")
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

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	if _, err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
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
			if err := c.Handle(ctx, d.Body); err != nil {
				logging.FromContext(ctx).WithError(err).Warn("ticket consumer: message rejected")
				// no requeue: a message that failed once will fail again
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle processes one message body.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	ev, err := decodeEvent(body)
	if err != nil {
		metrics.TicketDeliveries.WithLabelValues("rejected").Inc()
		return err
	}
	if c.codec != nil {
		if err := c.codec.Verify(ev.Ticket); err != nil {
			metrics.TicketDeliveries.WithLabelValues("rejected").Inc()
			return fmt.Errorf("ticket %s: %w", ev.Reference, err)
		}
	}
	if err := c.mailer.Deliver(ctx, ev); err != nil {
		metrics.TicketDeliveries.WithLabelValues("rejected").Inc()
		return fmt.Errorf("deliver ticket %s: %w", ev.Reference, err)
	}
	metrics.TicketDeliveries.WithLabelValues("delivered").Inc()
	logging.FromContext(ctx).WithFields(logrus.Fields{
		"reference":  ev.Reference,
		"booking_id": ev.BookingID,
	}).Info("ticket delivered")
	return nil
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
