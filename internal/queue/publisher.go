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
	"github.com/sony/gobreaker"

	"github.com/iliyamo/theater-seat-ticketing/internal/booking"
	"github.com/iliyamo/theater-seat-ticketing/internal/config"
	"github.com/iliyamo/theater-seat-ticketing/internal/logging"
)

var errNacked = errors.New("broker did not confirm the ticket message")

// Publisher implements booking.Notifier on RabbitMQ.  Messages are
// persistent and published in confirm mode, so a ticket counts as sent
// only once the broker has acknowledged it.  Repeated failures open a
// circuit breaker and later sends fail fast until the cooldown passes.
type Publisher struct {
	url     string
	queue   string
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
	publish func(ctx context.Context, body []byte) error

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

var _ booking.Notifier = (*Publisher)(nil)

// NewPublisher does not dial; the connection is opened on first use and
// re-opened after any channel error.
func NewPublisher(cfg config.NotifyConfig) *Publisher {
	p := &Publisher{url: cfg.URL, queue: cfg.Queue, now: time.Now}
	p.publish = p.publishAMQP
	failures := uint32(max(cfg.BreakerFailures, 1))
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "ticket-publisher",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Warn("circuit breaker state changed")
		},
	})
	return p
}

// Send publishes the ticket and waits for the broker confirm.
func (p *Publisher) Send(ctx context.Context, n booking.Notification) (bool, error) {
	body, err := json.Marshal(NewTicketIssuedEvent(n, p.now()))
	if err != nil {
		return false, fmt.Errorf("marshal ticket event: %w", err)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publish(ctx, body)
	})
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("reference", n.Reference).Warn("ticket publish failed")
		return false, err
	}
	return true, nil
}

func (p *Publisher) publishAMQP(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	conf, err := ch.PublishWithDeferredConfirmWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	acked, err := conf.WaitContext(ctx)
	if err != nil {
		p.reset()
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return errNacked
	}
	return nil
}

// channel returns the cached confirm-mode channel, dialing if needed.
// Callers hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if p.url == "" {
		return nil, errors.New("no broker url configured")
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	if _, err := declare(ch, p.queue); err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// declare makes sure the durable ticket queue exists.  It is idempotent.
func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("queue declare: %w", err)
	}
	return q, nil
}
