// Package notify publishes committed booking changes to RabbitMQ, one
// durable queue per event type.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirinyoku/showseat/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

var queues = []string{domain.EventBookingConfirmed, domain.EventBookingCancelled}

// Publisher keeps one connection and channel open and redials after the
// broker drops them.
type Publisher struct {
	url string
	log *slog.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// Dial connects to url and declares the event queues.
func Dial(url string, log *slog.Logger) (*Publisher, error) {
	const op = "notify.Dial"

	if log == nil {
		log = slog.Default()
	}

	p := &Publisher{url: url, log: log}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connectLocked(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

// Publish sends ev to the queue named after its type. Messages are
// persistent.
func (p *Publisher) Publish(ctx context.Context, ev domain.BookingEvent) error {
	const op = "notify.Publisher.Publish"

	msg, err := newPublishing(ev)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() || p.conn.IsClosed() {
		p.log.WarnContext(ctx, "rabbitmq channel closed, reconnecting")
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("%s:%w", op, err)
		}
	}

	if err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		ev.Type, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}

	err := p.conn.Close()
	p.conn, p.ch = nil, nil
	return err
}

func (p *Publisher) connectLocked() error {
	if p.conn != nil {
		_ = p.conn.Close()
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	for _, q := range queues {
		if _, err := ch.QueueDeclare(
			q,     // name
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		); err != nil {
			_ = conn.Close()
			return fmt.Errorf("declare %s: %w", q, err)
		}
	}

	p.conn, p.ch = conn, ch
	return nil
}

func newPublishing(ev domain.BookingEvent) (amqp.Publishing, error) {
	if ev.Type != domain.EventBookingConfirmed && ev.Type != domain.EventBookingCancelled {
		return amqp.Publishing{}, fmt.Errorf("unknown event type %q", ev.Type)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, err
	}

	ts := ev.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}

	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ts.UTC(),
		Type:         ev.Type,
		Body:         body,
	}, nil
}
