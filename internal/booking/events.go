package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type EventType string

const (
	EventConfirmed EventType = "booking.confirmed"
	EventModified  EventType = "booking.modified"
	EventCancelled EventType = "booking.cancelled"
	EventCompleted EventType = "booking.completed"
	EventDeleted   EventType = "booking.deleted"
)

// Event is the message published after a booking state change commits.
type Event struct {
	Type            EventType `json:"type"`
	BookingID       string    `json:"booking_id"`
	ResourceID      string    `json:"resource_id"`
	ResourceKind    string    `json:"resource_kind"`
	UserID          string    `json:"user_id"`
	Status          Status    `json:"status"`
	TotalPriceCents int64     `json:"total_price_cents"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func newEvent(t EventType, b *Booking, at time.Time) Event {
	return Event{
		Type:            t,
		BookingID:       b.ID,
		ResourceID:      b.ResourceID,
		ResourceKind:    string(b.ResourceKind),
		UserID:          b.UserID,
		Status:          b.Status,
		TotalPriceCents: b.TotalPriceCents,
		OccurredAt:      at.UTC(),
	}
}

// EventPublisher delivers booking events. Publishing happens after commit, so
// a failure never rolls back the booking.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// AMQPPublisher publishes events to a durable topic exchange, using the event
// type as routing key.
type AMQPPublisher struct {
	mu       sync.Mutex
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(conn *amqp.Connection, exchange string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %q: %w", exchange, err)
	}
	return &AMQPPublisher{ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx,
		p.exchange,
		string(e.Type),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    e.OccurredAt,
			MessageId:    e.BookingID + ":" + string(e.Type),
			Body:         body,
		},
	)
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}
