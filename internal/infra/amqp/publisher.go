// Package amqp publishes room lifecycle events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// DefaultExchange receives room.created, room.launched and room.ended.
const DefaultExchange = "quiz.rooms"

// Publisher implements app.EventPublisher. With an empty URL it is disabled and drops events.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	now      func() time.Time
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if url == "" {
		log.Printf("amqp: url is empty, lifecycle events are disabled")
		return &Publisher{exchange: exchange, now: time.Now}, nil
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Printf("amqp: publishing lifecycle events to %s", exchange)
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
		now:      time.Now,
	}, nil
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	if !p.enabled {
		return nil
	}
	msg, err := newPublishing(routingKey, payload, p.now())
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Close(); err != nil {
		log.Printf("amqp: close channel: %v", err)
	}
	if err := p.conn.Close(); err != nil {
		return fmt.Errorf("close rabbitmq connection: %w", err)
	}
	return nil
}

func newPublishing(routingKey string, payload any, at time.Time) (amqp091.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("marshal %s event: %w", routingKey, err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    at,
		Body:         body,
		Headers: amqp091.Table{
			"event_type": routingKey,
		},
	}, nil
}
