package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"mailtriage/pkg/config"
	"mailtriage/pkg/trace"
)

// Publisher publishes JSON events to a topic exchange.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	// Enabled reports whether published events reach a broker.
	Enabled() bool
	Close()
}

// AMQPPublisher is a Publisher backed by a single RabbitMQ channel.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	appID    string
	now      func() time.Time
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
}

// NewPublisher connects to cfg.URL and declares cfg.Exchange.
func NewPublisher(cfg config.MQConfig) (*AMQPPublisher, error) {
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	name := cfg.ConnectionName
	if name == "" {
		name = DefaultConnectionName
	}

	conn, err := NewConnection(cfg.URL, name)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := DeclareExchange(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		exchange: exchange,
		appID:    name,
		now:      time.Now,
	}, nil
}

// Exchange is the exchange events are published to.
func (p *AMQPPublisher) Exchange() string { return p.exchange }

func (p *AMQPPublisher) Enabled() bool { return true }

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Publish publishes payload as a persistent JSON message with the given
// routing key. The trace id in ctx, if any, becomes the correlation id and a
// message header.
func (p *AMQPPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	msg, err := p.message(ctx, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", routingKey, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	return nil
}

func (p *AMQPPublisher) message(ctx context.Context, payload any) (amqp091.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp091.Publishing{}, err
	}

	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.now().UTC(),
		AppId:        p.appID,
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		msg.Headers = amqp091.Table{trace.TraceIDKey: traceID}
		msg.CorrelationId = traceID
	}
	return msg, nil
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }
func (NopPublisher) Enabled() bool                              { return false }
func (NopPublisher) Close()                                     {}
