package mq

import (
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange       = "events"
	DefaultConnectionName = "mailtriage"
	heartbeat             = 10 * time.Second
)

// NewConnection dials the broker and names the connection so it can be told
// apart in the management UI.
func NewConnection(url, name string) (*amqp091.Connection, error) {
	if name == "" {
		name = DefaultConnectionName
	}
	props := amqp091.NewConnectionProperties()
	props.SetClientConnectionName(name)

	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat:  heartbeat,
		Properties: props,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	return conn, nil
}

// DeclareExchange declares a durable topic exchange.
func DeclareExchange(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, amqp091.ExchangeTopic, true, false, false, false, nil)
}
