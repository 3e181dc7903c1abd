// Package mq provides a broker-agnostic publish/subscribe transport for
// task lifecycle events, with RabbitMQ and Google Pub/Sub backends.
package mq

import "context"

// Message is a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Returning an error nacks the message so
// the broker can redeliver it.
type Handler func(ctx context.Context, msg Message) error

// Broker is the transport used by the event publisher and the events
// subcommand.
type Broker interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}
