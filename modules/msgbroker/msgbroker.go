// Package msgbroker defines the broker build events are published through.
package msgbroker

import (
	"context"
	"errors"
)

// DefaultBrokerChanBuffer is the per-subscription delivery buffer.
// A subscriber that falls this far behind loses messages instead of
// slowing down the publisher.
const DefaultBrokerChanBuffer = 16

var ErrClosed = errors.New("message broker is closed")

// MessageBroker is a common interface for message brokers.
type MessageBroker interface {
	// Subscribe creates a new subscription to one or more subjects.
	Subscribe(
		ctx context.Context, metrics Metrics, subjects ...string,
	) (MessageBrokerSubscription, error)

	// Publish sends a message to a subject without waiting for subscribers.
	Publish(ctx context.Context, metrics Metrics, subject string, data []byte) error
}

// StreamInitializer is implemented by brokers that need their
// subjects declared before the first Publish.
type StreamInitializer interface {
	InitStreams(subjects []string) error
}

// Metrics receives broker instrumentation callbacks.
type Metrics interface {
	OnPublish(subject string)
	OnDeliveryDropped()
}

// NoMetrics discards all callbacks.
type NoMetrics struct{}

func (NoMetrics) OnPublish(string)   {}
func (NoMetrics) OnDeliveryDropped() {}

// MessageBrokerSubscription represents an active message broker subscription.
type MessageBrokerSubscription interface {
	// C returns the channel to receive messages.
	// It is closed when the subscription is closed.
	C() <-chan Message

	// Close closes and removes the subscription.
	Close()
}

// Message represents a received message
type Message struct {
	Subject string
	Data    []byte
}

// ChanBuffer returns n if positive and DefaultBrokerChanBuffer otherwise.
func ChanBuffer(n int) int {
	if n > 0 {
		return n
	}
	return DefaultBrokerChanBuffer
}
