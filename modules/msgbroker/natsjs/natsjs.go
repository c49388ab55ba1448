// Package natsjs provides a NATS JetStream backed message broker
// with fan-out delivery semantics.
package natsjs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"

	"github.com/romshark/tojs/modules/msgbroker"
)

var (
	_ msgbroker.MessageBroker     = (*MessageBroker)(nil)
	_ msgbroker.StreamInitializer = (*MessageBroker)(nil)
)

// DefaultStreamName is used when Config.StreamConfig has no name.
const DefaultStreamName = "TOJS"

type MessageBroker struct {
	nc   *nats.Conn
	js   nats.JetStreamContext
	conf Config
}

type Config struct {
	// StreamConfig is used by InitStreams. Its subjects are replaced.
	StreamConfig *nats.StreamConfig

	// ChanBuffer <= 0 selects msgbroker.DefaultBrokerChanBuffer.
	ChanBuffer int
}

// natsSub forwards messages of its NATS subscriptions to ch until it's
// closed or the context passed to Subscribe is canceled.
type natsSub struct {
	ch      chan msgbroker.Message
	subs    []*nats.Subscription
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

func New(nc *nats.Conn, conf Config) (*MessageBroker, error) {
	conf.ChanBuffer = msgbroker.ChanBuffer(conf.ChanBuffer)

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("initializing jetstream: %w", err)
	}

	return &MessageBroker{nc: nc, js: js, conf: conf}, nil
}

// InitStreams implements msgbroker.StreamInitializer.
// An existing stream is updated to cover subjects.
func (b *MessageBroker) InitStreams(subjects []string) error {
	var conf nats.StreamConfig
	if b.conf.StreamConfig != nil {
		conf = *b.conf.StreamConfig
	}
	if conf.Name == "" {
		conf.Name = DefaultStreamName
	}
	if conf.Description == "" {
		conf.Description = "build events published by tojs"
	}
	conf.Subjects = subjects

	_, err := b.js.AddStream(&conf)
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		_, err = b.js.UpdateStream(&conf)
	}
	if err != nil {
		return fmt.Errorf("adding stream %q: %w", conf.Name, err)
	}
	return nil
}

func (b *MessageBroker) Publish(
	ctx context.Context,
	metrics msgbroker.Metrics,
	subject string,
	data []byte,
) error {
	_, err := b.js.Publish(subject, data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publishing to %q: %w", subject, err)
	}
	metrics.OnPublish(subject)
	return nil
}

// Subscribe delivers messages of all subjects through one channel.
// The subscription ends when ctx is canceled or it's closed, whichever
// happens first, and C is closed once it has ended.
func (b *MessageBroker) Subscribe(
	ctx context.Context, metrics msgbroker.Metrics, subjects ...string,
) (msgbroker.MessageBrokerSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// The client drops messages and reports a slow consumer
	// when in is full.
	in := make(chan *nats.Msg, b.conf.ChanBuffer)
	s := &natsSub{
		ch:      make(chan msgbroker.Message, b.conf.ChanBuffer),
		subs:    make([]*nats.Subscription, 0, len(subjects)),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, subject := range subjects {
		sub, err := b.nc.ChanSubscribe(subject, in)
		if err != nil {
			s.unsubscribe()
			return nil, fmt.Errorf("subscribing to %q: %w", subject, err)
		}
		s.subs = append(s.subs, sub)
	}
	go s.forward(ctx, in, metrics)
	return s, nil
}

func (s *natsSub) forward(
	ctx context.Context, in <-chan *nats.Msg, metrics msgbroker.Metrics,
) {
	defer close(s.stopped)
	defer close(s.ch)
	defer s.unsubscribe()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case m := <-in:
			msg := msgbroker.Message{Subject: m.Subject, Data: bytes.Clone(m.Data)}
			select {
			case s.ch <- msg:
			default:
				metrics.OnDeliveryDropped()
			}
		}
	}
}

func (s *natsSub) unsubscribe() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
}

func (s *natsSub) C() <-chan msgbroker.Message {
	return s.ch
}

// Close ends the subscription and waits until C is closed.
func (s *natsSub) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}
