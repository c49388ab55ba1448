// Package inmem provides an in-process message broker with fan-out
// delivery. Slow subscribers lose messages, as with NATS core.
//
// Messages never leave the process. Use natsjs to reach a dev server
// running elsewhere.
package inmem

import (
	"bytes"
	"context"
	"sync"

	"github.com/romshark/tojs/modules/msgbroker"
)

var _ msgbroker.MessageBroker = (*MessageBroker)(nil)

// MessageBroker is an in-memory message broker.
type MessageBroker struct {
	chanBuffer int
	lock       sync.RWMutex
	closed     bool
	subs       map[string]map[*memSub]struct{}
}

type memSub struct {
	ch      chan msgbroker.Message
	topics  []string
	broker  *MessageBroker
	closed  bool
	closeMu sync.Mutex
}

// New creates a broker. chanBuffer <= 0 selects
// msgbroker.DefaultBrokerChanBuffer.
func New(chanBuffer int) *MessageBroker {
	return &MessageBroker{
		chanBuffer: msgbroker.ChanBuffer(chanBuffer),
		subs:       make(map[string]map[*memSub]struct{}),
	}
}

// Close closes all subscriptions. Publish and Subscribe fail afterwards.
func (b *MessageBroker) Close() error {
	b.lock.Lock()
	if b.closed {
		b.lock.Unlock()
		return nil
	}
	b.closed = true
	var all []*memSub
	for _, m := range b.subs {
		for s := range m {
			all = append(all, s)
		}
	}
	b.lock.Unlock()

	for _, s := range all {
		s.Close()
	}
	return nil
}

func (b *MessageBroker) Publish(
	ctx context.Context,
	metrics msgbroker.Metrics,
	subject string,
	data []byte,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	if b.closed {
		return msgbroker.ErrClosed
	}

	metrics.OnPublish(subject)
	subs := b.subs[subject]
	if len(subs) == 0 {
		return nil
	}

	msg := msgbroker.Message{
		Subject: subject,
		Data:    bytes.Clone(data),
	}
	for sub := range subs {
		select {
		case sub.ch <- msg:
		default:
			metrics.OnDeliveryDropped()
		}
	}
	return nil
}

func (b *MessageBroker) Subscribe(
	ctx context.Context, metrics msgbroker.Metrics, subjects ...string,
) (msgbroker.MessageBrokerSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sub := &memSub{
		ch:     make(chan msgbroker.Message, b.chanBuffer),
		topics: subjects,
		broker: b,
	}

	b.lock.Lock()
	defer b.lock.Unlock()
	if b.closed {
		return nil, msgbroker.ErrClosed
	}
	for _, subject := range subjects {
		m, ok := b.subs[subject]
		if !ok {
			m = make(map[*memSub]struct{})
			b.subs[subject] = m
		}
		m[sub] = struct{}{}
	}
	return sub, nil
}

func (s *memSub) C() <-chan msgbroker.Message {
	return s.ch
}

func (s *memSub) Close() {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	b := s.broker
	b.lock.Lock()
	for _, subject := range s.topics {
		if m, ok := b.subs[subject]; ok {
			delete(m, s)
			if len(m) == 0 {
				delete(b.subs, subject)
			}
		}
	}
	b.lock.Unlock()

	close(s.ch)
}
