package natsjs_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	natsctr "github.com/testcontainers/testcontainers-go/modules/nats"

	"github.com/romshark/tojs/modules/msgbroker"
	"github.com/romshark/tojs/modules/msgbroker/natsjs"
)

type countingMetrics struct {
	published atomic.Int64
	dropped   atomic.Int64
}

func (m *countingMetrics) OnPublish(string)   { m.published.Add(1) }
func (m *countingMetrics) OnDeliveryDropped() { m.dropped.Add(1) }

func setupNATS(t *testing.T) *nats.Conn {
	t.Helper()
	if testing.Short() {
		t.Skip("requires a NATS container")
	}
	ctx := context.Background()
	ctr, err := natsctr.Run(ctx, "nats:latest")
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, ctr.Terminate(ctx)) })

	url, err := ctr.ConnectionString(ctx)
	require.NoError(t, err)
	conn, err := nats.Connect(url)
	require.NoError(t, err)
	t.Cleanup(conn.Close)
	return conn
}

func TestPublishSubscribe(t *testing.T) {
	conn := setupNATS(t)
	ctx := context.Background()

	b, err := natsjs.New(conn, natsjs.Config{})
	require.NoError(t, err)
	require.NoError(t, b.InitStreams([]string{"tojs.generated"}))
	// Initializing twice updates the existing stream.
	require.NoError(t, b.InitStreams([]string{"tojs.generated"}))

	var m countingMetrics
	sub, err := b.Subscribe(ctx, &m, "tojs.generated")
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	require.NoError(t, conn.Flush())

	require.NoError(t, b.Publish(ctx, &m, "tojs.generated", []byte("hello")))
	select {
	case msg := <-sub.C():
		require.Equal(t, "tojs.generated", msg.Subject)
		require.Equal(t, "hello", string(msg.Data))
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
	require.Equal(t, int64(1), m.published.Load())

	js, err := conn.JetStream()
	require.NoError(t, err)
	info, err := js.StreamInfo(natsjs.DefaultStreamName)
	require.NoError(t, err)
	require.Equal(t, uint64(1), info.State.Msgs)
}

func TestPublishWithoutStream(t *testing.T) {
	conn := setupNATS(t)

	b, err := natsjs.New(conn, natsjs.Config{})
	require.NoError(t, err)
	var m countingMetrics
	err = b.Publish(context.Background(), &m, "tojs.generated", nil)
	require.Error(t, err)
	require.Zero(t, m.published.Load())
}

func TestCloseSubscription(t *testing.T) {
	conn := setupNATS(t)

	b, err := natsjs.New(conn, natsjs.Config{
		StreamConfig: &nats.StreamConfig{Name: "CUSTOM"},
	})
	require.NoError(t, err)
	require.NoError(t, b.InitStreams([]string{"a", "b"}))

	sub, err := b.Subscribe(context.Background(), &countingMetrics{}, "a", "b")
	require.NoError(t, err)
	sub.Close()
	sub.Close()
	_, ok := <-sub.C()
	require.False(t, ok)
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	conn := setupNATS(t)

	b, err := natsjs.New(conn, natsjs.Config{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := b.Subscribe(ctx, &countingMetrics{}, "tojs.generated")
	require.NoError(t, err)
	cancel()
	select {
	case _, ok := <-sub.C():
		require.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription outlived its context")
	}
	sub.Close()

	_, err = b.Subscribe(ctx, &countingMetrics{}, "tojs.generated")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEverySubscriberReceives(t *testing.T) {
	conn := setupNATS(t)
	ctx := context.Background()

	b, err := natsjs.New(conn, natsjs.Config{})
	require.NoError(t, err)
	require.NoError(t, b.InitStreams([]string{"tojs.generated"}))

	var m countingMetrics
	subs := make([]msgbroker.MessageBrokerSubscription, 2)
	for i := range subs {
		sub, err := b.Subscribe(ctx, &m, "tojs.generated")
		require.NoError(t, err)
		t.Cleanup(sub.Close)
		subs[i] = sub
	}
	require.NoError(t, conn.Flush())

	require.NoError(t, b.Publish(ctx, &m, "tojs.generated", []byte("hello")))
	for _, sub := range subs {
		select {
		case msg := <-sub.C():
			require.Equal(t, "hello", string(msg.Data))
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for message")
		}
	}
	require.Zero(t, m.dropped.Load())
}
