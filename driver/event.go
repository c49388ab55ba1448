package driver

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/romshark/tojs/modules/msgbroker"
)

// SubjectGenerated is the subject an Event is published to
// for every generated file.
const SubjectGenerated = "tojs.generated"

// Event kinds.
const (
	KindClass = "class"
	KindMixin = "mixin"
)

// Event describes one generated file.
type Event struct {
	// Build identifies the run that generated the file.
	// Events of the same run share it.
	Build string `json:"build"`

	Class    string    `json:"class"`
	Kind     string    `json:"kind"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Size     int       `json:"size"`
	Handlers []string  `json:"handlers,omitempty"`
	Time     time.Time `json:"time"`
}

// buildIDLength is the number of random bytes in a build ID.
const buildIDLength = 12

// newBuildID returns a random URL-safe build ID. Its alphabet contains
// none of the NATS subject tokens '.', '*' and '>'.
func newBuildID() string {
	b := make([]byte, buildIDLength)
	_, _ = rand.Read(b) // Never returns an error.
	return base64.RawURLEncoding.EncodeToString(b)
}

// brokerMetrics counts publications and logs dropped deliveries.
type brokerMetrics struct {
	log       *slog.Logger
	published atomic.Int64
	dropped   atomic.Int64
}

var _ msgbroker.Metrics = (*brokerMetrics)(nil)

func (m *brokerMetrics) OnPublish(subject string) {
	m.published.Add(1)
	m.log.Debug("published build event", slog.String("subject", subject))
}

func (m *brokerMetrics) OnDeliveryDropped() {
	m.dropped.Add(1)
	m.log.Warn("build event dropped for slow subscriber")
}

// publish sends e without failing the build. Events are best effort.
func (d *Driver) publish(ctx context.Context, e Event) {
	if d.broker == nil {
		return
	}
	b, err := json.Marshal(e)
	if err != nil {
		d.log.Error("encoding build event", slog.Any("err", err))
		return
	}
	if err := d.broker.Publish(ctx, d.metrics, SubjectGenerated, b); err != nil {
		d.log.Warn("publishing build event",
			slog.String("class", e.Class), slog.Any("err", err))
	}
}
