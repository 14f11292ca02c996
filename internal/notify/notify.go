// Package notify delivers committed pool events to logs, queues and live
// subscribers.
package notify

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
)

// Notifier receives every event after its transaction committed. Delivery
// failures are the notifier's own concern and never fail the operation.
type Notifier interface {
	Notify(ctx context.Context, ev dex.Event)
}

// Envelope is the wire form of an event on queues and websockets.
type Envelope struct {
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
	SentAt time.Time       `json:"sent_at"`
}

// NewEnvelope wraps ev with its name.
func NewEnvelope(ev dex.Event) (*Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return &Envelope{Event: ev.EventName(), Data: data, SentAt: time.Now().UTC()}, nil
}

// Fanout forwards to each notifier in order.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, ev dex.Event) {
	for _, n := range f {
		n.Notify(ctx, ev)
	}
}

// Log writes events to logrus.
type Log struct{}

func (Log) Notify(_ context.Context, ev dex.Event) {
	entry := log.WithField("event", ev.EventName())
	switch e := ev.(type) {
	case *dex.SwapEvent:
		entry.WithFields(log.Fields{
			"dex_id":          e.PoolID,
			"direction":       e.Direction.String(),
			"input":           e.InputAmount,
			"output":          e.OutputAmount,
			"protocol_fee":    e.ProtocolFee,
			"remaining":       e.RemainingTokens,
			"ready_to_launch": e.ReadyToLaunch,
		}).Info("swap")
	case *dex.LaunchedEvent:
		entry.WithFields(log.Fields{
			"dex_id":    e.PoolID,
			"amm_pool":  e.AmmPoolID,
			"amount_0":  e.Amounts[0],
			"amount_1":  e.Amounts[1],
			"lp_burned": e.LpBurned,
		}).Info("dex launched")
	default:
		entry.Infof("%+v", ev)
	}
}

// Publisher sends a message to a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, message interface{}) error
}

// Queue publishes each event to the queue named after it.
type Queue struct {
	publisher Publisher
	// events limits publishing to these names; empty publishes everything.
	events map[string]bool
}

func NewQueue(publisher Publisher, events ...string) *Queue {
	q := &Queue{publisher: publisher, events: make(map[string]bool)}
	for _, name := range events {
		q.events[name] = true
	}
	return q
}

func (q *Queue) Notify(ctx context.Context, ev dex.Event) {
	name := ev.EventName()
	if len(q.events) > 0 && !q.events[name] {
		return
	}
	env, err := NewEnvelope(ev)
	if err != nil {
		log.WithError(err).WithField("event", name).Error("Failed to encode event")
		return
	}
	if err := q.publisher.Publish(ctx, name, env); err != nil {
		log.WithError(err).WithField("event", name).Error("Failed to publish event")
	}
}
