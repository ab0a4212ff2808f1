package tracker

import (
	"go.uber.org/zap"

	"github.com/chrisconley/sessionmeter/internal/infra"
	specs "github.com/chrisconley/sessionmeter/specs"
)

// Session numbers are assigned by the tracker in arrival order, starting at 1.

type SessionReceivedEvent struct {
	Session int64
	Events  int
}

func (SessionReceivedEvent) EventType() infra.EventType { return infra.SessionReceived }

type StreamFlattenedEvent struct {
	Session int64
	Events  int
}

func (StreamFlattenedEvent) EventType() infra.EventType { return infra.StreamFlattened }

type BillingStateReducedEvent struct {
	Session int64
	State   specs.BillingStateSpec
}

func (BillingStateReducedEvent) EventType() infra.EventType { return infra.BillingStateReduced }

type SessionRejectedEvent struct {
	Session int64
	Err     error
}

func (SessionRejectedEvent) EventType() infra.EventType { return infra.SessionRejected }

func (t *Tracker) subscribeLogging() {
	t.bus.Subscribe(infra.SessionReceived, func(e infra.Event) {
		ev := e.(SessionReceivedEvent)
		t.logger.Debug("session received",
			zap.Int64("session", ev.Session),
			zap.Int("events", ev.Events))
	})
	t.bus.Subscribe(infra.StreamFlattened, func(e infra.Event) {
		ev := e.(StreamFlattenedEvent)
		t.logger.Debug("stream flattened",
			zap.Int64("session", ev.Session),
			zap.Int("events", ev.Events))
	})
	t.bus.Subscribe(infra.BillingStateReduced, func(e infra.Event) {
		ev := e.(BillingStateReducedEvent)
		t.logger.Debug("billing state reduced",
			zap.Int64("session", ev.Session),
			zap.String("tracked_time", ev.State.TrackedTime.String()),
			zap.Int("state", ev.State.State))
	})
	t.bus.Subscribe(infra.SessionRejected, func(e infra.Event) {
		ev := e.(SessionRejectedEvent)
		t.logger.Warn("session rejected",
			zap.Int64("session", ev.Session),
			zap.Error(ev.Err))
	})
}
