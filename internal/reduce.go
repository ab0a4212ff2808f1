package internal

import (
	"fmt"

	specs "github.com/chrisconley/sessionmeter/specs"
)

// Reduce implements specs.Reduce.
// Converts specs to domain objects, folds them, and converts back to specs.
func Reduce(eventSpecs []specs.EventSpec) (specs.BillingStateSpec, error) {
	events, err := NewEvents(eventSpecs)
	if err != nil {
		return specs.BillingStateSpec{}, err
	}

	return reduce(events).ToSpec(), nil
}

// Track implements specs.Track.
func Track(input specs.SessionInputSpec) (specs.BillingStateSpec, error) {
	events, err := NewEvents(input.Events)
	if err != nil {
		return specs.BillingStateSpec{}, err
	}

	config, err := NewFlattenConfig(input.FlattenConfig())
	if err != nil {
		return specs.BillingStateSpec{}, fmt.Errorf("invalid config: %w", err)
	}

	return reduce(flattenEventStream(events, config)).ToSpec(), nil
}

// reduce folds a time-ordered event stream into billing metrics, stopping at
// the first end event.
func reduce(events []Event) BillingState {
	scan := newBillingScan()
	for _, event := range events {
		scan = scan.apply(event)
		if scan.halted {
			break
		}
	}
	return scan.result()
}

// connectedDevices maps each connected device to the user it reported.
// It is never modified in place; with and without return copies.
type connectedDevices map[DeviceID]UserID

func (c connectedDevices) with(device DeviceID, user UserID) connectedDevices {
	next := make(connectedDevices, len(c)+1)
	for d, u := range c {
		next[d] = u
	}
	next[device] = user
	return next
}

func (c connectedDevices) without(device DeviceID) connectedDevices {
	next := make(connectedDevices, len(c))
	for d, u := range c {
		if d != device {
			next[d] = u
		}
	}
	return next
}

// connected reports whether at least two distinct users are connected.
// One user on several devices does not count.
func (c connectedDevices) connected() bool {
	var first *UserID
	for _, user := range c {
		if first == nil {
			first = &user
		} else if *first != user {
			return true
		}
	}
	return false
}

// billingScan is the reducer state between two events. Every transition
// returns a new scan.
type billingScan struct {
	devices           connectedDevices
	paused            bool
	lastBothConnected *Timestamp // start of the open billable interval
	lastActive        *Timestamp
	trackedTime       Decimal
	stateTime         *Timestamp
	halted            bool
}

func newBillingScan() billingScan {
	return billingScan{devices: connectedDevices{}}
}

func (s billingScan) apply(event Event) billingScan {
	var next billingScan
	switch e := event.(type) {
	case ConnectEvent:
		next = s.connect(e)
	case DisconnectEvent:
		next = s.disconnect(e)
	case PauseEvent:
		next = s.pause(e)
	case UnpauseEvent:
		next = s.unpause(e)
	case EndEvent:
		next = s.end(e)
	case StartEvent:
		next = s
	default:
		panic(fmt.Sprintf("unhandled event type %T", event))
	}
	next.stateTime = timestampRef(event.Time())
	return next
}

func (s billingScan) connect(event ConnectEvent) billingScan {
	wasConnected := s.devices.connected()
	next := s
	next.devices = s.devices.with(event.Device(), event.User())
	if !wasConnected && next.devices.connected() && !s.paused {
		next = next.open(event.Time())
	}
	return next
}

func (s billingScan) disconnect(event DisconnectEvent) billingScan {
	wasConnected := s.devices.connected()
	next := s
	next.devices = s.devices.without(event.Device())
	if wasConnected && s.lastBothConnected != nil && !next.devices.connected() && !s.paused {
		next = next.close(event.Time())
	}
	return next
}

func (s billingScan) pause(event PauseEvent) billingScan {
	next := s
	if s.lastBothConnected != nil && !s.paused {
		next = next.close(event.Time())
	}
	next.paused = true
	return next
}

func (s billingScan) unpause(event UnpauseEvent) billingScan {
	next := s
	if s.devices.connected() {
		next = next.open(event.Time())
	}
	next.paused = false
	return next
}

func (s billingScan) end(event EndEvent) billingScan {
	next := s
	if s.lastBothConnected != nil && !s.paused {
		next = next.close(event.Time())
	}
	next.halted = true
	return next
}

func (s billingScan) open(at Timestamp) billingScan {
	s.lastBothConnected = timestampRef(at)
	s.lastActive = timestampRef(at)
	return s
}

func (s billingScan) close(at Timestamp) billingScan {
	s.trackedTime = s.trackedTime.Add(at.Since(*s.lastBothConnected))
	s.lastBothConnected = nil
	return s
}

func (s billingScan) state() AppState {
	switch {
	case s.paused:
		return Paused
	case s.devices.connected():
		return InProgress
	default:
		return Idle
	}
}

func (s billingScan) result() BillingState {
	return BillingState{
		TrackedTime: s.trackedTime,
		LastActive:  s.lastActive,
		StateTime:   s.stateTime,
		State:       s.state(),
	}
}
