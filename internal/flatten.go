package internal

import (
	"fmt"
	"slices"

	specs "github.com/chrisconley/sessionmeter/specs"
)

// FlattenEventStream implements specs.FlattenEventStream.
// Converts specs to domain objects, flattens, and converts back to specs.
func FlattenEventStream(eventSpecs []specs.EventSpec, configSpec specs.FlattenConfigSpec) ([]specs.EventSpec, error) {
	events, err := NewEvents(eventSpecs)
	if err != nil {
		return nil, err
	}

	config, err := NewFlattenConfig(configSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return eventsToSpecs(flattenEventStream(events, config)), nil
}

// FlattenDeviceStream implements specs.FlattenDeviceStream.
func FlattenDeviceStream(eventSpecs []specs.EventSpec, configSpec specs.FlattenConfigSpec) ([]specs.EventSpec, error) {
	events, err := NewEvents(eventSpecs)
	if err != nil {
		return nil, err
	}

	deviceEvents := make([]DeviceEvent, len(events))
	for i, event := range events {
		deviceEvent, ok := event.(DeviceEvent)
		if !ok {
			return nil, fmt.Errorf("invalid event at index %d: %q is not a device event", i, eventSpecs[i].Type)
		}
		deviceEvents[i] = deviceEvent
	}

	config, err := NewFlattenConfig(configSpec)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return eventsToSpecs(flattenDeviceStream(deviceEvents, config)), nil
}

type FlattenConfig struct {
	ttl     TTL
	horizon *Timestamp
}

func NewFlattenConfig(spec specs.FlattenConfigSpec) (FlattenConfig, error) {
	ttl, err := NewTTL(spec.TTL)
	if err != nil {
		return FlattenConfig{}, fmt.Errorf("invalid ttl: %w", err)
	}

	horizon, err := NewOptionalTimestamp(spec.CurrentTime)
	if err != nil {
		return FlattenConfig{}, fmt.Errorf("invalid current time: %w", err)
	}

	return FlattenConfig{ttl: ttl, horizon: horizon}, nil
}

func (c FlattenConfig) TTL() TTL {
	return c.ttl
}

// Horizon is the current time used for trailing disconnects, nil if unknown.
func (c FlattenConfig) Horizon() *Timestamp {
	return c.horizon
}

// flattenEventStream sorts the log, splits it per device, flattens every
// device stream and merges everything back in time order.
func flattenEventStream(events []Event, config FlattenConfig) []Event {
	sorted := sortByTime(events)

	streams, other := findDeviceStreams(sorted)

	result := make([]Event, 0, len(sorted))
	result = append(result, other...)
	for _, device := range streams.Devices() {
		for _, event := range flattenDeviceStream(streams.Stream(device), config) {
			result = append(result, event)
		}
	}

	return sortByTime(result)
}

// sortByTime returns a copy of events in ascending time order. The sort is
// stable, so events with equal timestamps keep their relative order.
func sortByTime(events []Event) []Event {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return a.Time().Cmp(b.Time())
	})
	return sorted
}

// flattenDeviceStream reduces one device's events to the minimal equivalent
// sequence.
//
// Rules, with lastConnected the time of the latest connect seen:
//   - connect after connect within TTL: dropped, the connection continues
//   - connect after connect TTL or more later: a disconnect is injected at
//     lastConnected + TTL/2 before the new connect
//   - disconnect TTL or more after lastConnected: replaced by a disconnect at
//     lastConnected + TTL/2
//   - disconnect after disconnect: dropped
//   - stream ending connected with the horizon TTL or more past
//     lastConnected: a trailing disconnect at lastConnected + TTL/2
//
// Replacing a stale but real disconnect with the midpoint is an approximation
// kept on purpose: every unobserved drop is estimated the same way.
func flattenDeviceStream(events []DeviceEvent, config FlattenConfig) []DeviceEvent {
	result := make([]DeviceEvent, 0, len(events))
	if len(events) == 0 {
		return result
	}

	scan := deviceScan{ttl: config.TTL()}
	for _, event := range events {
		var emitted []DeviceEvent
		scan, emitted = scan.step(event)
		result = append(result, emitted...)
	}

	return append(result, scan.finish(config.Horizon())...)
}

// deviceScan is the state carried between events of one device stream.
// Each step returns a new scan and leaves the receiver untouched.
type deviceScan struct {
	ttl           TTL
	last          DeviceEvent
	lastConnected *Timestamp
}

func (s deviceScan) step(event DeviceEvent) (deviceScan, []DeviceEvent) {
	if s.last == nil {
		return s.first(event)
	}

	switch e := event.(type) {
	case ConnectEvent:
		return s.connect(e)
	case DisconnectEvent:
		return s.disconnect(e)
	default:
		panic(fmt.Sprintf("unhandled device event type %T", event))
	}
}

func (s deviceScan) first(event DeviceEvent) (deviceScan, []DeviceEvent) {
	next := s
	next.last = event
	if isConnect(event) {
		next.lastConnected = timestampRef(event.Time())
	}
	return next, []DeviceEvent{event}
}

func (s deviceScan) connect(event ConnectEvent) (deviceScan, []DeviceEvent) {
	var emitted []DeviceEvent
	switch {
	case isConnect(s.last) && s.lastConnected != nil:
		if s.ttl.Expired(*s.lastConnected, event.Time()) {
			emitted = []DeviceEvent{s.dropped(event), event}
		}
	default:
		emitted = []DeviceEvent{event}
	}

	next := s.emit(emitted)
	next.lastConnected = timestampRef(event.Time())
	return next, emitted
}

func (s deviceScan) disconnect(event DisconnectEvent) (deviceScan, []DeviceEvent) {
	var emitted []DeviceEvent
	switch {
	case isConnect(s.last) && s.lastConnected != nil && s.ttl.Expired(*s.lastConnected, event.Time()):
		emitted = []DeviceEvent{s.dropped(event)}
	case !isDisconnect(s.last):
		emitted = []DeviceEvent{event}
	}

	return s.emit(emitted), emitted
}

// finish returns the trailing disconnect, if the horizon shows the device
// went silent while connected.
func (s deviceScan) finish(horizon *Timestamp) []DeviceEvent {
	if !isConnect(s.last) || s.lastConnected == nil || horizon == nil {
		return nil
	}
	if !s.ttl.Expired(*s.lastConnected, *horizon) {
		return nil
	}
	return []DeviceEvent{s.dropped(s.last)}
}

// dropped builds the synthetic disconnect for the current connection.
func (s deviceScan) dropped(reporter DeviceEvent) DisconnectEvent {
	return NewDisconnectEvent(s.ttl.Midpoint(*s.lastConnected), reporter.User(), reporter.Device())
}

func (s deviceScan) emit(emitted []DeviceEvent) deviceScan {
	if len(emitted) > 0 {
		s.last = emitted[len(emitted)-1]
	}
	return s
}

func timestampRef(t Timestamp) *Timestamp {
	return &t
}
