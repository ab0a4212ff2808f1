package internal

import (
	"fmt"

	specs "github.com/chrisconley/sessionmeter/specs"
)

// Event is one entry of a session log. The set of implementations is closed:
// StartEvent, EndEvent, PauseEvent, UnpauseEvent, ConnectEvent and
// DisconnectEvent. Switches over events handle all six.
type Event interface {
	Time() Timestamp
	ToSpec() specs.EventSpec
	sessionEvent()
}

// DeviceEvent is an event reported by a device about a user.
type DeviceEvent interface {
	Event
	User() UserID
	Device() DeviceID
}

func NewEvent(spec specs.EventSpec) (Event, error) {
	time, err := NewTimestamp(spec.Time)
	if err != nil {
		return nil, fmt.Errorf("invalid time: %w", err)
	}

	switch spec.Type {
	case specs.EventTypeStart:
		return NewStartEvent(time), nil
	case specs.EventTypeEnd:
		return NewEndEvent(time), nil
	case specs.EventTypePause:
		return NewPauseEvent(time), nil
	case specs.EventTypeUnpause:
		return NewUnpauseEvent(time), nil
	case specs.EventTypeConnect, specs.EventTypeDisconnect:
		user, err := NewUserID(spec.User)
		if err != nil {
			return nil, fmt.Errorf("invalid user: %w", err)
		}
		device, err := NewDeviceID(spec.Device)
		if err != nil {
			return nil, fmt.Errorf("invalid device: %w", err)
		}
		if spec.Type == specs.EventTypeConnect {
			return NewConnectEvent(time, user, device), nil
		}
		return NewDisconnectEvent(time, user, device), nil
	case "":
		return nil, fmt.Errorf("event type is required")
	default:
		return nil, fmt.Errorf("unknown event type %q", spec.Type)
	}
}

// NewEvents decodes a whole log, reporting the index of the first bad event.
func NewEvents(eventSpecs []specs.EventSpec) ([]Event, error) {
	events := make([]Event, len(eventSpecs))
	for i, spec := range eventSpecs {
		event, err := NewEvent(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid event at index %d: %w", i, err)
		}
		events[i] = event
	}
	return events, nil
}

func eventsToSpecs[E Event](events []E) []specs.EventSpec {
	result := make([]specs.EventSpec, len(events))
	for i, event := range events {
		result[i] = event.ToSpec()
	}
	return result
}

type UserID struct {
	value int64
}

func NewUserID(value *int64) (UserID, error) {
	if value == nil {
		return UserID{}, fmt.Errorf("user is required")
	}
	return UserID{value: *value}, nil
}

func (u UserID) ToInt64() int64 {
	return u.value
}

type DeviceID struct {
	value string
}

func NewDeviceID(value string) (DeviceID, error) {
	if value == "" {
		return DeviceID{}, fmt.Errorf("device is required")
	}
	return DeviceID{value: value}, nil
}

func (d DeviceID) ToString() string {
	return d.value
}

type globalEvent struct {
	time Timestamp
}

func (e globalEvent) Time() Timestamp {
	return e.time
}

func (globalEvent) sessionEvent() {}

// StartEvent marks the start of a session.
type StartEvent struct{ globalEvent }

func NewStartEvent(time Timestamp) StartEvent {
	return StartEvent{globalEvent{time: time}}
}

func (e StartEvent) ToSpec() specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeStart, e.time.ToNumber())
}

// EndEvent marks the end of a session. Nothing after it is processed.
type EndEvent struct{ globalEvent }

func NewEndEvent(time Timestamp) EndEvent {
	return EndEvent{globalEvent{time: time}}
}

func (e EndEvent) ToSpec() specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeEnd, e.time.ToNumber())
}

type PauseEvent struct{ globalEvent }

func NewPauseEvent(time Timestamp) PauseEvent {
	return PauseEvent{globalEvent{time: time}}
}

func (e PauseEvent) ToSpec() specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypePause, e.time.ToNumber())
}

type UnpauseEvent struct{ globalEvent }

func NewUnpauseEvent(time Timestamp) UnpauseEvent {
	return UnpauseEvent{globalEvent{time: time}}
}

func (e UnpauseEvent) ToSpec() specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeUnpause, e.time.ToNumber())
}

type deviceReport struct {
	time   Timestamp
	user   UserID
	device DeviceID
}

func (e deviceReport) Time() Timestamp {
	return e.time
}

func (e deviceReport) User() UserID {
	return e.user
}

func (e deviceReport) Device() DeviceID {
	return e.device
}

func (deviceReport) sessionEvent() {}

type ConnectEvent struct{ deviceReport }

func NewConnectEvent(time Timestamp, user UserID, device DeviceID) ConnectEvent {
	return ConnectEvent{deviceReport{time: time, user: user, device: device}}
}

func (e ConnectEvent) ToSpec() specs.EventSpec {
	return specs.NewDeviceEvent(specs.EventTypeConnect, e.time.ToNumber(), e.user.value, e.device.value)
}

type DisconnectEvent struct{ deviceReport }

func NewDisconnectEvent(time Timestamp, user UserID, device DeviceID) DisconnectEvent {
	return DisconnectEvent{deviceReport{time: time, user: user, device: device}}
}

func (e DisconnectEvent) ToSpec() specs.EventSpec {
	return specs.NewDeviceEvent(specs.EventTypeDisconnect, e.time.ToNumber(), e.user.value, e.device.value)
}

func isConnect(e Event) bool {
	_, ok := e.(ConnectEvent)
	return ok
}

func isDisconnect(e Event) bool {
	_, ok := e.(DisconnectEvent)
	return ok
}
