package internal

import (
	"encoding/json"
	"testing"

	specs "github.com/chrisconley/sessionmeter/specs"
	"github.com/stretchr/testify/require"
)

// Test helpers

func start(c json.Number) specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeStart, c)
}

func end(c json.Number) specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeEnd, c)
}

func pause(c json.Number) specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypePause, c)
}

func unpause(c json.Number) specs.EventSpec {
	return specs.NewGlobalEvent(specs.EventTypeUnpause, c)
}

func connect(c json.Number, user int64, device string) specs.EventSpec {
	return specs.NewDeviceEvent(specs.EventTypeConnect, c, user, device)
}

func disconnect(c json.Number, user int64, device string) specs.EventSpec {
	return specs.NewDeviceEvent(specs.EventTypeDisconnect, c, user, device)
}

type flattenConfigOption func(*specs.FlattenConfigSpec)

func withCurrentTime(c json.Number) flattenConfigOption {
	return func(s *specs.FlattenConfigSpec) { s.CurrentTime = &c }
}

// newTestFlattenConfig creates a FlattenConfigSpec with the given ttl.
// CurrentTime defaults to nil (no trailing disconnects) if not specified.
func newTestFlattenConfig(ttl json.Number, opts ...flattenConfigOption) specs.FlattenConfigSpec {
	spec := specs.FlattenConfigSpec{TTL: ttl}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec
}

func mustEvents(t *testing.T, eventSpecs ...specs.EventSpec) []Event {
	t.Helper()
	events, err := NewEvents(eventSpecs)
	require.NoError(t, err)
	return events
}

func mustDeviceEvents(t *testing.T, eventSpecs ...specs.EventSpec) []DeviceEvent {
	t.Helper()
	events := mustEvents(t, eventSpecs...)
	deviceEvents := make([]DeviceEvent, len(events))
	for i, event := range events {
		deviceEvent, ok := event.(DeviceEvent)
		require.True(t, ok, "event %d is not a device event", i)
		deviceEvents[i] = deviceEvent
	}
	return deviceEvents
}

func mustFlattenConfig(t *testing.T, spec specs.FlattenConfigSpec) FlattenConfig {
	t.Helper()
	config, err := NewFlattenConfig(spec)
	require.NoError(t, err)
	return config
}

func mustTimestamp(t *testing.T, value json.Number) Timestamp {
	t.Helper()
	ts, err := NewTimestamp(value)
	require.NoError(t, err)
	return ts
}
