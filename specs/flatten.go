package specs

import "encoding/json"

// FlattenEventStream normalizes a raw session event log into a canonical stream.
//
// Process:
//  1. Sort events by timestamp
//  2. Split device events per device and deduplicate pause/unpause (FindDeviceStreams)
//  3. Flatten every device stream independently (FlattenDeviceStream)
//  4. Merge global events with the flattened device streams and sort again
//
// The first end event (in sorted order) is kept and nothing after it.
// Returns error only if an event or the config cannot be decoded.
//
// See internal.FlattenEventStream for the reference implementation.
type FlattenEventStream func(events []EventSpec, config FlattenConfigSpec) ([]EventSpec, error)

// FindDeviceStreams sorts an event log by timestamp and splits it into
// per-device streams and the remaining global events.
//
// Pause events are dropped while already paused and unpause events are dropped
// while not paused. Scanning stops right after the first end event, for device
// and global events alike.
//
// See internal.FindDeviceStreams for the reference implementation.
type FindDeviceStreams func(events []EventSpec) (DeviceStreamsSpec, error)

// FlattenDeviceStream reduces one device's connect/disconnect events to an
// alternating sequence, injecting disconnects where the TTL says one was missed.
//
// See internal.FlattenDeviceStream for the reference implementation.
type FlattenDeviceStream func(events []EventSpec, config FlattenConfigSpec) ([]EventSpec, error)

// FlattenConfigSpec defines the heuristics used when flattening device streams.
type FlattenConfigSpec struct {
	// Time-to-live of a device connection.
	//
	// Two connects from the same device less than TTL apart are treated as one
	// uninterrupted connection. A gap of TTL or more means the device dropped
	// without reporting it; the drop is placed at the midpoint of the window,
	// lastConnected + TTL/2. Must be positive and in the same unit as the
	// event timestamps.
	TTL json.Number `json:"ttl"`

	// Optional horizon used to close connections that never reported a disconnect.
	//
	// When set and at least TTL has passed since a device's last connect, a
	// trailing disconnect is added at lastConnected + TTL/2. When nil, no
	// trailing disconnects are inferred.
	CurrentTime *json.Number `json:"currentTime"`
}

// DeviceStreamsSpec is the result of splitting an event log by device.
type DeviceStreamsSpec struct {
	// Device streams in order of each device's first event.
	Devices []DeviceStreamSpec `json:"devices"`

	// Global events (start, end, pause, unpause) that survived pause
	// deduplication, in scan order.
	Other []EventSpec `json:"other"`
}

// DeviceStreamSpec holds the connect/disconnect events of one device.
type DeviceStreamSpec struct {
	Device string      `json:"device"`
	Events []EventSpec `json:"events"`
}
