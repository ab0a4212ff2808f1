package specs

import "encoding/json"

// Event type discriminators as they appear on the wire.
const (
	EventTypeStart      = "s"
	EventTypeEnd        = "e"
	EventTypePause      = "p"
	EventTypeUnpause    = "u"
	EventTypeConnect    = "c"
	EventTypeDisconnect = "d"
)

// EventSpec represents a single entry of a session event log.
//
// Session event logs are the input boundary of the billing meter. Each entry is
// either a global session marker (start, end, pause, unpause) or a device report
// that a user is connected or disconnected. Device reports may arrive redundantly
// from several devices of the same participant and in any order; the flattener
// is responsible for turning them into a canonical stream.
//
// The field names are single letters to keep logs compact; they match the
// format produced by the session clients.
type EventSpec struct {
	// Discriminator for the event variant.
	//
	// One of:
	//   - "s": session start
	//   - "e": session end (terminal, nothing after it is processed)
	//   - "p": global pause
	//   - "u": global unpause
	//   - "c": device reports user connected
	//   - "d": device reports user disconnected
	Type string `json:"t"`

	// Timestamp of the event.
	//
	// Any numeric time domain works (seconds, milliseconds, ticks) as long as
	// every event of a log and the TTL use the same unit. Kept as json.Number so
	// values survive decoding without float rounding.
	// Examples: 0, 1700000000, 1700000000.250.
	Time json.Number `json:"c"`

	// User reported by the device.
	//
	// Required for "c" and "d" events and ignored otherwise. Two different user
	// IDs connected at the same time is what makes a session billable.
	User *int64 `json:"u,omitempty"`

	// Device that produced the report.
	//
	// Required for "c" and "d" events and ignored otherwise. A single user may
	// be connected from several devices at once.
	Device string `json:"d,omitempty"`
}

// NewGlobalEvent creates a start, end, pause or unpause event.
func NewGlobalEvent(eventType string, time json.Number) EventSpec {
	return EventSpec{Type: eventType, Time: time}
}

// NewDeviceEvent creates a connect or disconnect event for a user on a device.
func NewDeviceEvent(eventType string, time json.Number, user int64, device string) EventSpec {
	return EventSpec{Type: eventType, Time: time, User: &user, Device: device}
}
