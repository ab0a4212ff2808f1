package specs

import "encoding/json"

// Session states as they appear on the wire.
const (
	StateIdle       = 0
	StateInProgress = 1
	StatePaused     = 2
)

// Reduce folds a normalized, time-sorted event stream into billing metrics.
//
// Process:
//  1. Track which devices are connected and for which user
//  2. Open a billable interval when two distinct users become connected while unpaused
//  3. Close it on disconnect, pause or end, adding its length to TrackedTime
//  4. Stop at the first end event
//
// Input is expected to come from FlattenEventStream but any sequence is accepted.
// Returns error only if an event cannot be decoded.
//
// See internal.Reduce for the reference implementation.
type Reduce func(events []EventSpec) (BillingStateSpec, error)

// Track flattens a session input and reduces it to billing metrics.
//
// Equivalent to Reduce(FlattenEventStream(input.Events, input config)).
//
// See internal.Track for the reference implementation.
type Track func(input SessionInputSpec) (BillingStateSpec, error)

// SessionInputSpec is the full input record for one session.
type SessionInputSpec struct {
	// Raw session event log in any order.
	Events []EventSpec `json:"events"`

	// Connection time-to-live, see FlattenConfigSpec.TTL.
	TTL json.Number `json:"ttl"`

	// Optional horizon for trailing disconnects, see FlattenConfigSpec.CurrentTime.
	CurrentTime *json.Number `json:"currentTime"`
}

// FlattenConfig returns the flattening parameters of the input.
func (s SessionInputSpec) FlattenConfig() FlattenConfigSpec {
	return FlattenConfigSpec{TTL: s.TTL, CurrentTime: s.CurrentTime}
}

// BillingStateSpec represents the billing metrics derived from a session log.
type BillingStateSpec struct {
	// Cumulative billable time.
	//
	// Sum of all intervals during which at least two distinct users were
	// connected and the session was not paused. Same unit as the timestamps.
	TrackedTime json.Number `json:"trackedTime"`

	// Start of the most recent billable interval.
	//
	// Set when two users become connected while unpaused, or on unpause while
	// two users are connected. Nil if the session was never billable.
	LastActive *json.Number `json:"lastActive"`

	// Timestamp of the last event folded into the metrics.
	//
	// Nil for an empty log.
	StateTime *json.Number `json:"stateTime"`

	// Coarse session state after the last folded event.
	//
	// One of StateIdle (0), StateInProgress (1) or StatePaused (2). Paused
	// wins over in progress.
	State int `json:"state"`
}
