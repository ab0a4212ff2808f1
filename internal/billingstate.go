package internal

import (
	"encoding/json"

	specs "github.com/chrisconley/sessionmeter/specs"
)

type AppState int

const (
	Idle AppState = iota
	InProgress
	Paused
)

func (s AppState) String() string {
	switch s {
	case Idle:
		return "idle"
	case InProgress:
		return "in_progress"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// ToInt returns the wire value of the state.
func (s AppState) ToInt() int {
	switch s {
	case InProgress:
		return specs.StateInProgress
	case Paused:
		return specs.StatePaused
	default:
		return specs.StateIdle
	}
}

// BillingState is the outcome of reducing a session log.
type BillingState struct {
	TrackedTime Decimal
	LastActive  *Timestamp
	StateTime   *Timestamp
	State       AppState
}

func (b BillingState) ToSpec() specs.BillingStateSpec {
	return specs.BillingStateSpec{
		TrackedTime: json.Number(b.TrackedTime.String()),
		LastActive:  optionalNumber(b.LastActive),
		StateTime:   optionalNumber(b.StateTime),
		State:       b.State.ToInt(),
	}
}
