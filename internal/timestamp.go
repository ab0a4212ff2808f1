package internal

import (
	"encoding/json"
	"fmt"
)

type Timestamp struct {
	value Decimal
}

func NewTimestamp(value json.Number) (Timestamp, error) {
	if value == "" {
		return Timestamp{}, fmt.Errorf("timestamp is required")
	}
	d, err := NewDecimal(value.String())
	if err != nil {
		return Timestamp{}, err
	}
	return Timestamp{value: d}, nil
}

// NewOptionalTimestamp decodes a timestamp that may be absent.
func NewOptionalTimestamp(value *json.Number) (*Timestamp, error) {
	if value == nil {
		return nil, nil
	}
	ts, err := NewTimestamp(*value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (t Timestamp) ToDecimal() Decimal {
	return t.value
}

func (t Timestamp) ToNumber() json.Number {
	return json.Number(t.value.String())
}

func (t Timestamp) Cmp(other Timestamp) int {
	return t.value.Cmp(other.value)
}

// Since returns the elapsed time from earlier to t.
func (t Timestamp) Since(earlier Timestamp) Decimal {
	return t.value.Sub(earlier.value)
}

func (t Timestamp) Add(d Decimal) Timestamp {
	return Timestamp{value: t.value.Add(d)}
}

func optionalNumber(t *Timestamp) *json.Number {
	if t == nil {
		return nil
	}
	n := t.ToNumber()
	return &n
}

// TTL is the window within which repeated connects of a device count as one
// uninterrupted connection.
type TTL struct {
	value Decimal
}

func NewTTL(value json.Number) (TTL, error) {
	if value == "" {
		return TTL{}, fmt.Errorf("ttl is required")
	}
	d, err := NewDecimal(value.String())
	if err != nil {
		return TTL{}, err
	}
	if d.Sign() <= 0 {
		return TTL{}, fmt.Errorf("ttl must be positive, got %s", d)
	}
	return TTL{value: d}, nil
}

func (t TTL) ToDecimal() Decimal {
	return t.value
}

// Expired reports whether at least one TTL has passed between from and to.
func (t TTL) Expired(from, to Timestamp) bool {
	return to.Since(from).Cmp(t.value) >= 0
}

// Midpoint returns from + TTL/2, the estimated moment of an unreported drop.
func (t TTL) Midpoint(from Timestamp) Timestamp {
	return from.Add(t.value.Half())
}
