package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecimal(t *testing.T) {
	t.Run("keeps digits of large fractional timestamps", func(t *testing.T) {
		d, err := NewDecimal("1700000000123.456")

		require.NoError(t, err)
		assert.Equal(t, "1700000000123.456", d.String())
	})

	t.Run("renders exponents in plain notation", func(t *testing.T) {
		d, err := NewDecimal("1E+3")

		require.NoError(t, err)
		assert.Equal(t, "1000", d.String())
	})

	for _, input := range []string{"", "abc", "NaN", "Infinity", "-Infinity"} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := NewDecimal(input)

			assert.Error(t, err)
		})
	}
}

func TestDecimalArithmetic(t *testing.T) {
	mustDecimal := func(s string) Decimal {
		d, err := NewDecimal(s)
		require.NoError(t, err)
		return d
	}

	t.Run("adds and subtracts exactly", func(t *testing.T) {
		a := mustDecimal("1700000000123.456")

		assert.Equal(t, "1700000000123.956", a.Add(mustDecimal("0.5")).String())
		assert.Equal(t, "0.3", mustDecimal("0.5").Sub(mustDecimal("0.2")).String())
	})

	t.Run("multiplies exactly", func(t *testing.T) {
		assert.Equal(t, "0.025", mustDecimal("2.5").Mul(mustDecimal("0.01")).String())
	})

	t.Run("halves without trailing zeros", func(t *testing.T) {
		assert.Equal(t, "2", mustDecimal("4").Half().String())
		assert.Equal(t, "2.5", mustDecimal("5").Half().String())
		assert.Equal(t, "0.05", mustDecimal("0.1").Half().String())
	})

	t.Run("compares by value", func(t *testing.T) {
		assert.Equal(t, 0, mustDecimal("2").Cmp(mustDecimal("2.000")))
		assert.Equal(t, -1, mustDecimal("1.9").Cmp(mustDecimal("2")))
		assert.Equal(t, -1, mustDecimal("-1").Sign())
	})

	t.Run("zero value is zero", func(t *testing.T) {
		var d Decimal

		assert.True(t, d.IsZero())
		assert.Equal(t, "0", d.String())
		assert.Equal(t, "7", d.Add(NewDecimalFromInt64(7)).String())
	})
}

func TestTTL(t *testing.T) {
	t.Run("rejects missing and non-positive values", func(t *testing.T) {
		_, err := NewTTL("")
		assert.EqualError(t, err, "ttl is required")

		_, err = NewTTL("0")
		assert.EqualError(t, err, "ttl must be positive, got 0")

		_, err = NewTTL("-4")
		assert.EqualError(t, err, "ttl must be positive, got -4")
	})

	t.Run("expires at exactly one ttl", func(t *testing.T) {
		ttl, err := NewTTL("4")
		require.NoError(t, err)

		assert.False(t, ttl.Expired(mustTimestamp(t, "0"), mustTimestamp(t, "3.999")))
		assert.True(t, ttl.Expired(mustTimestamp(t, "0"), mustTimestamp(t, "4")))
		assert.True(t, ttl.Expired(mustTimestamp(t, "0"), mustTimestamp(t, "9")))
	})

	t.Run("midpoint is half a ttl later", func(t *testing.T) {
		ttl, err := NewTTL("5")
		require.NoError(t, err)

		assert.Equal(t, "12.5", ttl.Midpoint(mustTimestamp(t, "10")).ToNumber().String())
	})
}

func TestNewOptionalTimestamp(t *testing.T) {
	t.Run("returns nil for absent value", func(t *testing.T) {
		ts, err := NewOptionalTimestamp(nil)

		require.NoError(t, err)
		assert.Nil(t, ts)
	})

	t.Run("decodes present value", func(t *testing.T) {
		ts, err := NewOptionalTimestamp(numberRef("10"))

		require.NoError(t, err)
		require.NotNil(t, ts)
		assert.Equal(t, numberRef("10"), optionalNumber(ts))
	})
}
