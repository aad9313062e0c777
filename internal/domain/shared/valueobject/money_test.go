package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(105000), VND)
		require.NoError(t, err)
		assert.Equal(t, VND, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(105000)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyVNDFromString(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := NewMoneyVNDFromString("35000")
		require.NoError(t, err)
		assert.Equal(t, VND, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(35000)))
	})

	t.Run("invalid string", func(t *testing.T) {
		_, err := NewMoneyVNDFromString("not-a-number")
		assert.Error(t, err)
	})
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same-currency amounts", func(t *testing.T) {
		a := NewMoneyVNDFromInt(105000)
		b := NewMoneyVNDFromInt(35000)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(140000)))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyVNDFromInt(100)
		b, _ := NewMoney(decimal.NewFromInt(100), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})
}

func TestMoneySubtract(t *testing.T) {
	a := NewMoneyVNDFromInt(140000)
	b := NewMoneyVNDFromInt(35000)
	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(105000)))
}

func TestMoneyComparisons(t *testing.T) {
	a := NewMoneyVNDFromInt(100)
	b := NewMoneyVNDFromInt(200)

	lt, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(NewMoneyVNDFromInt(100)))
	assert.False(t, a.Equals(b))
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, ZeroVND().IsZero())
	assert.True(t, NewMoneyVNDFromInt(1).IsPositive())
	assert.True(t, NewMoneyVNDFromInt(-1).IsNegative())
	assert.True(t, NewMoneyVNDFromInt(-1).Negate().IsPositive())
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	m := NewMoneyVNDFromInt(105000)
	data, err := json.Marshal(m)
	require.NoError(t, err)

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan("35000"))
	assert.Equal(t, VND, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(35000)))
}
