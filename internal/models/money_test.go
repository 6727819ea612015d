package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Arithmetic(t *testing.T) {
	a := NewMoney(d("10.10"), "usd")
	b := NewMoney(d("0.20"), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "10.30 USD", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount.Equal(d("9.90")))

	_, err = a.Add(NewMoney(d("1"), EUR))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
	_, err = a.Sub(NewMoney(d("1"), EUR))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestMoney_ConvertAndRound(t *testing.T) {
	m := NewMoney(d("10"), USD).Convert(d("0.9137"), EUR).Round()
	assert.Equal(t, EUR, m.Currency)
	assert.True(t, m.Amount.Equal(d("9.14")))

	assert.True(t, RoundMoney(d("0.005")).Equal(d("0.01")))
	assert.True(t, RoundMoney(d("-0.005")).Equal(d("-0.01")))
	assert.True(t, NewMoney(decimal.Zero, USD).IsZero())
	assert.True(t, NewMoney(d("-1"), USD).IsNegative())
}
