package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency_IsValid(t *testing.T) {
	tests := []struct {
		currency Currency
		isValid  bool
	}{
		{USD, true},
		{EUR, true},
		{Currency("NZD"), true},
		{Currency("usd"), false},
		{Currency("US"), false},
		{Currency("DOLLAR"), false},
		{Currency(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.currency), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.currency.IsValid())
		})
	}
}

func TestNewMoney(t *testing.T) {
	m, err := NewMoney(decimal.NewFromInt(100), USD)
	require.NoError(t, err)
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	assert.Equal(t, USD, m.Currency())

	_, err = NewMoney(decimal.NewFromInt(100), "")
	assert.Error(t, err)

	_, err = NewMoney(decimal.NewFromInt(100), "dollars")
	assert.Error(t, err)
}

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString("125.50", EUR)
	require.NoError(t, err)
	assert.Equal(t, "125.50 EUR", m.String())

	_, err = NewMoneyFromString("not-a-number", EUR)
	assert.Error(t, err)
}

func TestMoney_Add(t *testing.T) {
	a := MustMoney(decimal.NewFromInt(60), USD)
	b := MustMoney(decimal.NewFromInt(40), USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.True(t, sum.Amount().Equal(decimal.NewFromInt(100)))

	c := MustMoney(decimal.NewFromInt(40), EUR)
	_, err = a.Add(c)
	assert.Error(t, err)
}

func TestMoney_Subtract(t *testing.T) {
	a := MustMoney(decimal.NewFromInt(110), USD)
	b := MustMoney(decimal.NewFromInt(10), USD)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(100)))

	c := MustMoney(decimal.NewFromInt(10), JPY)
	_, err = a.Subtract(c)
	assert.Error(t, err)
}

func TestMoney_Mul(t *testing.T) {
	price := MustMoney(decimal.NewFromInt(50), USD)
	total := price.Mul(decimal.NewFromInt(2))
	assert.True(t, total.Amount().Equal(decimal.NewFromInt(100)))
}

func TestMoney_Comparisons(t *testing.T) {
	a := MustMoney(decimal.NewFromInt(100), USD)
	b := MustMoney(decimal.NewFromInt(60), USD)

	gt, err := a.GreaterThan(b)
	require.NoError(t, err)
	assert.True(t, gt)

	_, err = a.GreaterThan(MustMoney(decimal.NewFromInt(60), GBP))
	assert.Error(t, err)

	assert.True(t, a.Equals(MustMoney(decimal.NewFromInt(100), USD)))
	assert.False(t, a.Equals(b))
	assert.False(t, a.Equals(MustMoney(decimal.NewFromInt(100), GBP)))
}

func TestMoney_ZeroAndSigns(t *testing.T) {
	z := Zero(USD)
	assert.True(t, z.IsZero())
	assert.False(t, z.IsPositive())
	assert.False(t, z.IsNegative())

	neg := MustMoney(decimal.NewFromInt(-5), USD)
	assert.True(t, neg.IsNegative())
}

func TestMoney_Round(t *testing.T) {
	m, err := NewMoneyFromString("10.005", USD)
	require.NoError(t, err)
	assert.Equal(t, "10.01 USD", m.Round(2).String())
}
