package model

import (
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestRoundRate(t *testing.T) {
	table := []struct {
		name   string
		input  string
		output string
	}{
		{name: "integer", input: "5", output: "5"},
		{name: "two decimals", input: "12.50", output: "12.5"},
		{name: "round down", input: "1.333", output: "1.33"},
		{name: "round half up", input: "2.675", output: "2.68"},
		{name: "max", input: "9999.994", output: "9999.99"},
	}
	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			assert.Equal(t, e.output, RoundRate(decimal.RequireFromString(e.input)).String())
		})
	}
}

func TestRoundRate_Keeps_Fitting_Value(t *testing.T) {
	d := decimal.NewFromInt(5)
	assert.Equal(t, d, RoundRate(d))
	assert.Equal(t, "9999.99", MaxRate.String())
	assert.Equal(t, "99999999.99", MaxFee.String())
}
