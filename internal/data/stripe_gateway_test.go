package data

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount string
		want   int64
	}{
		{"9.99", 999},
		{"14.99", 1499},
		{"0", 0},
		{"100", 10000},
		{"0.005", 1},
		{"1299.50", 129950},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, toMinorUnits(decimal.RequireFromString(tc.amount)), "amount %s", tc.amount)
	}
}
