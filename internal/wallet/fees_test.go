package wallet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateFeesTiers(t *testing.T) {
	tests := []struct {
		amount   int64
		provider int64
		total    int64
	}{
		{100, 10, 25},
		{5000, 10, 25},
		{5001, 25, 40},
		{50000, 25, 40},
		{50001, 50, 65},
		{1000000, 50, 65},
		{0, 10, 25},
	}

	for _, tt := range tests {
		fees := CalculateFees(tt.amount)
		assert.Equal(t, int64(15), fees.Processing, "amount %d", tt.amount)
		assert.Equal(t, tt.provider, fees.Provider, "amount %d", tt.amount)
		assert.Equal(t, tt.total, fees.Total, "amount %d", tt.amount)
	}
}
