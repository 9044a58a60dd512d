package client_test

import (
	"math"
	"testing"

	"github.com/compose-network/monad-arcade/internal/client"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTransaction(t *testing.T) {
	tests := []struct {
		amount string
		valid  bool
	}{
		{amount: "0.01", valid: true},
		{amount: "0.05", valid: true},
		{amount: "1", valid: true},
		{amount: " 2.5 ", valid: true},
		{amount: "10", valid: true},
		{amount: "10.0", valid: true},
		{amount: "10.000000000000000001", valid: false},
		{amount: "11", valid: false},
		{amount: "0.009", valid: false},
		{amount: "0", valid: false},
		{amount: "-1", valid: false},
		{amount: "", valid: false},
		{amount: "abc", valid: false},
		{amount: "1/2", valid: false},
		{amount: "0.0000000000000000001", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			err := client.ValidateTransaction(tt.amount, 10)
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, errs.ErrInvalidAmount)
			assert.NotEmpty(t, errs.Reason(err))
		})
	}
}

func TestValidateTransactionMaxBetBoundary(t *testing.T) {
	require.NoError(t, client.ValidateTransaction("0.5", 0.5))
	require.ErrorIs(t, client.ValidateTransaction("0.51", 0.5), errs.ErrInvalidAmount)
	require.ErrorIs(t, client.ValidateTransaction("0.01", 0.001), errs.ErrInvalidAmount)
}

func TestValidateTransactionNonFiniteLimits(t *testing.T) {
	require.NotPanics(t, func() {
		require.NoError(t, client.ValidateTransaction("1000000", math.Inf(1)))
	})

	require.NotPanics(t, func() {
		err := client.ValidateTransaction("1", math.NaN())
		require.ErrorIs(t, err, errs.ErrInvalidAmount)
		assert.Contains(t, err.Error(), "bet limits")
	})

	require.NotPanics(t, func() {
		require.ErrorIs(t, client.ValidateTransaction("1", math.Inf(-1)), errs.ErrInvalidAmount)
	})
}
