package client

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/units"
)

// MinimumBet is the smallest stake ValidateTransaction accepts.
const MinimumBet = 0.01

// ValidateTransaction accepts a decimal amount with MinimumBet <= amount <= maxBet.
func ValidateTransaction(amount string, maxBet float64) error {
	_, err := parseStake(amount, MinimumBet, maxBet)
	return err
}

// parseStake checks amount against [minimum, maximum] in exact decimal
// arithmetic and returns it in wei.
func parseStake(amount string, minimum, maximum float64) (*big.Int, error) {
	invalid := func(format string, args ...any) error {
		return errs.Wrap("validate amount", "", errs.ErrInvalidAmount, fmt.Errorf(format, args...))
	}

	trimmed := strings.TrimSpace(amount)
	if trimmed == "" || strings.Contains(trimmed, "/") {
		return nil, invalid("%q is not a number", amount)
	}

	value, ok := new(big.Rat).SetString(trimmed)
	if !ok {
		return nil, invalid("%q is not a number", amount)
	}
	if value.Sign() <= 0 {
		return nil, invalid("amount must be positive, got %s", trimmed)
	}
	if math.IsNaN(minimum) || math.IsInf(minimum, 0) || math.IsNaN(maximum) || math.IsInf(maximum, -1) {
		return nil, invalid("bet limits [%s, %s] are not usable", formatLimit(minimum), formatLimit(maximum))
	}
	if value.Cmp(decimal(minimum)) < 0 {
		return nil, invalid("amount %s is below the minimum of %s", trimmed, formatLimit(minimum))
	}
	// +Inf leaves the stake unbounded above.
	if !math.IsInf(maximum, 1) && value.Cmp(decimal(maximum)) > 0 {
		return nil, invalid("amount %s is above the maximum of %s", trimmed, formatLimit(maximum))
	}

	wei, err := units.ParseEther(trimmed)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	return wei, nil
}

// decimal reads f as its shortest decimal rendering, so 0.01 compares as 1/100.
// f must be finite.
func decimal(f float64) *big.Rat {
	r, _ := new(big.Rat).SetString(formatLimit(f))
	return r
}

func formatLimit(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
