package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const Decimals = 18

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// ParseEther converts a decimal string such as "0.05" to wei without going
// through float64. More than 18 fractional digits is an error.
func ParseEther(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("empty amount")
	}

	r, ok := new(big.Rat).SetString(amount)
	if !ok {
		return nil, fmt.Errorf("not a decimal number: %q", amount)
	}

	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("%q has more than %d decimals", amount, Decimals)
	}

	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether string with trailing zeros trimmed,
// always keeping one fractional digit ("1.0", "0.05").
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}

	s := new(big.Rat).SetFrac(wei, weiPerEther).FloatString(Decimals)
	if !strings.Contains(s, ".") {
		return s + ".0"
	}

	s = strings.TrimRight(s, "0")
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}
