package play

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// coerceArgs converts command-line strings into the Go values the method's
// inputs pack from. Integers accept decimal or 0x-prefixed hex.
func coerceArgs(method abi.Method, raw []string) ([]any, error) {
	if len(raw) != len(method.Inputs) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", method.Name, len(method.Inputs), len(raw))
	}

	out := make([]any, len(raw))
	for i, input := range method.Inputs {
		value, err := coerce(input.Type, raw[i])
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", argName(input, i), err)
		}
		out[i] = value
	}
	return out, nil
}

func coerce(typ abi.Type, raw string) (any, error) {
	switch typ.T {
	case abi.UintTy, abi.IntTy:
		n, ok := new(big.Int).SetString(raw, 0)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return sizedInt(typ, n)
	case abi.BoolTy:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case abi.AddressTy:
		if !common.IsHexAddress(raw) {
			return nil, fmt.Errorf("%q is not an address", raw)
		}
		return common.HexToAddress(raw), nil
	case abi.StringTy:
		return raw, nil
	default:
		return nil, fmt.Errorf("type %s is not supported on the command line", typ.String())
	}
}

// sizedInt narrows n to the Go type go-ethereum packs typ from: *big.Int for
// wide integers, the matching fixed-size kind otherwise.
func sizedInt(typ abi.Type, n *big.Int) (any, error) {
	if typ.T == abi.UintTy && n.Sign() < 0 {
		return nil, fmt.Errorf("%s cannot be negative", typ.String())
	}
	if n.BitLen() > typ.Size {
		return nil, fmt.Errorf("%s overflows %s", n, typ.String())
	}

	goType := typ.GetType()
	if goType == reflect.TypeOf(&big.Int{}) {
		return n, nil
	}

	value := reflect.New(goType).Elem()
	if typ.T == abi.UintTy {
		value.SetUint(n.Uint64())
	} else {
		if !n.IsInt64() || value.OverflowInt(n.Int64()) {
			return nil, fmt.Errorf("%s overflows %s", n, typ.String())
		}
		value.SetInt(n.Int64())
	}
	return value.Interface(), nil
}

func argName(input abi.Argument, i int) string {
	if input.Name != "" {
		return input.Name
	}
	return strconv.Itoa(i)
}

// betArgs converts extra to the arguments of placeBet in the interface descriptor abiJSON.
func betArgs(abiJSON []byte, extra []string) ([]any, error) {
	parsed, err := abi.JSON(bytes.NewReader(abiJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse interface: %w", err)
	}

	method, ok := parsed.Methods[games.MethodPlaceBet]
	if !ok {
		return nil, fmt.Errorf("interface has no %s method", games.MethodPlaceBet)
	}
	return coerceArgs(method, extra)
}
