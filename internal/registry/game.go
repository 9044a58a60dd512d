package registry

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
)

// Game is a live handle on one deployed game contract.
type Game interface {
	Name() games.Name
	Address() common.Address
	PlaceBet(opts *bind.TransactOpts, args ...any) (*types.Transaction, error)
	CashOut(opts *bind.TransactOpts) (*types.Transaction, error)
	PlayerBalance(opts *bind.CallOpts, player common.Address) (*big.Int, error)
	// ActiveGame returns the getActiveGame outputs keyed by their names; unnamed
	// outputs are keyed by position.
	ActiveGame(opts *bind.CallOpts, player common.Address) (map[string]any, error)
	WatchEvent(opts *bind.WatchOpts, eventName string) (chan types.Log, event.Subscription, error)
	ParseEvent(eventName string, log types.Log) (map[string]any, error)
}

// Binder builds the handle for one descriptor.
type Binder func(desc artifacts.Descriptor, backend chain.Backend) (Game, error)

type gameContract struct {
	name     games.Name
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// NewGame binds desc over backend.
func NewGame(desc artifacts.Descriptor, backend chain.Backend) (Game, error) {
	if desc.Address == (common.Address{}) {
		return nil, fmt.Errorf("%s has no address", desc.Name)
	}

	parsed, err := abi.JSON(strings.NewReader(string(desc.ABI)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI for %s: %w", desc.Name, err)
	}

	return &gameContract{
		name:     desc.Name,
		address:  desc.Address,
		abi:      parsed,
		contract: bind.NewBoundContract(desc.Address, parsed, backend, backend, backend),
	}, nil
}

func (g *gameContract) Name() games.Name {
	return g.name
}

func (g *gameContract) Address() common.Address {
	return g.address
}

// PlaceBet encodes args against the placeBet ABI before anything is sent, so
// an argument mismatch surfaces as invalid input rather than a node failure.
func (g *gameContract) PlaceBet(opts *bind.TransactOpts, args ...any) (*types.Transaction, error) {
	input, err := g.abi.Pack(games.MethodPlaceBet, args...)
	if err != nil {
		return nil, errs.Wrap("place bet", g.name.String(), errs.ErrInvalidAmount, fmt.Errorf("invalid %s arguments: %w", games.MethodPlaceBet, err))
	}
	return g.contract.RawTransact(opts, input)
}

func (g *gameContract) CashOut(opts *bind.TransactOpts) (*types.Transaction, error) {
	return g.contract.Transact(opts, games.MethodCashOut)
}

func (g *gameContract) PlayerBalance(opts *bind.CallOpts, player common.Address) (*big.Int, error) {
	var out []any
	if err := g.contract.Call(opts, &out, games.MethodGetPlayerBalance, player); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", games.MethodGetPlayerBalance)
	}

	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (g *gameContract) ActiveGame(opts *bind.CallOpts, player common.Address) (map[string]any, error) {
	method, ok := g.abi.Methods[games.MethodGetActiveGame]
	if !ok {
		return nil, fmt.Errorf("%s does not expose %s", g.name, games.MethodGetActiveGame)
	}

	var out []any
	if err := g.contract.Call(opts, &out, games.MethodGetActiveGame, player); err != nil {
		return nil, err
	}

	state := make(map[string]any, len(out))
	for i, value := range out {
		key := fmt.Sprintf("%d", i)
		if i < len(method.Outputs) && method.Outputs[i].Name != "" {
			key = method.Outputs[i].Name
		}
		state[key] = value
	}
	return state, nil
}

func (g *gameContract) WatchEvent(opts *bind.WatchOpts, eventName string) (chan types.Log, event.Subscription, error) {
	if _, ok := g.abi.Events[eventName]; !ok {
		return nil, nil, fmt.Errorf("%s has no event %q", g.name, eventName)
	}
	return g.contract.WatchLogs(opts, eventName)
}

func (g *gameContract) ParseEvent(eventName string, log types.Log) (map[string]any, error) {
	out := make(map[string]any)
	if err := g.contract.UnpackLogIntoMap(out, eventName, log); err != nil {
		return nil, fmt.Errorf("failed to decode %s event: %w", eventName, err)
	}
	return out, nil
}
