package client

import (
	"context"

	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/units"
	"github.com/ethereum/go-ethereum/common"
)

// Read-only queries never return errors. A failure is logged and reported as
// the absent value: "0" balance, nil game state, not deployed.

// PlayerBalance returns player's in-game balance on name in whole units.
func (c *Client) PlayerBalance(ctx context.Context, name string, player common.Address) string {
	binding, game, ok := c.readHandle(name)
	if !ok {
		return "0"
	}

	balance, err := game.PlayerBalance(binding.CallOpts(ctx), player)
	if err != nil {
		c.logger.With("contract", name).With("err", err.Error()).Warn("failed to read player balance")
		return "0"
	}
	return units.FormatEther(balance)
}

// ActiveGame returns player's current game state on name, or nil when there is
// none or it cannot be read.
func (c *Client) ActiveGame(ctx context.Context, name string, player common.Address) map[string]any {
	binding, game, ok := c.readHandle(name)
	if !ok {
		return nil
	}

	state, err := game.ActiveGame(binding.CallOpts(ctx), player)
	if err != nil {
		c.logger.With("contract", name).With("err", err.Error()).Warn("failed to read active game")
		return nil
	}
	return state
}

// IsContractDeployed reports whether name's address carries code.
func (c *Client) IsContractDeployed(ctx context.Context, name string) bool {
	binding, game, ok := c.readHandle(name)
	if !ok {
		return false
	}

	deployed, err := chain.HasCode(ctx, binding.Backend, game.Address())
	if err != nil {
		c.logger.With("contract", name).With("err", err.Error()).Warn("failed to read contract code")
		return false
	}
	return deployed
}

func (c *Client) readHandle(name string) (*registry.Binding, registry.Game, bool) {
	binding := c.registry.Current()
	if binding == nil {
		c.logger.With("contract", name).Debug("query before initialization")
		return nil, nil, false
	}

	gameName, err := games.Parse(name)
	if err != nil {
		c.logger.With("contract", name).Debug("query for unknown contract")
		return nil, nil, false
	}

	game, err := binding.Handle(gameName)
	if err != nil {
		c.logger.With("contract", name).Debug("query for unbound contract")
		return nil, nil, false
	}

	return binding, game, true
}
