// Package client is the transaction lifecycle client: it binds a wallet to the
// deployed games and mediates bets, cashouts, queries and event subscriptions.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/units"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
)

// Catalog supplies the deployed contract descriptors; *artifacts.Store is one.
type Catalog interface {
	LoadAll() []artifacts.Descriptor
}

type Client struct {
	guard    *wallet.Guard
	catalog  Catalog
	registry *registry.Registry
	limits   configs.Client

	mu     sync.RWMutex
	target network.Params

	logger *slog.Logger
}

func New(guard *wallet.Guard, catalog Catalog, reg *registry.Registry, target network.Params, limits configs.Client) *Client {
	return &Client{
		guard:    guard,
		catalog:  catalog,
		registry: reg,
		limits:   limits,
		target:   target,
		logger:   logger.Named("game_client"),
	}
}

func (c *Client) Target() network.Params {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.target
}

// Initialize connects the wallet, moves it to the target network when needed
// and binds every stored contract to it.
func (c *Client) Initialize(ctx context.Context) (wallet.Identity, error) {
	identity, err := c.guard.EnsureNetwork(ctx, c.Target())
	if err != nil {
		return wallet.Identity{}, err
	}

	if _, err := c.bind(identity); err != nil {
		return wallet.Identity{}, err
	}

	return identity, nil
}

func (c *Client) bind(identity wallet.Identity) (*registry.Binding, error) {
	provider := c.guard.Provider()

	signer, err := provider.Transactor(identity.Address, identity.ChainIDBig())
	if err != nil {
		return nil, errs.Wrap("bind contracts", "", errs.ErrNotConnected, err)
	}

	return c.registry.Bind(identity, provider.Backend(), signer, c.catalog.LoadAll())
}

// Contract returns the live handle for name.
func (c *Client) Contract(name string) (registry.Game, error) {
	return c.registry.Handle(name)
}

func (c *Client) CurrentAccount(ctx context.Context) (common.Address, error) {
	identity, err := c.guard.ResolveIdentity(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return identity.Address, nil
}

// Balance returns the native balance of address in whole units, e.g. "1.5".
func (c *Client) Balance(ctx context.Context, address common.Address) (string, error) {
	const op = "get balance"

	provider := c.guard.Provider()
	if provider == nil {
		return "", errs.Wrap(op, "", errs.ErrNoWallet, errs.ErrNoWallet)
	}

	balance, err := provider.Backend().BalanceAt(ctx, address, nil)
	if err != nil {
		return "", errs.Wrap(op, "", errs.ErrNetwork, err)
	}
	return units.FormatEther(balance), nil
}

// SwitchNetwork makes networkType the client's target and moves the wallet
// there.
func (c *Client) SwitchNetwork(ctx context.Context, networkType configs.NetworkType) (wallet.Identity, error) {
	params, err := network.Lookup(networkType)
	if err != nil {
		return wallet.Identity{}, errs.Wrap("switch network", "", errs.ErrWrongNetwork, err)
	}
	return c.SwitchTo(ctx, params)
}

// SwitchTo is SwitchNetwork for explicit parameters. The target only changes
// once the wallet is there; the contracts are then rebound to the new backend.
func (c *Client) SwitchTo(ctx context.Context, params network.Params) (wallet.Identity, error) {
	identity, err := c.guard.EnsureNetwork(ctx, params)
	if err != nil {
		return wallet.Identity{}, err
	}

	c.mu.Lock()
	c.target = params
	c.mu.Unlock()

	c.logger.With("network", params.Name).With("chain_id", params.ChainID).Info("target network changed")

	if c.registry.Current() == nil {
		return identity, nil
	}

	if _, err := c.bind(identity); err != nil {
		return wallet.Identity{}, fmt.Errorf("failed to rebind contracts: %w", err)
	}

	return identity, nil
}

// ContractAddresses lists the stored address of every deployed game. It never
// fails: games without usable artifacts are left out.
func (c *Client) ContractAddresses() map[games.Name]common.Address {
	descriptors := c.catalog.LoadAll()
	out := make(map[games.Name]common.Address, len(descriptors))
	for _, desc := range descriptors {
		out[desc.Name] = desc.Address
	}
	return out
}

// prepare validates name, runs the wallet checks and returns the binding for
// the wallet's current identity, rebinding when it changed.
func (c *Client) prepare(ctx context.Context, op, name string) (*registry.Binding, registry.Game, error) {
	gameName, err := games.Parse(name)
	if err != nil {
		return nil, nil, errs.Wrap(op, name, errs.ErrUnknownContract, err)
	}

	binding := c.registry.Current()
	if binding == nil {
		return nil, nil, errs.Wrap(op, name, errs.ErrNotInitialized, errs.ErrNotInitialized)
	}

	identity, err := c.guard.EnsureNetwork(ctx, c.Target())
	if err != nil {
		return nil, nil, err
	}

	if !identity.Equal(binding.Identity) {
		c.logger.
			With("previous", binding.Identity.Address.Hex()).
			With("current", identity.Address.Hex()).
			With("chain_id", identity.Network.ChainID).
			Info("wallet identity changed, rebinding contracts")

		binding, err = c.bind(identity)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to rebind contracts: %w", err)
		}
	}

	game, err := binding.Handle(gameName)
	if err != nil {
		return nil, nil, err
	}

	return binding, game, nil
}
