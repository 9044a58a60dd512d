package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/ethereum/go-ethereum/common"
)

// Confirm asks whether the wallet may be moved from its current network to target.
type Confirm func(current Network, target network.Params) bool

// Guard resolves the signing identity and enforces network and balance
// preconditions. A nil Confirm approves every switch.
type Guard struct {
	provider Provider
	confirm  Confirm
	logger   *slog.Logger
}

func NewGuard(provider Provider, confirm Confirm) *Guard {
	return &Guard{
		provider: provider,
		confirm:  confirm,
		logger:   logger.Named("wallet_guard"),
	}
}

func (g *Guard) Provider() Provider {
	return g.provider
}

func (g *Guard) ResolveIdentity(ctx context.Context) (Identity, error) {
	const op = "resolve identity"

	if g.provider == nil {
		return Identity{}, errs.Wrap(op, "", errs.ErrNoWallet, errs.ErrNoWallet)
	}

	accounts, err := g.provider.Accounts(ctx)
	if err != nil {
		return Identity{}, errs.Wrap(op, "", errs.ErrNotConnected, err)
	}
	if len(accounts) == 0 || accounts[0] == (common.Address{}) {
		return Identity{}, errs.Wrap(op, "", errs.ErrNotConnected, errs.ErrNotConnected)
	}

	chainID, err := g.provider.ChainID(ctx)
	if err != nil {
		return Identity{}, errs.Wrap(op, "", errs.ErrNetwork, err)
	}
	if !chainID.IsUint64() {
		return Identity{}, errs.Wrap(op, "", errs.ErrNetwork, fmt.Errorf("chain id %s out of range", chainID))
	}

	return Identity{
		Address: accounts[0],
		Network: Network{
			Name:    network.NameOf(chainID),
			ChainID: chainID.Uint64(),
		},
	}, nil
}

// EnsureNetwork returns the identity once the wallet is on expected, switching
// it there when the Confirm callback agrees.
func (g *Guard) EnsureNetwork(ctx context.Context, expected network.Params) (Identity, error) {
	const op = "ensure network"

	identity, err := g.ResolveIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	if identity.Network.ChainID == expected.ChainID {
		return identity, nil
	}

	log := g.logger.
		With("current_chain_id", identity.Network.ChainID).
		With("expected_chain_id", expected.ChainID)

	if g.confirm != nil && !g.confirm(identity.Network, expected) {
		log.Warn("network switch declined")
		return Identity{}, errs.Wrap(op, "", errs.ErrWrongNetwork, errors.New("switch declined"))
	}

	log.Info("requesting network switch")
	if err := g.provider.SwitchChain(ctx, expected); err != nil {
		log.With("err", err.Error()).Warn("network switch failed")
		return Identity{}, errs.Wrap(op, "", errs.ErrWrongNetwork, err)
	}

	identity, err = g.ResolveIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	if identity.Network.ChainID != expected.ChainID {
		return Identity{}, errs.Wrap(op, "", errs.ErrWrongNetwork, fmt.Errorf("wallet still on chain %d", identity.Network.ChainID))
	}

	return identity, nil
}

// RequireFunds returns the identity's balance, failing when it is zero.
func (g *Guard) RequireFunds(ctx context.Context, identity Identity) (*big.Int, error) {
	const op = "check balance"

	if g.provider == nil {
		return nil, errs.Wrap(op, "", errs.ErrNoWallet, errs.ErrNoWallet)
	}

	balance, err := g.provider.Backend().BalanceAt(ctx, identity.Address, nil)
	if err != nil {
		return nil, errs.Wrap(op, "", errs.ErrNetwork, err)
	}
	if balance.Sign() <= 0 {
		return nil, errs.Wrap(op, "", errs.ErrInsufficientBalance, fmt.Errorf("account %s has no funds", identity.Address.Hex()))
	}

	return balance, nil
}
