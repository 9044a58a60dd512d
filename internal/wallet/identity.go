// Package wallet models the signing wallet and the checks that run before
// anything is sent on its behalf.
package wallet

import (
	"context"
	"math/big"

	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

type (
	Network struct {
		Name    string
		ChainID uint64
	}

	// Identity is the account and network a wallet currently signs for. Two
	// identities are the same wallet state only when every field matches.
	Identity struct {
		Address common.Address
		Network Network
	}

	// Provider is an injected wallet: it owns the accounts, knows which chain
	// it is on and produces signers.
	Provider interface {
		Accounts(ctx context.Context) ([]common.Address, error)
		ChainID(ctx context.Context) (*big.Int, error)
		SwitchChain(ctx context.Context, params network.Params) error
		Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error)
		Backend() chain.Backend
	}
)

func (i Identity) Equal(other Identity) bool {
	return i == other
}

func (i Identity) IsZero() bool {
	return i.Address == (common.Address{})
}

func (i Identity) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(i.Network.ChainID)
}
