package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeyProvider is a Provider backed by a single private key and an RPC backend.
type KeyProvider struct {
	mu      sync.RWMutex
	key     *ecdsa.PrivateKey
	address common.Address
	backend chain.Backend
	retired []chain.Backend
	dial    chain.Dialer
	logger  *slog.Logger
}

// NewKeyProvider parses a hex private key, with or without 0x. dial may be nil,
// in which case SwitchChain always fails.
func NewKeyProvider(privateKey string, backend chain.Backend, dial chain.Dialer) (*KeyProvider, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	if backend == nil {
		return nil, errors.New("backend is required")
	}

	return &KeyProvider{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		backend: backend,
		dial:    dial,
		logger:  logger.Named("key_provider"),
	}, nil
}

func (p *KeyProvider) Address() common.Address {
	return p.address
}

func (p *KeyProvider) Accounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{p.address}, nil
}

func (p *KeyProvider) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := p.Backend().ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return id, nil
}

// SwitchChain dials params.RPCURL and adopts it when it reports params.ChainID.
// The replaced backend stays open until Close, since contracts bound before
// the switch may still be waiting on it.
func (p *KeyProvider) SwitchChain(ctx context.Context, params network.Params) error {
	if p.dial == nil {
		return errors.New("provider cannot switch networks")
	}

	p.logger.With("network", params.Name).With("url", params.RPCURL).Info("switching network")

	backend, err := p.dial(ctx, params.RPCURL)
	if err != nil {
		return err
	}

	id, err := backend.ChainID(ctx)
	if err != nil {
		closeBackend(backend)
		return fmt.Errorf("failed to get chain ID from %s: %w", params.RPCURL, err)
	}
	if !id.IsUint64() || id.Uint64() != params.ChainID {
		closeBackend(backend)
		return fmt.Errorf("rpc %s serves chain %s, expected %d", params.RPCURL, id, params.ChainID)
	}

	p.mu.Lock()
	p.retired = append(p.retired, p.backend)
	p.backend = backend
	p.mu.Unlock()

	return nil
}

// Close releases the current backend and every backend replaced by SwitchChain.
func (p *KeyProvider) Close() {
	p.mu.Lock()
	backends := append(p.retired, p.backend)
	p.retired = nil
	p.mu.Unlock()

	for _, backend := range backends {
		closeBackend(backend)
	}
}

func (p *KeyProvider) Transactor(account common.Address, chainID *big.Int) (*bind.TransactOpts, error) {
	if account != p.address {
		return nil, fmt.Errorf("%w: provider does not hold %s", errs.ErrNotConnected, account.Hex())
	}

	opts, err := bind.NewKeyedTransactorWithChainID(p.key, chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	return opts, nil
}

func (p *KeyProvider) Backend() chain.Backend {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.backend
}

func closeBackend(backend chain.Backend) {
	if closer, ok := backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
