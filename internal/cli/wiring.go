package cli

import (
	"context"
	"fmt"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/wallet"
)

// Session is a connected signing wallet for the configured network.
type Session struct {
	Params   network.Params
	Provider *wallet.KeyProvider
	Guard    *wallet.Guard
}

// Connect validates the network and wallet configuration, dials the RPC and
// builds a key-backed provider. Close releases the connection.
func Connect(ctx context.Context, cfg configs.Config, confirm wallet.Confirm) (*Session, error) {
	if err := cfg.Network.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Wallet.RequireCredential(); err != nil {
		return nil, err
	}

	params, err := network.FromConfig(cfg.Network)
	if err != nil {
		return nil, err
	}

	backend, err := chain.Dial(ctx, params.RPCURL)
	if err != nil {
		return nil, err
	}

	provider, err := wallet.NewKeyProvider(cfg.Wallet.PrivateKey, backend, chain.Dial)
	if err != nil {
		closeBackend(backend)
		return nil, fmt.Errorf("invalid wallet configuration: %w", err)
	}

	return &Session{
		Params:   params,
		Provider: provider,
		Guard:    wallet.NewGuard(provider, confirm),
	}, nil
}

func (s *Session) Close() {
	s.Provider.Close()
}

func closeBackend(backend chain.Backend) {
	if closer, ok := backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
