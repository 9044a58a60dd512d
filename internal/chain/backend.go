package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Backend is the remote-call transport every component talks to. Both
// *ethclient.Client and the simulated backend's client satisfy it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// Dialer opens a Backend for an RPC URL.
type Dialer func(ctx context.Context, rpcURL string) (Backend, error)

// Dial is the Dialer used outside tests.
func Dial(ctx context.Context, rpcURL string) (Backend, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}
	return client, nil
}

// WaitForRPC polls until the node at rpcURL answers eth_blockNumber or attempts run out.
func WaitForRPC(ctx context.Context, rpcURL string, attempts int, interval time.Duration) error {
	log := logger.Named("rpc_waiter").With("url", rpcURL)

	for attempt := range attempts {
		if ready(ctx, rpcURL) {
			log.With("attempts", attempt+1).Debug("rpc is ready")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return fmt.Errorf("timed out waiting for RPC at %s", rpcURL)
}

func ready(ctx context.Context, rpcURL string) bool {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return false
	}
	defer client.Close()

	_, err = client.BlockNumber(ctx)
	if err != nil {
		slog.Debug("rpc not ready yet", "url", rpcURL, "err", err.Error())
		return false
	}
	return true
}

// HasCode reports whether address carries non-empty runtime code at the latest block.
func HasCode(ctx context.Context, backend bind.ContractCaller, address common.Address) (bool, error) {
	code, err := backend.CodeAt(ctx, address, nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", address.Hex(), err)
	}
	return len(code) > 0, nil
}
