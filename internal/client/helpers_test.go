package client_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/chain/chaintest"
	"github.com/compose-network/monad-arcade/internal/client"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/games/gamestest"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/require"
)

var (
	simParams = network.Params{Name: "Simulated", ChainID: chaintest.ChainID}
	limits    = configs.Client{MinBet: 0.01, MaxBet: 10, BetGasLimit: 200_000, CashOutGasLimit: 100_000}
)

type harness struct {
	sim    *chaintest.Chain
	store  *artifacts.Store
	client *client.Client
}

// newHarness deploys code on a fresh simulated chain, stores the artifacts and
// returns an uninitialized client for the funded key.
func newHarness(t *testing.T, code map[games.Name][]byte) *harness {
	t.Helper()

	sim := chaintest.New(t, chaintest.Ether(100))
	store := artifacts.NewStore(t.TempDir())

	for name, bytecode := range code {
		address := gamestest.Deploy(t, sim.Client, sim.Key, big.NewInt(chaintest.ChainID), bytecode)
		require.NoError(t, store.Save(name, address, gamestest.Artifact(name, bytecode)))
	}

	provider, err := wallet.NewKeyProvider(sim.KeyHex, sim.Client, nil)
	require.NoError(t, err)

	return &harness{
		sim:    sim,
		store:  store,
		client: client.New(wallet.NewGuard(provider, nil), store, registry.New(), simParams, limits),
	}
}

// fakeGame answers every call with the configured error.
type fakeGame struct {
	name    games.Name
	address common.Address
	err     error

	mu   sync.Mutex
	from []common.Address
}

func (f *fakeGame) Name() games.Name        { return f.name }
func (f *fakeGame) Address() common.Address { return f.address }

func (f *fakeGame) PlaceBet(opts *bind.TransactOpts, _ ...any) (*types.Transaction, error) {
	f.mu.Lock()
	f.from = append(f.from, opts.From)
	f.mu.Unlock()
	return nil, f.err
}

func (f *fakeGame) CashOut(opts *bind.TransactOpts) (*types.Transaction, error) {
	return f.PlaceBet(opts)
}

func (f *fakeGame) PlayerBalance(*bind.CallOpts, common.Address) (*big.Int, error) {
	return nil, f.err
}

func (f *fakeGame) ActiveGame(*bind.CallOpts, common.Address) (map[string]any, error) {
	return nil, f.err
}

func (f *fakeGame) WatchEvent(*bind.WatchOpts, string) (chan types.Log, event.Subscription, error) {
	return nil, nil, f.err
}

func (f *fakeGame) ParseEvent(string, types.Log) (map[string]any, error) {
	return nil, f.err
}

func (f *fakeGame) senders() []common.Address {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]common.Address(nil), f.from...)
}

// fakeProvider is a wallet whose account and chain the test can change.
type fakeProvider struct {
	mu      sync.Mutex
	account common.Address
	chainID uint64
	backend chain.Backend
}

func (f *fakeProvider) Accounts(context.Context) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return []common.Address{f.account}, nil
}

func (f *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return new(big.Int).SetUint64(f.chainID), nil
}

func (f *fakeProvider) SwitchChain(_ context.Context, params network.Params) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chainID = params.ChainID
	return nil
}

func (f *fakeProvider) Transactor(account common.Address, _ *big.Int) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From: account,
		Signer: func(common.Address, *types.Transaction) (*types.Transaction, error) {
			return nil, errors.New("fake provider cannot sign")
		},
	}, nil
}

func (f *fakeProvider) Backend() chain.Backend {
	return f.backend
}

func (f *fakeProvider) setAccount(account common.Address) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.account = account
}

// codedError is an RPC error carrying a JSON-RPC/EIP-1193 code.
type codedError struct {
	code int
	msg  string
}

func (e codedError) Error() string  { return e.msg }
func (e codedError) ErrorCode() int { return e.code }

// fakeClient binds every game to game over a fake provider.
func fakeClient(t *testing.T, provider *fakeProvider, game *fakeGame) *client.Client {
	t.Helper()

	store := artifacts.NewStore(t.TempDir())
	for _, name := range games.All {
		require.NoError(t, store.Save(name, common.HexToAddress("0x1234"), gamestest.Artifact(name, gamestest.StopCode())))
	}

	reg := registry.NewWithBinder(func(desc artifacts.Descriptor, _ chain.Backend) (registry.Game, error) {
		game.name = desc.Name
		game.address = desc.Address
		return game, nil
	})

	return client.New(wallet.NewGuard(provider, nil), store, reg, simParams, limits)
}

// hookedBackend reports chainID and runs afterSend once the first transaction
// has been accepted by the node.
type hookedBackend struct {
	chain.Backend
	chainID   uint64
	afterSend func()
	once      sync.Once
}

func (b *hookedBackend) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(b.chainID), nil
}

func (b *hookedBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if err := b.Backend.SendTransaction(ctx, tx); err != nil {
		return err
	}
	if b.afterSend != nil {
		b.once.Do(b.afterSend)
	}
	return nil
}

func (b *hookedBackend) Close() {
	if closer, ok := b.Backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
