package client_test

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/chain/chaintest"
	"github.com/compose-network/monad-arcade/internal/client"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/games/gamestest"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractBeforeInitialize(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	_, err := h.client.Contract("DiceRoll")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	_, err = h.client.Contract("Roulette")
	require.ErrorIs(t, err, errs.ErrUnknownContract)

	_, err = h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	_, err = h.client.Subscribe(ctx, "DiceRoll", "BetPlaced", func(client.Event) {})
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	assert.Equal(t, "0", h.client.PlayerBalance(ctx, "DiceRoll", h.sim.Address))
	assert.Nil(t, h.client.ActiveGame(ctx, "DiceRoll", h.sim.Address))
	assert.False(t, h.client.IsContractDeployed(ctx, "DiceRoll"))
}

func TestInitializeAndPlaceBet(t *testing.T) {
	h := newHarness(t, map[games.Name][]byte{games.NameDiceRoll: gamestest.StopCode()})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	identity, err := h.client.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, h.sim.Address, identity.Address)
	assert.EqualValues(t, chaintest.ChainID, identity.Network.ChainID)

	first, err := h.client.Contract("DiceRoll")
	require.NoError(t, err)
	second, err := h.client.Contract("DiceRoll")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = h.client.Contract("Mines")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	outcome, err := h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)
	assert.True(t, outcome.Settled)
	assert.NoError(t, outcome.Failure)
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	assert.NotZero(t, outcome.BlockNumber)
	assert.NotZero(t, outcome.GasUsed)

	outcome, err = h.client.CashOut(ctx, "DiceRoll")
	require.NoError(t, err)
	assert.True(t, outcome.Settled)

	after, err := h.client.Contract("DiceRoll")
	require.NoError(t, err)
	assert.Same(t, first, after)
}

func TestPlaceBetValidatesBeforeNetwork(t *testing.T) {
	provider := &fakeProvider{account: common.HexToAddress("0xaa"), chainID: chaintest.ChainID, backend: chaintest.New(t, nil).Client}
	game := &fakeGame{err: errors.New("must not be called")}
	c := fakeClient(t, provider, game)
	ctx := context.Background()

	_, err := c.Initialize(ctx)
	require.NoError(t, err)

	for _, amount := range []string{"0", "-1", "abc", "", "0.001", "10.5"} {
		outcome, err := c.PlaceBet(ctx, "DiceRoll", amount)
		require.ErrorIs(t, err, errs.ErrInvalidAmount, amount)
		assert.Equal(t, client.Outcome{}, outcome)
	}

	_, err = c.PlaceBet(ctx, "Roulette", "1")
	require.ErrorIs(t, err, errs.ErrUnknownContract)

	_, err = c.CashOut(ctx, "Roulette")
	require.ErrorIs(t, err, errs.ErrUnknownContract)

	assert.Empty(t, game.senders())
}

func TestPlaceBetReverted(t *testing.T) {
	h := newHarness(t, map[games.Name][]byte{games.NameSpinWheel: gamestest.RevertCode()})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx)
	require.NoError(t, err)

	outcome, err := h.client.PlaceBet(ctx, "SpinWheel", "1")
	require.ErrorIs(t, err, errs.ErrTransactionReverted)
	assert.False(t, outcome.Settled)
	assert.ErrorIs(t, outcome.Failure, errs.ErrTransactionReverted)
	assert.NotEqual(t, common.Hash{}, outcome.TxHash)
	assert.Contains(t, errs.Reason(err), "Transaction reverted")
	assert.Contains(t, err.Error(), "SpinWheel")
}

func TestTransactionFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
	}{
		{name: "user rejected", err: codedError{code: 4001, msg: "User denied transaction signature"}, kind: errs.ErrTransactionRejected},
		{name: "execution reverted", err: codedError{code: 3, msg: "execution reverted: no active game"}, kind: errs.ErrTransactionReverted},
		{name: "insufficient funds", err: errors.New("insufficient funds for gas * price + value"), kind: errs.ErrTransactionReverted},
		{name: "connection refused", err: errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"), kind: errs.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{account: common.HexToAddress("0xaa"), chainID: chaintest.ChainID, backend: chaintest.New(t, nil).Client}
			c := fakeClient(t, provider, &fakeGame{err: tt.err})
			ctx := context.Background()

			_, err := c.Initialize(ctx)
			require.NoError(t, err)

			outcome, err := c.PlaceBet(ctx, "Mines", "0.5")
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.kind, outcome.Failure)
			assert.False(t, outcome.Settled)
			assert.Contains(t, err.Error(), "place bet on Mines")

			_, err = c.CashOut(ctx, "Mines")
			require.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), "cash out on Mines")
		})
	}
}

func TestRebindOnIdentityChange(t *testing.T) {
	alice := common.HexToAddress("0xa11ce")
	bob := common.HexToAddress("0xb0b")

	provider := &fakeProvider{account: alice, chainID: chaintest.ChainID, backend: chaintest.New(t, nil).Client}
	game := &fakeGame{err: errors.New("connection refused")}
	c := fakeClient(t, provider, game)
	ctx := context.Background()

	_, err := c.Initialize(ctx)
	require.NoError(t, err)

	_, err = c.PlaceBet(ctx, "DiceRoll", "1")
	require.ErrorIs(t, err, errs.ErrNetwork)

	provider.setAccount(bob)
	_, err = c.PlaceBet(ctx, "DiceRoll", "1")
	require.ErrorIs(t, err, errs.ErrNetwork)

	assert.Equal(t, []common.Address{alice, bob}, game.senders())

	account, err := c.CurrentAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, bob, account)
}

func TestWrongNetworkIsSwitched(t *testing.T) {
	provider := &fakeProvider{account: common.HexToAddress("0xaa"), chainID: 1, backend: chaintest.New(t, nil).Client}
	c := fakeClient(t, provider, &fakeGame{})

	identity, err := c.Initialize(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, chaintest.ChainID, identity.Network.ChainID)

	identity, err = c.SwitchNetwork(context.Background(), configs.NetworkTypeTestnet)
	require.NoError(t, err)
	assert.EqualValues(t, 10143, identity.Network.ChainID)
	assert.EqualValues(t, 10143, c.Target().ChainID)

	_, err = c.SwitchNetwork(context.Background(), configs.NetworkType("devnet-42"))
	require.ErrorIs(t, err, errs.ErrWrongNetwork)
}

func TestSwitchNetworkWithoutDialer(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.client.SwitchNetwork(context.Background(), configs.NetworkTypeTestnet)
	require.ErrorIs(t, err, errs.ErrWrongNetwork)
}

func TestReadQueries(t *testing.T) {
	stake := new(big.Int).Mul(big.NewInt(15), big.NewInt(1e17))
	h := newHarness(t, map[games.Name][]byte{
		games.NameHighLow:   gamestest.WordCode(stake),
		games.NameBlackJack: gamestest.RevertCode(),
	})
	require.NoError(t, h.store.Save(games.NameMines, common.HexToAddress("0xdead"), gamestest.Artifact(games.NameMines, gamestest.StopCode())))

	ctx := context.Background()
	_, err := h.client.Initialize(ctx)
	require.NoError(t, err)

	assert.Equal(t, "1.5", h.client.PlayerBalance(ctx, "HighLow", h.sim.Address))
	assert.Equal(t, map[string]any{"betAmount": stake}, h.client.ActiveGame(ctx, "HighLow", h.sim.Address))
	assert.True(t, h.client.IsContractDeployed(ctx, "HighLow"))

	assert.Equal(t, "0", h.client.PlayerBalance(ctx, "BlackJack", h.sim.Address))
	assert.Nil(t, h.client.ActiveGame(ctx, "BlackJack", h.sim.Address))

	assert.False(t, h.client.IsContractDeployed(ctx, "Mines"))
	assert.False(t, h.client.IsContractDeployed(ctx, "DiceRoll"))
	assert.Equal(t, "0", h.client.PlayerBalance(ctx, "Roulette", h.sim.Address))

	balance, err := h.client.Balance(ctx, h.sim.Address)
	require.NoError(t, err)
	assert.Regexp(t, `^99\.9`, balance)

	addresses := h.client.ContractAddresses()
	assert.Len(t, addresses, 3)
	assert.Equal(t, common.HexToAddress("0xdead"), addresses[games.NameMines])
}

func TestReadQueriesDegradeOnNetworkFailure(t *testing.T) {
	provider := &fakeProvider{account: common.HexToAddress("0xaa"), chainID: chaintest.ChainID, backend: chaintest.New(t, nil).Client}
	c := fakeClient(t, provider, &fakeGame{err: errors.New("dial tcp: connection refused")})
	ctx := context.Background()

	_, err := c.Initialize(ctx)
	require.NoError(t, err)

	assert.Equal(t, "0", c.PlayerBalance(ctx, "DiceRoll", common.HexToAddress("0xaa")))
	assert.Nil(t, c.ActiveGame(ctx, "DiceRoll", common.HexToAddress("0xaa")))
}

func TestSubscriptionsAreIndependent(t *testing.T) {
	h := newHarness(t, map[games.Name][]byte{games.NameDiceRoll: gamestest.EmitCode()})
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx)
	require.NoError(t, err)

	_, err = h.client.Subscribe(ctx, "DiceRoll", "Jackpot", func(client.Event) {})
	require.Error(t, err)

	var first, second atomic.Int32
	events := make(chan client.Event, 4)

	subA, err := h.client.Subscribe(ctx, "DiceRoll", "BetPlaced", func(ev client.Event) {
		first.Add(1)
		events <- ev
	})
	require.NoError(t, err)
	subB, err := h.client.Subscribe(ctx, "DiceRoll", "BetPlaced", func(client.Event) {
		second.Add(1)
	})
	require.NoError(t, err)
	defer subB.Unsubscribe()

	outcome, err := h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)
	require.True(t, outcome.Settled)

	require.Eventually(t, func() bool {
		return first.Load() == 1 && second.Load() == 1
	}, 10*time.Second, 20*time.Millisecond)

	ev := <-events
	assert.Equal(t, games.NameDiceRoll, ev.Contract)
	assert.Equal(t, "BetPlaced", ev.Name)
	assert.Equal(t, h.sim.Address, ev.Fields["player"])
	assert.Equal(t, big.NewInt(5e16), ev.Fields["amount"])
	assert.Equal(t, outcome.TxHash, ev.Log.TxHash)

	subA.Unsubscribe()
	subA.Unsubscribe()
	require.Eventually(t, func() bool {
		select {
		case <-subA.Done():
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
	assert.NoError(t, subA.Err())

	_, err = h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return second.Load() == 2
	}, 10*time.Second, 20*time.Millisecond)
	assert.EqualValues(t, 1, first.Load())
}

func TestUnsubscribeFromHandler(t *testing.T) {
	h := newHarness(t, map[games.Name][]byte{games.NameDiceRoll: gamestest.EmitCode()})
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx)
	require.NoError(t, err)

	var calls atomic.Int32
	var sub *client.Subscription
	ready := make(chan struct{})

	sub, err = h.client.Subscribe(ctx, "DiceRoll", "BetPlaced", func(client.Event) {
		<-ready
		calls.Add(1)
		sub.Unsubscribe()
	})
	require.NoError(t, err)
	close(ready)

	_, err = h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)
	_, err = h.client.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)

	select {
	case <-sub.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("delivery did not stop after the handler unsubscribed")
	}
	assert.NoError(t, sub.Err())
	assert.EqualValues(t, 1, calls.Load())

	sub.Unsubscribe()
}

func TestPlaceBetRejectsMismatchedArguments(t *testing.T) {
	h := newHarness(t, map[games.Name][]byte{games.NameDiceRoll: gamestest.StopCode()})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := h.client.Initialize(ctx)
	require.NoError(t, err)

	nonce, err := h.sim.Client.PendingNonceAt(ctx, h.sim.Address)
	require.NoError(t, err)

	outcome, err := h.client.PlaceBet(ctx, "DiceRoll", "0.05", big.NewInt(7), true)
	require.ErrorIs(t, err, errs.ErrInvalidAmount)
	assert.NotErrorIs(t, err, errs.ErrNetwork)
	assert.Equal(t, errs.ErrInvalidAmount, outcome.Failure)
	assert.Equal(t, common.Hash{}, outcome.TxHash)
	assert.Contains(t, err.Error(), "invalid placeBet arguments")

	after, err := h.sim.Client.PendingNonceAt(ctx, h.sim.Address)
	require.NoError(t, err)
	assert.Equal(t, nonce, after)
}

func TestSwitchNetworkDuringBet(t *testing.T) {
	sim := chaintest.New(t, chaintest.Ether(100))
	other := chaintest.New(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := artifacts.NewStore(t.TempDir())
	address := gamestest.Deploy(t, sim.Client, sim.Key, big.NewInt(chaintest.ChainID), gamestest.StopCode())
	require.NoError(t, store.Save(games.NameDiceRoll, address, gamestest.Artifact(games.NameDiceRoll, gamestest.StopCode())))

	otherParams := network.Params{Name: "Other", ChainID: 4242, RPCURL: "sim://other"}
	dial := func(_ context.Context, url string) (chain.Backend, error) {
		assert.Equal(t, otherParams.RPCURL, url)
		return &hookedBackend{Backend: other.Client, chainID: otherParams.ChainID}, nil
	}

	var (
		c         *client.Client
		switchErr error
	)
	current := &hookedBackend{Backend: sim.Client, chainID: chaintest.ChainID, afterSend: func() {
		_, switchErr = c.SwitchTo(ctx, otherParams)
	}}

	provider, err := wallet.NewKeyProvider(sim.KeyHex, current, dial)
	require.NoError(t, err)
	defer provider.Close()

	reg := registry.New()
	c = client.New(wallet.NewGuard(provider, nil), store, reg, simParams, limits)

	_, err = c.Initialize(ctx)
	require.NoError(t, err)

	outcome, err := c.PlaceBet(ctx, "DiceRoll", "0.05")
	require.NoError(t, err)
	assert.True(t, outcome.Settled)

	require.NoError(t, switchErr)
	assert.EqualValues(t, 4242, c.Target().ChainID)

	binding := reg.Current()
	require.NotNil(t, binding)
	assert.EqualValues(t, 4242, binding.Identity.Network.ChainID)
	assert.NotSame(t, current, binding.Backend)
	assert.False(t, c.IsContractDeployed(ctx, "DiceRoll"))
}
