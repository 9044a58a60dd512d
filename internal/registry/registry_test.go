package registry_test

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/chain/chaintest"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/games/gamestest"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptor(name games.Name, address string) artifacts.Descriptor {
	return artifacts.Descriptor{
		Name:    name,
		Address: common.HexToAddress(address),
		ABI:     json.RawMessage(gamestest.ABI),
	}
}

func identity(address string, chainID uint64) wallet.Identity {
	return wallet.Identity{
		Address: common.HexToAddress(address),
		Network: wallet.Network{Name: "test", ChainID: chainID},
	}
}

func TestHandleBeforeBind(t *testing.T) {
	reg := registry.New()
	assert.Equal(t, registry.StateUnbound, reg.State())
	assert.Nil(t, reg.Current())

	_, err := reg.Handle("DiceRoll")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	_, err = reg.Handle("Roulette")
	require.ErrorIs(t, err, errs.ErrUnknownContract)
}

func TestBindAndHandle(t *testing.T) {
	sim := chaintest.New(t, chaintest.Ether(1))
	reg := registry.New()

	signer, err := bind.NewKeyedTransactorWithChainID(sim.Key, big.NewInt(chaintest.ChainID))
	require.NoError(t, err)

	descriptors := []artifacts.Descriptor{
		descriptor(games.NameHighLow, "0x02"),
		descriptor(games.NameDiceRoll, "0x01"),
		{Name: games.NameMines, Address: common.HexToAddress("0x03"), ABI: json.RawMessage(`{`)},
		descriptor(games.NameSpinWheel, "0x00"),
	}

	binding, err := reg.Bind(identity(sim.Address.Hex(), chaintest.ChainID), sim.Client, signer, descriptors)
	require.NoError(t, err)
	assert.Equal(t, registry.StateBound, reg.State())
	assert.Same(t, binding, reg.Current())
	assert.Equal(t, []games.Name{games.NameDiceRoll, games.NameHighLow}, binding.Names())

	first, err := reg.Handle("DiceRoll")
	require.NoError(t, err)
	second, err := reg.Handle("DiceRoll")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, common.HexToAddress("0x01"), first.Address())

	_, err = reg.Handle("Mines")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	_, err = reg.Handle("SpinWheel")
	require.ErrorIs(t, err, errs.ErrNotInitialized)

	opts := binding.TransactOpts(context.Background(), big.NewInt(7), 200_000)
	assert.Equal(t, sim.Address, opts.From)
	assert.EqualValues(t, 200_000, opts.GasLimit)
	assert.Equal(t, big.NewInt(7), opts.Value)
}

func TestBindRejectsZeroIdentity(t *testing.T) {
	sim := chaintest.New(t, nil)
	reg := registry.New()

	_, err := reg.Bind(wallet.Identity{}, sim.Client, &bind.TransactOpts{}, nil)
	require.ErrorIs(t, err, errs.ErrNotConnected)
	assert.Equal(t, registry.StateUnbound, reg.State())
}

func TestRebindReplacesSnapshot(t *testing.T) {
	sim := chaintest.New(t, nil)
	reg := registry.New()
	signer := &bind.TransactOpts{From: common.HexToAddress("0xaa")}

	old, err := reg.Bind(identity("0xaa", 1), sim.Client, signer, []artifacts.Descriptor{descriptor(games.NameDiceRoll, "0x01")})
	require.NoError(t, err)
	oldHandle, err := reg.Handle("DiceRoll")
	require.NoError(t, err)

	next, err := reg.Bind(identity("0xbb", 1), sim.Client, signer, []artifacts.Descriptor{descriptor(games.NameDiceRoll, "0x01")})
	require.NoError(t, err)
	newHandle, err := reg.Handle("DiceRoll")
	require.NoError(t, err)

	assert.NotSame(t, oldHandle, newHandle)
	assert.Same(t, next, reg.Current())

	kept, err := old.Handle(games.NameDiceRoll)
	require.NoError(t, err)
	assert.Same(t, oldHandle, kept)
}

func TestConcurrentBindIsAtomic(t *testing.T) {
	sim := chaintest.New(t, nil)
	reg := registry.New()
	signer := &bind.TransactOpts{}

	full := make([]artifacts.Descriptor, 0, len(games.All))
	for i, name := range games.All {
		full = append(full, descriptor(name, common.BigToAddress(big.NewInt(int64(i+1))).Hex()))
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := reg.Bind(identity(common.BigToAddress(big.NewInt(int64(i+1))).Hex(), 1), sim.Client, signer, full)
			assert.NoError(t, err)
		}()
	}

	for range 200 {
		if binding := reg.Current(); binding != nil {
			assert.Len(t, binding.Names(), len(games.All))
		}
	}
	wg.Wait()

	assert.Len(t, reg.Current().Handles(), len(games.All))
}
