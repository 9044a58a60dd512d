// Package chaintest runs an in-process chain for tests that need real
// transactions, receipts and logs.
package chaintest

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
)

// ChainID is the id the simulated backend reports.
const ChainID = 1337

type Chain struct {
	Backend *simulated.Backend
	Client  simulated.Client
	Key     *ecdsa.PrivateKey
	KeyHex  string
	Address common.Address
}

// Ether returns n whole units in wei.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// New starts a simulated chain that seals a block every few milliseconds, so
// code that waits for receipts behaves as against a live node. The returned
// key holds balance; a nil or zero balance leaves it unfunded.
func New(t testing.TB, balance *big.Int) *Chain {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	alloc := types.GenesisAlloc{}
	if balance != nil && balance.Sign() > 0 {
		alloc[address] = types.Account{Balance: balance}
	}

	backend := simulated.NewBackend(alloc)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				backend.Commit()
			}
		}
	}()

	t.Cleanup(func() {
		cancel()
		wg.Wait()
		_ = backend.Close()
	})

	return &Chain{
		Backend: backend,
		Client:  backend.Client(),
		Key:     key,
		KeyHex:  common.Bytes2Hex(crypto.FromECDSA(key)),
		Address: address,
	}
}

// Fund transfers amount from the chain's key to to and waits for it to be mined.
func (c *Chain) Fund(t testing.TB, to common.Address, amount *big.Int) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	nonce, err := c.Client.PendingNonceAt(ctx, c.Address)
	if err != nil {
		t.Fatalf("get nonce: %v", err)
	}
	head, err := c.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		t.Fatalf("get head: %v", err)
	}

	tip := big.NewInt(1_000_000_000)
	feeCap := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	chainID := big.NewInt(ChainID)

	tx, err := types.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       21_000,
		To:        &to,
		Value:     amount,
	}), types.LatestSignerForChainID(chainID), c.Key)
	if err != nil {
		t.Fatalf("sign transfer: %v", err)
	}

	if err := c.Client.SendTransaction(ctx, tx); err != nil {
		t.Fatalf("send transfer: %v", err)
	}
	if _, err := bind.WaitMined(ctx, c.Client, tx); err != nil {
		t.Fatalf("wait for transfer: %v", err)
	}
}
