// Package gamestest provides artifacts with hand-assembled bytecode for tests
// that run against a simulated chain.
package gamestest

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/compose-network/monad-arcade/internal/chain"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ABI is the game surface shared by every fixture contract.
const ABI = `[
  {"type":"function","name":"placeBet","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"cashOut","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"function","name":"getPlayerBalance","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getActiveGame","stateMutability":"view","inputs":[{"name":"player","type":"address"}],"outputs":[{"name":"betAmount","type":"uint256"}]},
  {"type":"event","name":"BetPlaced","anonymous":false,"inputs":[{"name":"player","type":"address","indexed":true},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"GameResult","anonymous":false,"inputs":[{"name":"player","type":"address","indexed":true},{"name":"won","type":"bool","indexed":false},{"name":"payout","type":"uint256","indexed":false}]}
]`

// deployer is init code that copies the runtime appended after it into memory
// and returns it: PUSH1 len PUSH1 0x0c PUSH1 0 CODECOPY PUSH1 len PUSH1 0 RETURN.
func deployer(runtime []byte) []byte {
	n := byte(len(runtime))
	code := []byte{0x60, n, 0x60, 0x0c, 0x60, 0x00, 0x39, 0x60, n, 0x60, 0x00, 0xf3}
	return append(code, runtime...)
}

// StopCode deploys a contract whose every call succeeds without output.
func StopCode() []byte {
	return deployer([]byte{0x00})
}

// RevertCode deploys a contract whose every call reverts.
func RevertCode() []byte {
	return deployer([]byte{0x60, 0x00, 0x60, 0x00, 0xfd})
}

// WordCode deploys a contract whose every call returns value as one 32-byte word.
func WordCode(value *big.Int) []byte {
	runtime := []byte{0x7f}
	runtime = append(runtime, common.LeftPadBytes(value.Bytes(), 32)...)
	runtime = append(runtime, 0x60, 0x00, 0x52, 0x60, 0x20, 0x60, 0x00, 0xf3)
	return deployer(runtime)
}

// EmitCode deploys a contract whose every call emits
// BetPlaced(msg.sender, msg.value) and succeeds.
func EmitCode() []byte {
	topic := crypto.Keccak256([]byte("BetPlaced(address,uint256)"))

	// CALLVALUE PUSH1 0 MSTORE CALLER PUSH32 topic PUSH1 0x20 PUSH1 0 LOG2 STOP
	runtime := []byte{0x34, 0x60, 0x00, 0x52, 0x33, 0x7f}
	runtime = append(runtime, topic...)
	runtime = append(runtime, 0x60, 0x20, 0x60, 0x00, 0xa2, 0x00)
	return deployer(runtime)
}

// EmptyCode is init code that halts immediately and leaves no runtime code behind.
func EmptyCode() []byte {
	return []byte{0x00}
}

// Artifact renders a hardhat-shaped artifact document.
func Artifact(name games.Name, bytecode []byte) []byte {
	doc := map[string]any{
		"_format":      "hh-sol-artifact-1",
		"contractName": string(name),
		"abi":          json.RawMessage(ABI),
		"bytecode":     common.Bytes2Hex(bytecode),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("marshal fixture artifact: %v", err))
	}
	return data
}

// WriteBuildDir writes one flat artifact per entry into dir.
func WriteBuildDir(t testing.TB, dir string, code map[games.Name][]byte) {
	t.Helper()
	for name, bytecode := range code {
		path := filepath.Join(dir, fmt.Sprintf("%s.json", name))
		if err := os.WriteFile(path, Artifact(name, bytecode), 0644); err != nil {
			t.Fatalf("write fixture artifact %s: %v", path, err)
		}
	}
}

// AllStop maps every game name to StopCode.
func AllStop() map[games.Name][]byte {
	out := make(map[games.Name][]byte, len(games.All))
	for _, name := range games.All {
		out[name] = StopCode()
	}
	return out
}

// Deploy deploys bytecode from key's account and waits for it to be mined.
func Deploy(t testing.TB, backend chain.Backend, key *ecdsa.PrivateKey, chainID *big.Int, bytecode []byte) common.Address {
	t.Helper()

	parsed, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		t.Fatalf("parse fixture abi: %v", err)
	}

	opts, err := bind.NewKeyedTransactorWithChainID(key, chainID)
	if err != nil {
		t.Fatalf("create transactor: %v", err)
	}
	opts.GasLimit = 1_000_000

	address, tx, _, err := bind.DeployContract(opts, parsed, bytecode, backend)
	if err != nil {
		t.Fatalf("deploy fixture: %v", err)
	}

	receipt, err := bind.WaitMined(context.Background(), backend, tx)
	if err != nil {
		t.Fatalf("wait for fixture deployment: %v", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		t.Fatalf("fixture deployment failed with status %d", receipt.Status)
	}

	return address
}
