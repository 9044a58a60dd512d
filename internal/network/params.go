// Package network maps a network type to the RPC parameters a wallet needs to
// add or switch to it.
package network

import (
	"fmt"
	"math/big"

	"github.com/compose-network/monad-arcade/configs"
)

type Params struct {
	Type        configs.NetworkType
	Name        string
	ChainID     uint64
	RPCURL      string
	ExplorerURL string
	Currency    Currency
}

type Currency struct {
	Name     string
	Symbol   string
	Decimals int
}

var monCurrency = Currency{Name: "Monad", Symbol: "MON", Decimals: 18}

var known = map[configs.NetworkType]Params{
	configs.NetworkTypeTestnet: {
		Type:        configs.NetworkTypeTestnet,
		Name:        "Monad Testnet",
		ChainID:     10143,
		RPCURL:      "https://testnet-rpc.monad.xyz",
		ExplorerURL: "https://testnet.monadexplorer.com",
		Currency:    monCurrency,
	},
	configs.NetworkTypeMainnet: {
		Type:        configs.NetworkTypeMainnet,
		Name:        "Monad Mainnet",
		ChainID:     143,
		RPCURL:      "https://rpc.monad.xyz",
		ExplorerURL: "https://monadexplorer.com",
		Currency:    monCurrency,
	},
	configs.NetworkTypeLocal: {
		Type:     configs.NetworkTypeLocal,
		Name:     "Local Devnet",
		ChainID:  31337,
		RPCURL:   "http://127.0.0.1:8545",
		Currency: Currency{Name: "Ether", Symbol: "ETH", Decimals: 18},
	},
}

// Lookup returns the parameters of a known network type.
func Lookup(networkType configs.NetworkType) (Params, error) {
	params, ok := known[networkType]
	if !ok {
		return Params{}, fmt.Errorf("unknown network type '%s'", networkType)
	}
	return params, nil
}

// FromConfig resolves the configured network, applying RPC URL and chain id overrides.
func FromConfig(cfg configs.Network) (Params, error) {
	params, err := Lookup(cfg.Type)
	if err != nil {
		return Params{}, err
	}

	if cfg.RPCURL != "" {
		params.RPCURL = cfg.RPCURL
	}
	if cfg.ChainID != 0 {
		params.ChainID = cfg.ChainID
	}

	return params, nil
}

// NameOf returns a human name for a chain id, falling back to "chain-<id>".
func NameOf(chainID *big.Int) string {
	if chainID == nil {
		return "unknown"
	}
	for _, params := range known {
		if chainID.IsUint64() && params.ChainID == chainID.Uint64() {
			return params.Name
		}
	}
	return fmt.Sprintf("chain-%s", chainID)
}

func (p Params) ChainIDBig() *big.Int {
	return new(big.Int).SetUint64(p.ChainID)
}

// TxURL links a transaction on the explorer, or returns "" when the network has none.
func (p Params) TxURL(txHash string) string {
	if p.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", p.ExplorerURL, txHash)
}

// AddressURL links an address on the explorer, or returns "" when the network has none.
func (p Params) AddressURL(address string) string {
	if p.ExplorerURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/address/%s", p.ExplorerURL, address)
}
