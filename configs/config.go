package configs

import (
	"errors"
	"fmt"
	"math"
)

var Values Config

type (
	NetworkType string

	Config struct {
		Log     Log     `mapstructure:"log"`
		Network Network `mapstructure:"network"`
		Wallet  Wallet  `mapstructure:"wallet"`
		Deploy  Deploy  `mapstructure:"deploy"`
		Client  Client  `mapstructure:"client"`
		Devnet  Devnet  `mapstructure:"devnet"`
	}

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}

	Network struct {
		Type    NetworkType `mapstructure:"type"`
		RPCURL  string      `mapstructure:"rpc-url"`
		ChainID uint64      `mapstructure:"chain-id"`
	}

	Wallet struct {
		PrivateKey string `mapstructure:"private-key"`
	}

	Deploy struct {
		Contracts    []string `mapstructure:"contracts"`
		BuildDir     string   `mapstructure:"build-dir"`
		SourceDir    string   `mapstructure:"source-dir"`
		ArtifactsDir string   `mapstructure:"artifacts-dir"`
		RecordPath   string   `mapstructure:"record-path"`
		SummaryPath  string   `mapstructure:"summary-path"`
		OutputPath   string   `mapstructure:"output-path"`
		GasLimit     uint64   `mapstructure:"gas-limit"`
		OnlyMissing  bool     `mapstructure:"only-missing"`
	}

	Client struct {
		MinBet          float64 `mapstructure:"min-bet"`
		MaxBet          float64 `mapstructure:"max-bet"`
		BetGasLimit     uint64  `mapstructure:"bet-gas-limit"`
		CashOutGasLimit uint64  `mapstructure:"cashout-gas-limit"`
	}

	Devnet struct {
		Image         string `mapstructure:"image"`
		ContainerName string `mapstructure:"container-name"`
		Port          int    `mapstructure:"port"`
		ChainID       uint64 `mapstructure:"chain-id"`
		StateFile     string `mapstructure:"state-file"`
	}
)

const (
	NetworkTypeTestnet NetworkType = "testnet"
	NetworkTypeMainnet NetworkType = "mainnet"
	NetworkTypeLocal   NetworkType = "local"
)

func (c *Network) Validate() error {
	switch c.Type {
	case NetworkTypeTestnet, NetworkTypeMainnet, NetworkTypeLocal:
		return nil
	case "":
		return errors.New("network.type is required")
	default:
		return fmt.Errorf("network.type must be one of '%s', '%s' or '%s'", NetworkTypeTestnet, NetworkTypeMainnet, NetworkTypeLocal)
	}
}

func (c *Deploy) Validate() error {
	var errs []error

	if len(c.Contracts) == 0 {
		errs = append(errs, errors.New("deploy.contracts must list at least one contract"))
	}
	if c.BuildDir == "" {
		errs = append(errs, errors.New("deploy.build-dir is required"))
	}
	if c.ArtifactsDir == "" {
		errs = append(errs, errors.New("deploy.artifacts-dir is required"))
	}
	if c.RecordPath == "" {
		errs = append(errs, errors.New("deploy.record-path is required"))
	}
	if c.GasLimit == 0 {
		errs = append(errs, errors.New("deploy.gas-limit is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("deploy configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Client) Validate() error {
	var errs []error

	if math.IsNaN(c.MinBet) || math.IsInf(c.MinBet, 0) || c.MinBet <= 0 {
		errs = append(errs, errors.New("client.min-bet must be a positive number"))
	}
	if math.IsNaN(c.MaxBet) || math.IsInf(c.MaxBet, 0) {
		errs = append(errs, errors.New("client.max-bet must be a finite number"))
	} else if c.MaxBet < c.MinBet {
		errs = append(errs, errors.New("client.max-bet must not be lower than client.min-bet"))
	}
	if c.BetGasLimit == 0 {
		errs = append(errs, errors.New("client.bet-gas-limit is required"))
	}
	if c.CashOutGasLimit == 0 {
		errs = append(errs, errors.New("client.cashout-gas-limit is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("client configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

func (c *Devnet) Validate() error {
	var errs []error

	if c.Image == "" {
		errs = append(errs, errors.New("devnet.image is required"))
	}
	if c.ContainerName == "" {
		errs = append(errs, errors.New("devnet.container-name is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("devnet.port %d is out of range", c.Port))
	}
	if c.ChainID == 0 {
		errs = append(errs, errors.New("devnet.chain-id is required"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("devnet configuration validation failed: %w", errors.Join(errs...))
	}

	return nil
}

// RequireCredential reports a missing signing key; deploy and play both need one.
func (c *Wallet) RequireCredential() error {
	if c.PrivateKey == "" {
		return errors.New("wallet.private-key is required (set PRIVATE_KEY in the environment or .env)")
	}
	return nil
}
