package output

import (
	"gopkg.in/yaml.v3"
)

type (
	Model struct {
		Network   Network                   `yaml:"network"`
		Contracts map[string]ContractConfig `yaml:"contracts"`
	}

	Network struct {
		Name        string `yaml:"name"`
		ChainID     uint64 `yaml:"chain-id"`
		RPCURL      string `yaml:"rpc-url"`
		ExplorerURL string `yaml:"explorer-url,omitempty"`
		Currency    string `yaml:"currency"`
	}

	ContractConfig struct {
		Address string             `yaml:"address"`
		ABI     SingleQuotedString `yaml:"abi"`
	}

	SingleQuotedString string
)

func (s SingleQuotedString) MarshalYAML() (any, error) {
	node := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Style: yaml.SingleQuotedStyle,
		Value: string(s),
	}
	return node, nil
}
