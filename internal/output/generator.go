// Package output exports the deployed games as one YAML document for clients
// that do not read the artifact directory.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/network"
	"gopkg.in/yaml.v3"
)

type Generator struct {
	path string
}

func NewGenerator(path string) *Generator {
	return &Generator{path: path}
}

// Generate writes network parameters and every descriptor, keyed by the
// lower-cased contract name.
func (g *Generator) Generate(params network.Params, descriptors []artifacts.Descriptor) error {
	model := Build(params, descriptors)

	data, err := yaml.Marshal(model)
	if err != nil {
		return fmt.Errorf("could not marshal output model. Err: '%w'", err)
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return fmt.Errorf("could not create output directory. Err: '%w'", err)
	}

	if err := os.WriteFile(g.path, data, 0644); err != nil {
		return fmt.Errorf("could not write output file. Err: '%w'", err)
	}

	return nil
}

func Build(params network.Params, descriptors []artifacts.Descriptor) *Model {
	model := &Model{
		Network: Network{
			Name:        params.Name,
			ChainID:     params.ChainID,
			RPCURL:      params.RPCURL,
			ExplorerURL: params.ExplorerURL,
			Currency:    params.Currency.Symbol,
		},
		Contracts: make(map[string]ContractConfig, len(descriptors)),
	}

	for _, desc := range descriptors {
		model.Contracts[strings.ToLower(desc.Name.String())] = ContractConfig{
			Address: desc.Address.Hex(),
			ABI:     SingleQuotedString(compactJSON(desc.ABI)),
		}
	}

	return model
}

func compactJSON(raw []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
