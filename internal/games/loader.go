package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Artifact is a compiled contract in the hardhat artifact shape. Raw keeps the
// full document so it can be handed to clients untouched.
type Artifact struct {
	Name     Name
	ABI      abi.ABI
	RawABI   json.RawMessage
	Bytecode []byte
	Raw      json.RawMessage
}

type artifactFile struct {
	ContractName string          `json:"contractName"`
	ABI          json.RawMessage `json:"abi"`
	Bytecode     string          `json:"bytecode"`
}

// Source loads compiled artifacts from a build directory. Both the hardhat
// layout (<dir>/<Name>.sol/<Name>.json) and a flat layout (<dir>/<Name>.json)
// are accepted.
type Source struct {
	buildDir string
}

func NewSource(buildDir string) *Source {
	return &Source{buildDir: buildDir}
}

func (s *Source) Load(name Name) (Artifact, error) {
	candidates := []string{
		filepath.Join(s.buildDir, fmt.Sprintf("%s.sol", name), fmt.Sprintf("%s.json", name)),
		filepath.Join(s.buildDir, fmt.Sprintf("%s.json", name)),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Artifact{}, fmt.Errorf("failed to read artifact %s: %w", path, err)
		}
		return ParseArtifact(name, data)
	}

	return Artifact{}, fmt.Errorf("compiled artifact for %s not found in %s", name, s.buildDir)
}

// ParseArtifact parses an artifact document and checks it carries deployable bytecode.
func ParseArtifact(name Name, data []byte) (Artifact, error) {
	var file artifactFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Artifact{}, fmt.Errorf("failed to parse artifact for %s: %w", name, err)
	}

	if len(file.ABI) == 0 {
		return Artifact{}, fmt.Errorf("artifact for %s has no abi", name)
	}

	parsedABI, err := abi.JSON(strings.NewReader(string(file.ABI)))
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	bytecodeHex := strings.TrimPrefix(strings.TrimSpace(file.Bytecode), "0x")
	if bytecodeHex == "" {
		return Artifact{}, fmt.Errorf("artifact for %s has no bytecode", name)
	}

	return Artifact{
		Name:     name,
		ABI:      parsedABI,
		RawABI:   file.ABI,
		Bytecode: common.Hex2Bytes(bytecodeHex),
		Raw:      json.RawMessage(data),
	}, nil
}
