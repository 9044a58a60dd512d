package games

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Compiler builds game artifacts from a Foundry project with forge.
type Compiler struct {
	projectDir string
	outputDir  string
	forge      string
	logger     *slog.Logger
}

func NewCompiler(projectDir, outputDir string) *Compiler {
	return &Compiler{
		projectDir: projectDir,
		outputDir:  outputDir,
		forge:      "forge",
		logger:     logger.Named("games_compiler"),
	}
}

// Compile writes one flat artifact per name into the output directory, which
// Source.Load then reads back.
func (c *Compiler) Compile(ctx context.Context, names []Name) error {
	c.logger.
		With("project_dir", c.projectDir).
		With("output_dir", c.outputDir).
		Info("starting contract compilation")

	if err := c.run(ctx, "build"); err != nil {
		return fmt.Errorf("forge build failed: %w", err)
	}

	if err := os.MkdirAll(c.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, name := range names {
		c.logger.With("contract", name).Info("inspecting contract")

		abiJSON, bytecode, err := c.inspect(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to compile %s: %w", name, err)
		}

		if err := c.writeArtifact(name, abiJSON, bytecode); err != nil {
			return err
		}
	}

	c.logger.With("len", len(names)).Info("contracts compiled successfully")

	return nil
}

func (c *Compiler) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, c.forge, args...)
	cmd.Dir = c.projectDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

func (c *Compiler) inspect(ctx context.Context, name Name) ([]byte, string, error) {
	abiCmd := exec.CommandContext(ctx, c.forge, "inspect", string(name), "abi", "--json")
	abiCmd.Dir = c.projectDir

	abiOutput, err := abiCmd.Output()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get ABI for %s: %w", name, err)
	}

	if _, err := abi.JSON(strings.NewReader(string(abiOutput))); err != nil {
		return nil, "", fmt.Errorf("failed to parse ABI for %s: %w", name, err)
	}

	bytecodeCmd := exec.CommandContext(ctx, c.forge, "inspect", string(name), "bytecode")
	bytecodeCmd.Dir = c.projectDir

	bytecodeOutput, err := bytecodeCmd.Output()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get bytecode for %s: %w", name, err)
	}

	return abiOutput, strings.TrimSpace(string(bytecodeOutput)), nil
}

func (c *Compiler) writeArtifact(name Name, abiJSON []byte, bytecode string) error {
	artifact := map[string]any{
		"_format":      "hh-sol-artifact-1",
		"contractName": string(name),
		"abi":          json.RawMessage(abiJSON),
		"bytecode":     bytecode,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact for %s: %w", name, err)
	}

	path := filepath.Join(c.outputDir, fmt.Sprintf("%s.json", name))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
