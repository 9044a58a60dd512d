package deploy_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/deploy"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() deploy.Report {
	return deploy.Report{
		Record: artifacts.Record{
			Network:   "Monad Testnet",
			ChainID:   10143,
			Deployer:  "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
			Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			RunID:     "4c1f4b0e-1111-4222-8333-944444444444",
			Contracts: map[games.Name]string{
				games.NameDiceRoll:  "0x5FbDB2315678afecb367f032d93F642f64180aa3",
				games.NameSpinWheel: "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
			},
		},
		Deployed: []games.Name{games.NameDiceRoll},
		Reused:   []games.Name{games.NameSpinWheel},
		Failures: []deploy.Failure{{
			Contract: games.NameMines,
			Err:      errs.Wrap("deploy", "Mines", errs.ErrDeploymentVerification, errors.New("no code at 0x01")),
		}},
	}
}

func TestRenderSummary(t *testing.T) {
	params, err := network.Lookup(configs.NetworkTypeTestnet)
	require.NoError(t, err)

	content, err := deploy.RenderSummary(sampleReport(), params)
	require.NoError(t, err)
	summary := string(content)

	assert.Contains(t, summary, "- **Chain ID**: 10143")
	assert.Contains(t, summary, "- **Timestamp**: 2025-03-01T12:00:00Z")
	assert.Contains(t, summary, "- **DiceRoll**: `0x5FbDB2315678afecb367f032d93F642f64180aa3` ([explorer](https://testnet.monadexplorer.com/address/0x5FbDB2315678afecb367f032d93F642f64180aa3))")
	assert.Contains(t, summary, "(reused)")
	assert.Contains(t, summary, "## Failed Contracts")
	assert.Contains(t, summary, "- **Mines**: Deployment verification failed: no code at 0x01")
	assert.Contains(t, summary, "const CONTRACT_ADDRESSES = {\n  DiceRoll: \"0x5FbDB2315678afecb367f032d93F642f64180aa3\",\n  SpinWheel: \"0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512\"\n};")
	assert.Less(t, strings.Index(summary, "DiceRoll"), strings.Index(summary, "SpinWheel"))
}

func TestRenderSummaryWithoutContracts(t *testing.T) {
	report := sampleReport()
	report.Record.Contracts = map[games.Name]string{}
	report.Failures = nil

	content, err := deploy.RenderSummary(report, network.Params{})
	require.NoError(t, err)
	assert.Contains(t, string(content), "No contracts were deployed.")
	assert.NotContains(t, string(content), "## Failed Contracts")
	assert.NotContains(t, string(content), "explorer")
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docs", "DEPLOYMENT_SUMMARY.md")
	require.NoError(t, deploy.WriteSummary(path, sampleReport(), network.Params{}))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Deployment Summary")
}
