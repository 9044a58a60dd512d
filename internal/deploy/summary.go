package deploy

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"text/template"
	"time"

	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/network"
)

var (
	//go:embed summary.md.tmpl
	summaryTemplate string

	summary = template.Must(template.New("summary").Parse(summaryTemplate))
)

type (
	summaryContract struct {
		Name    games.Name
		Address string
		URL     string
		Reused  bool
	}

	summaryFailure struct {
		Name   games.Name
		Reason string
	}

	summaryModel struct {
		Record      artifacts.Record
		Timestamp   string
		ExplorerURL string
		Contracts   []summaryContract
		Failures    []summaryFailure
	}
)

// RenderSummary renders the human-readable summary of a run.
func RenderSummary(report Report, params network.Params) ([]byte, error) {
	model := summaryModel{
		Record:      report.Record,
		Timestamp:   report.Record.Timestamp.Format(time.RFC3339),
		ExplorerURL: params.ExplorerURL,
	}

	for _, name := range games.All {
		address, ok := report.Record.Contracts[name]
		if !ok {
			continue
		}
		model.Contracts = append(model.Contracts, summaryContract{
			Name:    name,
			Address: address,
			URL:     params.AddressURL(address),
			Reused:  slices.Contains(report.Reused, name),
		})
	}

	for _, failure := range report.Failures {
		model.Failures = append(model.Failures, summaryFailure{
			Name:   failure.Contract,
			Reason: errs.Reason(failure.Err),
		})
	}

	var out bytes.Buffer
	if err := summary.Execute(&out, model); err != nil {
		return nil, fmt.Errorf("failed to render deployment summary: %w", err)
	}
	return out.Bytes(), nil
}

// WriteSummary renders the summary to path.
func WriteSummary(path string, report Report, params network.Params) error {
	content, err := RenderSummary(report, params)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
