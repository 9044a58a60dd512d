package deploy

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/cli"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/output"
	"github.com/compose-network/monad-arcade/internal/units"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "deploy",
	Short: "Deploy every game contract, verify it and write its artifacts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values
		slog.Info("starting deploy command. Validating config", slog.Any("deploy", cfg.Deploy))

		if err := cfg.Deploy.Validate(); err != nil {
			return err
		}
		names, err := games.ParseList(cfg.Deploy.Contracts)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		session, err := cli.Connect(ctx, cfg, nil)
		if err != nil {
			return err
		}
		defer session.Close()

		store := artifacts.NewStore(cfg.Deploy.ArtifactsDir)
		orchestrator := NewOrchestrator(session.Guard, games.NewSource(cfg.Deploy.BuildDir), store, session.Params, Options{
			GasLimit:    cfg.Deploy.GasLimit,
			OnlyMissing: cfg.Deploy.OnlyMissing,
		})

		report, err := orchestrator.Run(ctx, names)
		if err != nil {
			return fmt.Errorf("deployment aborted: %s: %w", errs.Reason(err), err)
		}

		if err := publish(report, store, session.Params, cfg.Deploy); err != nil {
			return err
		}

		printReport(report, session.Params)

		return nil
	},
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Compile the game contracts with forge into the build directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.Values.Deploy

		names, err := games.ParseList(cfg.Contracts)
		if err != nil {
			return err
		}

		if err := games.NewCompiler(cfg.SourceDir, cfg.BuildDir).Compile(cmd.Context(), names); err != nil {
			return fmt.Errorf("failed to compile contracts: %w", err)
		}

		slog.Info("contracts compiled", "build_dir", cfg.BuildDir)
		return nil
	},
}

func init() {
	cli.MustDeclare(CMD.Flags(),
		cli.Flag[string]{Name: "build-dir", ViperKey: "deploy.build-dir", Description: "Directory with compiled contract artifacts"},
		cli.Flag[string]{Name: "record-path", ViperKey: "deploy.record-path", Description: "Where to write the deployment record"},
	)
	cli.MustDeclare(CMD.Flags(),
		cli.Flag[bool]{Name: "only-missing", ViperKey: "deploy.only-missing", Description: "Reuse stored contracts that still have code"},
	)
	cli.MustDeclare(CMD.PersistentFlags(),
		cli.Flag[[]string]{Name: "contracts", ViperKey: "deploy.contracts", Description: "Contracts to deploy, in order"},
	)

	CMD.AddCommand(compileCmd)
}

// publish writes the record, the markdown summary and the client export.
func publish(report Report, store *artifacts.Store, params network.Params, cfg configs.Deploy) error {
	if err := store.WriteRecord(cfg.RecordPath, report.Record); err != nil {
		return err
	}
	slog.Info("deployment record saved", "path", cfg.RecordPath)

	if cfg.SummaryPath != "" {
		if err := WriteSummary(cfg.SummaryPath, report, params); err != nil {
			return err
		}
		slog.Info("deployment summary saved", "path", cfg.SummaryPath)
	}

	if cfg.OutputPath != "" {
		descriptors := make([]artifacts.Descriptor, 0, len(report.Record.Contracts))
		for _, desc := range store.LoadAll() {
			if _, ok := report.Record.Contracts[desc.Name]; ok {
				descriptors = append(descriptors, desc)
			}
		}

		if err := output.NewGenerator(cfg.OutputPath).Generate(params, descriptors); err != nil {
			return err
		}
		slog.Info("client configuration saved", "path", cfg.OutputPath)
	}

	return nil
}

func printReport(report Report, params network.Params) {
	pterm.Info.Printfln("Deployer %s on %s (chain %d), balance %s %s",
		report.Record.Deployer, report.Record.Network, report.Record.ChainID,
		units.FormatEther(report.Balance), params.Currency.Symbol)

	data := pterm.TableData{{"Contract", "Address", "Status"}}
	for _, name := range games.All {
		if address, ok := report.Record.Contracts[name]; ok {
			status := "deployed"
			if slices.Contains(report.Reused, name) {
				status = "reused"
			}
			data = append(data, []string{name.String(), address, status})
		}
	}
	for _, failure := range report.Failures {
		data = append(data, []string{failure.Contract.String(), "-", errs.Reason(failure.Err)})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		slog.With("err", err.Error()).Warn("failed to render deployment table")
	}

	if len(report.Failures) > 0 {
		pterm.Warning.Printfln("%d of %d contracts failed to deploy", len(report.Failures), len(report.Failures)+len(report.Record.Contracts))
		return
	}
	pterm.Success.Printfln("%d contracts deployed", len(report.Record.Contracts))
}
