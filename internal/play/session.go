package play

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/artifacts"
	"github.com/compose-network/monad-arcade/internal/cli"
	"github.com/compose-network/monad-arcade/internal/client"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/network"
	"github.com/compose-network/monad-arcade/internal/registry"
	"github.com/compose-network/monad-arcade/internal/wallet"
	"github.com/pterm/pterm"
)

// game is an initialized client together with what the commands print.
type game struct {
	session  *cli.Session
	client   *client.Client
	store    *artifacts.Store
	identity wallet.Identity
}

func open(ctx context.Context) (*game, error) {
	cfg := configs.Values

	session, err := cli.Connect(ctx, cfg, cli.ConfirmSwitch(assumeYes))
	if err != nil {
		return nil, err
	}

	store := artifacts.NewStore(cfg.Deploy.ArtifactsDir)
	c := client.New(session.Guard, store, registry.New(), session.Params, cfg.Client)

	identity, err := c.Initialize(ctx)
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize contracts: %s: %w", errs.Reason(err), err)
	}

	slog.With("account", identity.Address.Hex()).
		With("network", identity.Network.Name).
		Debug("game client initialized")

	return &game{session: session, client: c, store: store, identity: identity}, nil
}

func (g *game) Close() {
	g.session.Close()
}

// offline builds a client for the queries that only read stored artifacts.
func offline() (*client.Client, error) {
	cfg := configs.Values

	params, err := network.FromConfig(cfg.Network)
	if err != nil {
		return nil, err
	}
	return client.New(nil, artifacts.NewStore(cfg.Deploy.ArtifactsDir), registry.New(), params, cfg.Client), nil
}

func printOutcome(op string, outcome client.Outcome, params network.Params) {
	link := params.TxURL(outcome.TxHash.Hex())
	if link == "" {
		link = outcome.TxHash.Hex()
	}

	if outcome.Settled {
		pterm.Success.Printfln("%s settled in block %d (gas %d): %s", op, outcome.BlockNumber, outcome.GasUsed, link)
		return
	}
	pterm.Error.Printfln("%s failed (%s): %s", op, outcome.Failure, link)
}

func renderTable(data pterm.TableData) {
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		slog.With("err", err.Error()).Warn("failed to render table")
	}
}
