// Package play is the command-line surface of the game client.
package play

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/client"
	"github.com/compose-network/monad-arcade/internal/errs"
	"github.com/compose-network/monad-arcade/internal/games"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var assumeYes bool

var CMD = &cobra.Command{
	Use:   "play",
	Short: "Play the deployed games with the configured wallet",
}

var betCmd = &cobra.Command{
	Use:   "bet <game> <amount> [args...]",
	Short: "Place a bet and wait for it to settle",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, amount, extra := args[0], args[1], args[2:]

		if err := client.ValidateTransaction(amount, configs.Values.Client.MaxBet); err != nil {
			return err
		}

		g, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer g.Close()

		var betArguments []any
		if len(extra) > 0 {
			gameName, err := games.Parse(name)
			if err != nil {
				return errs.Wrap("place bet", name, errs.ErrUnknownContract, err)
			}
			desc, err := g.store.Load(gameName)
			if err != nil {
				return errs.Wrap("place bet", name, errs.ErrNotInitialized, err)
			}
			if betArguments, err = betArgs(desc.ABI, extra); err != nil {
				return err
			}
		}

		outcome, err := g.client.PlaceBet(cmd.Context(), name, amount, betArguments...)
		return report("Bet", outcome, err, g)
	},
}

var cashoutCmd = &cobra.Command{
	Use:   "cashout <game>",
	Short: "Cash out the active game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer g.Close()

		outcome, err := g.client.CashOut(cmd.Context(), args[0])
		return report("Cashout", outcome, err, g)
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance [game]",
	Short: "Show the wallet balance, or the in-game balance for one game",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g, err := open(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		account := g.identity.Address
		symbol := g.session.Params.Currency.Symbol

		if len(args) == 1 {
			pterm.Info.Printfln("%s balance of %s: %s %s", args[0], account.Hex(), g.client.PlayerBalance(ctx, args[0], account), symbol)
			return nil
		}

		balance, err := g.client.Balance(ctx, account)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Wallet %s on %s: %s %s", account.Hex(), g.identity.Network.Name, balance, symbol)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state <game> [player]",
	Short: "Show the active game of the wallet or of another player",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g, err := open(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		player := g.identity.Address
		if len(args) == 2 {
			if !common.IsHexAddress(args[1]) {
				return fmt.Errorf("%q is not an address", args[1])
			}
			player = common.HexToAddress(args[1])
		}

		state := g.client.ActiveGame(ctx, args[0], player)
		if state == nil {
			pterm.Info.Printfln("No active %s game for %s", args[0], player.Hex())
			return nil
		}

		keys := make([]string, 0, len(state))
		for key := range state {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		data := [][]string{{"Field", "Value"}}
		for _, key := range keys {
			data = append(data, []string{key, fmt.Sprint(state[key])})
		}
		renderTable(data)
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <game> <event>",
	Short: "Print contract events until interrupted",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, err := open(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		sub, err := g.client.Subscribe(ctx, args[0], args[1], func(event client.Event) {
			pterm.Info.Printfln("%s.%s block %d tx %s %v", event.Contract, event.Name, event.Log.BlockNumber, event.Log.TxHash.Hex(), event.Fields)
		})
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()

		pterm.Info.Printfln("Watching %s %s events, press Ctrl+C to stop", args[0], args[1])

		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done():
			return sub.Err()
		}
	},
}

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "List the stored address of every deployed game",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := offline()
		if err != nil {
			return err
		}

		addresses := c.ContractAddresses()
		data := [][]string{{"Contract", "Address"}}
		for _, name := range games.All {
			if address, ok := addresses[name]; ok {
				data = append(data, []string{name.String(), address.Hex()})
			}
		}
		renderTable(data)
		return nil
	},
}

var deployedCmd = &cobra.Command{
	Use:   "deployed",
	Short: "Check that every stored game has code on chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g, err := open(ctx)
		if err != nil {
			return err
		}
		defer g.Close()

		addresses := g.client.ContractAddresses()
		data := [][]string{{"Contract", "Address", "Deployed"}}
		for _, name := range games.All {
			address, ok := addresses[name]
			if !ok {
				data = append(data, []string{name.String(), "-", "no artifacts"})
				continue
			}
			data = append(data, []string{name.String(), address.Hex(), fmt.Sprint(g.client.IsContractDeployed(ctx, name.String()))})
		}
		renderTable(data)
		return nil
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <testnet|mainnet|local>",
	Short: "Move the wallet to another network",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := open(cmd.Context())
		if err != nil {
			return err
		}
		defer g.Close()

		identity, err := g.client.SwitchNetwork(cmd.Context(), configs.NetworkType(args[0]))
		if err != nil {
			return err
		}

		pterm.Success.Printfln("Wallet %s is on %s (chain %d)", identity.Address.Hex(), identity.Network.Name, identity.Network.ChainID)
		return nil
	},
}

func init() {
	CMD.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Approve network switches without asking")

	CMD.AddCommand(betCmd, cashoutCmd, balanceCmd, stateCmd, watchCmd, addressesCmd, deployedCmd, switchCmd)
}

func report(op string, outcome client.Outcome, err error, g *game) error {
	if outcome.TxHash != (common.Hash{}) {
		printOutcome(op, outcome, g.client.Target())
	}
	if err != nil {
		return fmt.Errorf("%s: %w", errs.Reason(err), err)
	}
	return nil
}
