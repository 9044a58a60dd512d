package devnet

import (
	"log/slog"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/cli"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var CMD = &cobra.Command{
	Use:   "devnet",
	Short: "Run a local anvil chain in Docker",
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start the local chain and wait for its RPC",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(service *Service) error {
			if err := service.Up(cmd.Context()); err != nil {
				return err
			}
			pterm.Success.Printfln("Devnet running at %s (chain %d)", service.RPCURL(), configs.Values.Devnet.ChainID)
			return nil
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop and remove the local chain, saving its state when configured",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(service *Service) error {
			return service.Down(cmd.Context())
		})
	},
}

func init() {
	cli.MustDeclare(CMD.PersistentFlags(),
		cli.Flag[string]{Name: "image", ViperKey: "devnet.image", Description: "Image providing the anvil binary"},
		cli.Flag[string]{Name: "container-name", ViperKey: "devnet.container-name", Description: "Name of the devnet container"},
		cli.Flag[string]{Name: "state-file", ViperKey: "devnet.state-file", Description: "Host file the chain state is loaded from and saved to"},
	)
	cli.MustDeclare(CMD.PersistentFlags(),
		cli.Flag[int]{Name: "port", ViperKey: "devnet.port", Description: "Host port for the RPC"},
	)

	CMD.AddCommand(upCmd, downCmd)
}

func withService(run func(*Service) error) error {
	cfg := configs.Values.Devnet
	slog.Info("validating devnet config", slog.Any("devnet", cfg))

	if err := cfg.Validate(); err != nil {
		return err
	}

	docker, err := NewDocker()
	if err != nil {
		return err
	}
	defer docker.Close()

	return run(NewService(docker, cfg))
}
