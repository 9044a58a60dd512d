package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/compose-network/monad-arcade/configs"
	"github.com/compose-network/monad-arcade/internal/cli"
	"github.com/compose-network/monad-arcade/internal/deploy"
	"github.com/compose-network/monad-arcade/internal/devnet"
	"github.com/compose-network/monad-arcade/internal/logger"
	"github.com/compose-network/monad-arcade/internal/play"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "arcade"

var rootCmd = &cobra.Command{
	Use:           appName,
	Short:         "Deploy the arcade game contracts and play them from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Initialize(slog.LevelInfo, logger.FormatJSON)

		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.With("err", err.Error()).Warn("failed to load .env file")
		}

		v := viper.GetViper()
		if err := configs.ApplyDefaults(v); err != nil {
			return err
		}
		if err := configs.BindEnvironment(v); err != nil {
			return err
		}

		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if execPath, err := os.Executable(); err == nil {
			v.AddConfigPath(filepath.Dir(execPath))
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				const errMsg = "error reading config file"
				slog.With("err", err.Error()).Error(errMsg)
				return errors.Join(err, errors.New(errMsg))
			}
			slog.Debug("no config file found, using defaults, environment and flags")
		}

		if err := v.Unmarshal(&configs.Values); err != nil {
			const errMsg = "unable to decode application config"
			slog.With("err", err.Error()).Error(errMsg)
			return errors.Join(err, errors.New(errMsg))
		}

		logger.Initialize(logger.ParseLevel(configs.Values.Log.Level), configs.Values.Log.Format)
		slog.With("config_file", v.ConfigFileUsed()).Debug("configuration loaded")

		return nil
	},
}

func init() {
	cli.MustDeclare(rootCmd.PersistentFlags(),
		cli.Flag[string]{Name: "network", ViperKey: "network.type", Description: "Network type: testnet, mainnet or local"},
		cli.Flag[string]{Name: "rpc-url", ViperKey: "network.rpc-url", Description: "Override the RPC URL of the network"},
		cli.Flag[string]{Name: "artifacts-dir", ViperKey: "deploy.artifacts-dir", Description: "Directory with the deployed contract artifacts"},
		cli.Flag[string]{Name: "log-level", ViperKey: "log.level", Description: "Log level: debug, info, warn or error"},
		cli.Flag[string]{Name: "log-format", ViperKey: "log.format", Description: "Log format: json or pretty"},
	)
	cli.MustDeclare(rootCmd.PersistentFlags(),
		cli.Flag[int]{Name: "chain-id", ViperKey: "network.chain-id", Description: "Override the chain id of the network"},
	)
}

func main() {
	rootCmd.AddCommand(deploy.CMD)
	rootCmd.AddCommand(play.CMD)
	rootCmd.AddCommand(devnet.CMD)

	if err := rootCmd.Execute(); err != nil {
		slog.With("err", err.Error()).Error("failed to execute command")
		os.Exit(1)
	}
}
