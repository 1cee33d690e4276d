package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Chat with an assistant and query past conversations",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(cmd); err != nil {
			return err
		}
		return initLogging()
	},
	SilenceUsage: true,
}

func initConfig(cmd *cobra.Command) error {
	viper.SetEnvPrefix("PARLEY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Flags have to be bound before the config flag is consulted, otherwise
	// --config can never select a file.
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".parley"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}

	return nil
}

func initLogging() error {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	return nil
}

func main() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.parley/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "local", "Backend to talk to (local or rest)")
	rootCmd.PersistentFlags().String("server-url", "http://127.0.0.1:8000/api", "Conversation server base URL (rest backend)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log lifecycle events")

	rootCmd.AddCommand(
		newChatCommand(),
		newListCommand(),
		newShowCommand(),
		newEndCommand(),
		newQueryCommand(),
		newExportCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
