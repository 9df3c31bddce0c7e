package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"github.com/0xRadioAc7iv/minkdb/core"
	"github.com/0xRadioAc7iv/minkdb/internal/config"
	"github.com/0xRadioAc7iv/minkdb/internal/logging"
	"github.com/0xRadioAc7iv/minkdb/internal/protocol"
	"github.com/0xRadioAc7iv/minkdb/internal/repl"
)

type rootFlags struct {
	configPath string
	dataFile   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "minkdb",
		Short: "Append-only key-value store",
		Long: `MinkDB keeps every write in an append-only log and an in-memory index of
the latest offset of each key.

Run without a subcommand to type commands (put <key> <value>, get <key>, ...)
against the local data file. Use "minkdb serve" to expose it over TCP.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runLocal(cmd, cfg)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a JSON or YAML config file")
	cmd.PersistentFlags().StringVar(&flags.dataFile, "data-file", config.DefaultDataFile, "path of the append-only log")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel, "log level (trace, debug, info, warn, error)")

	cmd.AddCommand(newServeCmd(flags))

	return cmd
}

// loadConfig layers defaults, the config file, MINKDB_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := config.FromEnv(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("load environment: %w", err)
	}

	if cmd.Flags().Changed("data-file") {
		cfg.DataFile = flags.dataFile
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg config.Config) (*core.Store, *log.Logger, error) {
	logger := logging.New(cfg.LogLevel, os.Stderr)

	store, err := core.Open(cfg.DataFile, core.WithLogger(logger))
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.DataFile).Msg("error opening database")
		return nil, nil, err
	}
	return store, logger, nil
}

func runLocal(cmd *cobra.Command, cfg config.Config) error {
	store, _, err := openStore(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Loaded %d keys from %s\n", store.Count(), cfg.DataFile)

	// Ctrl+C keeps its default meaning here: every put is already synced.
	r := repl.New(func(_ context.Context, c *protocol.Command) (protocol.Response, error) {
		return store.Execute(c), nil
	}, cfg.DataFile)

	runErr := r.Run(cmd.Context(), cmd.InOrStdin(), out)
	return errors.Join(runErr, store.Close())
}
