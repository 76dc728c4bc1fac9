// Package cli is the bikerental command line: the API server, the outbox
// relay, migrations and dev seeding.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"bikerental/config"
)

var Version = "dev"

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "bikerental",
		Short:         "Bike rental admission, waiting lists and payments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(relayCmd())
	root.AddCommand(seedCmd())
	return root
}

func Execute() int {
	if err := NewRoot().Execute(); err != nil {
		slog.Error("command failed", "err", err)
		return 1
	}
	return 0
}

// env loads configuration and builds the process logger.
func env() (config.App, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.App{}, nil, err
	}
	level := slog.LevelInfo
	if cfg.Env == "dev" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return cfg, log, nil
}
