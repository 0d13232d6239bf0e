package main

import (
	"fmt"

	"github.com/saransh1220/careerpush/internal/shared/infrastructure/config"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const app = "notifyd"

// env holds what every subcommand needs once flags are parsed.
type env struct {
	cfgFile string
	debug   bool

	cfg config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}

	rootCmd := &cobra.Command{
		Use:           app,
		Short:         "notifyd delivers in-app notifications over a push channel with a REST fallback",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if e.log != nil {
				_ = e.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&e.cfgFile, "config", "", "a config file (yaml, json or toml); environment variables take precedence")
	rootCmd.PersistentFlags().BoolVarP(&e.debug, "debug", "d", false, "verbose/debug output")

	rootCmd.AddCommand(newListenCmd(e), newDevServerCmd(e), newMigrateCmd(e), newTokenCmd(e))
	return rootCmd
}

func (e *env) init() error {
	cfg, err := config.Load(e.cfgFile)
	if err != nil {
		return err
	}
	if e.debug {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}

	e.cfg = cfg
	e.log = log.Named(app)
	return nil
}
