// Package cli wires the cobra command tree.
package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MJE43/roulette-spin-go/internal/config"
	"github.com/MJE43/roulette-spin-go/internal/logger"
)

type rootFlags struct {
	configPath string
	logLevel   string
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds the roulette command and its subcommands.
func NewRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "roulette",
		Short:         "Spinning roulette wheel game engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(flags),
		newPlayCmd(flags),
		newSimulateCmd(flags),
		newVersionCmd(),
	)
	return root
}

// load reads configuration and initialises logging. Interactive commands
// log to stderr so stdout stays readable.
func (f *rootFlags) load(cmd *cobra.Command, interactive bool) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}

	opts := &logger.Options{
		Level:      logger.ParseLevel(cfg.Log.Level),
		TimeFormat: time.RFC3339,
		NoColor:    cfg.Log.NoColor,
	}
	if interactive {
		opts.Writer = cmd.ErrOrStderr()
	}
	logger.Init(opts)
	return cfg, nil
}
