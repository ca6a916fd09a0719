// Package cmd is the nodebridge command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/chrisuehlinger/nodebridge/config"
	"github.com/chrisuehlinger/nodebridge/observability"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what PersistentPreRunE prepared for the subcommands.
type app struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	logger   *zap.Logger
}

// NewRootCmd builds the command tree. Each call returns independent
// commands so tests can run them in isolation.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "nodebridge",
		Short:         "Run scripts against a headless script/native node bridge.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logger.Level = a.logLevel
			}
			a.cfg = cfg
			observability.InitializeLogger(cfg.Logger)
			a.logger = observability.GetLogger()
			a.logger.Debug("Starting nodebridge", zap.String("version", Version))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logger.level")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newRunCmd(a), newReplayCmd(a), newVersionCmd())
	return root
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	err := NewRootCmd().Execute()
	observability.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
