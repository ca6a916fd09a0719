package cmd

import (
	"fmt"
	"os"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay log.jsonl",
		Short: "Rebuild the native tree from a JSON command log and print it as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening log: %w", err)
			}
			defer f.Close()

			cmds, err := command.ReadLog(f)
			if err != nil {
				return err
			}
			r := render.New(a.cfg.Renderer, a.logger)
			if err := r.Apply(cmds); err != nil {
				a.logger.Warn("Some commands could not be replayed", zap.Error(err))
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(r.Nodes())
		},
	}
}
