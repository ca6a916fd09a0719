package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chrisuehlinger/nodebridge/command"
	"github.com/chrisuehlinger/nodebridge/html"
	"github.com/chrisuehlinger/nodebridge/js"
	"github.com/chrisuehlinger/nodebridge/render"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type runOptions struct {
	htmlFile string
	format   string
	timeout  time.Duration
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [script.js]",
		Short: "Execute a script and print the commands the renderer consumed",
		Long: `Creates an execution context wired to the headless renderer, optionally
loads an HTML page into it, runs the script, drives the event loop until
every timer and native request has settled, and prints the renderer's
command log.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && opts.htmlFile == "" {
				return errors.New("nothing to run: pass a script or --html")
			}
			script := ""
			if len(args) == 1 {
				script = args[0]
			}
			return a.run(cmd, opts, script)
		},
	}
	cmd.Flags().StringVar(&opts.htmlFile, "html", "", "HTML page to load before the script")
	cmd.Flags().StringVar(&opts.format, "format", string(command.FormatJSON), "command log format: json or yaml")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "upper bound for the script and its pending work")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions, script string) error {
	format := command.Format(opts.format)
	if format != command.FormatJSON && format != command.FormatYAML {
		return fmt.Errorf("unsupported format %q", opts.format)
	}

	c := js.NewContext(js.WithConfig(a.cfg.Bridge), js.WithLogger(a.logger))
	r := render.New(a.cfg.Renderer, a.logger)
	r.Services(c.Host())

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.Run(gctx, c.Buffer())
	})
	g.Go(func() (err error) {
		defer func() { err = multierr.Append(err, c.Close()) }()
		return a.execute(gctx, c, opts.htmlFile, script)
	})

	err := g.Wait()
	r.Wait()
	if err != nil {
		return err
	}

	a.logger.Debug("Run finished",
		zap.Int("commands", len(r.Log())),
		zap.Int64("released_callbacks", c.Callbacks().Released()))
	return command.WriteLog(cmd.OutOrStdout(), format, r.Log())
}

func (a *app) execute(ctx context.Context, c *js.Context, htmlFile, script string) error {
	if htmlFile != "" {
		f, err := os.Open(htmlFile)
		if err != nil {
			return fmt.Errorf("opening page: %w", err)
		}
		defer f.Close()
		if err := html.Load(c, f); err != nil {
			return fmt.Errorf("loading %s: %w", htmlFile, err)
		}
	}
	if script != "" {
		code, err := os.ReadFile(script)
		if err != nil {
			return fmt.Errorf("reading script: %w", err)
		}
		if err := c.ExecuteScript(string(code), script); err != nil {
			return fmt.Errorf("running %s: %w", script, err)
		}
	}
	if err := c.RunUntilIdle(ctx); err != nil {
		return err
	}
	return c.Flush()
}
