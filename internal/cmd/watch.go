package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/threadline/internal/pipeline"
	"github.com/atikulmunna/threadline/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [log] [svg]",
	Short: "Re-render the timeline whenever the log changes",
	Long: `Watch a log file and redraw the SVG timeline each time it is written,
renamed or recreated. Bursts of writes are collapsed into one render; every
render re-reads the whole log.

Examples:
  threadline watch
  threadline watch run.log run.svg`,
	Args: cobra.MaximumNArgs(2),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, out := paths(args)
	p := newPipeline(nil)

	render := func() {
		if _, err := p.RenderFile(in, out); err != nil {
			logger.Warnw("render failed, keeping previous output", "input", in, "error", err)
		}
	}
	render()

	w, err := watcher.New([]string{in}, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	go w.Start(ctx)

	logger.Infow("watching", "input", in, "output", out, "debounce", cfg.Watch.Debounce)
	pipeline.Follow(ctx, w.Events, cfg.Watch.Debounce, render)
	logger.Info("shutting down")
	return nil
}
