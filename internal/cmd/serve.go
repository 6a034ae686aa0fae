package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/threadline/internal/hub"
	"github.com/atikulmunna/threadline/internal/metrics"
	"github.com/atikulmunna/threadline/internal/pipeline"
	"github.com/atikulmunna/threadline/internal/server"
	"github.com/atikulmunna/threadline/internal/watcher"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve [log]",
	Short: "Serve a live timeline dashboard",
	Long: `Serve the timeline of a log over HTTP. The page reloads the drawing
whenever the log changes; JSON views of the reconstruction and its summary,
Prometheus metrics and a health check are served alongside.

Examples:
  threadline serve
  threadline serve run.log --port 8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in, _ := paths(args)
	port := cfg.Serve.Port
	if servePort != "" {
		port = servePort
	}

	m := metrics.New()
	p := newPipeline(m)

	notices := make(chan hub.Notice, 1)
	h := hub.New(notices, logger)
	go h.Start(ctx)

	w, err := watcher.New([]string{in}, logger)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	go w.Start(ctx)

	var seq int64
	go pipeline.Follow(ctx, w.Events, cfg.Watch.Debounce, func() {
		seq++
		n := hub.Notice{Seq: seq, Input: in, RenderedAt: time.Now()}
		res, err := p.Load(in)
		if err != nil {
			n.Error = err.Error()
		} else {
			n.Operations, _, _ = res.Intervals()
		}
		select {
		case notices <- n:
		case <-ctx.Done():
		}
	})

	return server.New(p, in, h, m, port, logger).Start(ctx)
}
