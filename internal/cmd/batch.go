package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/threadline/internal/watcher"
)

var batchCmd = &cobra.Command{
	Use:   "batch <pattern...>",
	Short: "Render one timeline per matching log file",
	Long: `Render every log matching the given glob patterns. Each timeline is
written next to its log with the extension replaced by .svg. Patterns
support ** for recursive matching. Matches that already end in .svg are
reported as failures and left untouched.

Examples:
  threadline batch "runs/**/*.log"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	logs, err := watcher.Expand(args)
	if err != nil {
		return err
	}
	if len(logs) == 0 {
		return fmt.Errorf("no files matched the given patterns: %v", args)
	}

	p := newPipeline(nil)
	failed := 0
	for _, in := range logs {
		out := svgPath(in)
		if out == in {
			logger.Errorw("skipping input that would be overwritten by its own timeline", "input", in)
			failed++
			continue
		}
		if _, err := p.RenderFile(in, out); err != nil {
			logger.Errorw("render failed", "input", in, "error", err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d logs failed to render", failed, len(logs))
	}
	return nil
}

// svgPath returns the sibling .svg path for a log file.
func svgPath(log string) string {
	return strings.TrimSuffix(log, filepath.Ext(log)) + ".svg"
}
