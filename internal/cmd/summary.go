package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/threadline/internal/aggregator"
	"github.com/atikulmunna/threadline/internal/output"
	"github.com/atikulmunna/threadline/internal/render"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [log]",
	Short: "Print per-arrow and per-thread statistics",
	Long: `Reconstruct the timeline of a log and print a summary instead of
drawing it: time spent per arrow, thread utilization and barrier time.

Examples:
  threadline summary run.log
  threadline summary run.log --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	r, err := output.New(outputFmt, os.Stdout)
	if err != nil {
		return err
	}

	in, _ := paths(args)
	res, err := newPipeline(nil).Load(in)
	if err != nil {
		return err
	}
	if res.Timeline.Empty() {
		return render.ErrNoOperations
	}
	logger.Debugw("reconstructed", "lines", res.Lines, "unmatched", res.Counters.Unmatched, "pending", res.Counters.Pending)
	return r.Render(aggregator.Summarize(res.Timeline))
}
