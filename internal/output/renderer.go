package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/atikulmunna/threadline/internal/aggregator"
)

// Renderer writes timeline statistics to an output stream.
type Renderer interface {
	Render(stats aggregator.Stats) error
}

// New returns the renderer for format ("text" or "json"), writing to w.
func New(format string, w io.Writer) (Renderer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return &TextRenderer{w: w}, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return &JSONRenderer{enc: enc}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text or json)", format)
	}
}

// ---------------------------------------------------------------------------
// Text Renderer (colorized terminal output)
// ---------------------------------------------------------------------------

var (
	styleHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")) // cyan
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("220")) // yellow
	styleBusy    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// TextRenderer prints statistics as aligned, coloured tables.
type TextRenderer struct {
	w io.Writer
}

func (r *TextRenderer) Render(s aggregator.Stats) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", styleHeading.Render("window"),
		styleDim.Render(fmt.Sprintf("%s – %s (%dms)", clock(s.WindowStart), clock(s.WindowEnd), s.Window())))
	fmt.Fprintf(&b, "%s %d operations, %d regions, %d barriers (%dms)\n\n",
		styleHeading.Render("intervals"), s.Operations, s.Regions, s.Barriers, s.BarrierMs)

	fmt.Fprintln(&b, styleHeading.Render(fmt.Sprintf("%-24s %7s %10s %10s %8s %8s", "arrow", "count", "total ms", "mean ms", "max ms", "pending")))
	for _, l := range s.Labels {
		pending := styleDim.Render(fmt.Sprintf("%8d", l.Pending))
		if l.Pending > 0 {
			pending = styleWarn.Render(fmt.Sprintf("%8d", l.Pending))
		}
		fmt.Fprintf(&b, "%s %7d %10d %10.1f %8d %s\n",
			styleLabel.Render(fmt.Sprintf("%-24s", l.Label)), l.Count, l.TotalMs, l.MeanMs, l.MaxMs, pending)
	}

	fmt.Fprintln(&b)
	fmt.Fprintln(&b, styleHeading.Render(fmt.Sprintf("%-8s %9s %10s %8s", "thread", "intervals", "busy ms", "util")))
	for _, th := range s.Threads {
		util := fmt.Sprintf("%7.1f%%", th.Utilization*100)
		if th.Utilization >= 0.9 {
			util = styleBusy.Render(util)
		}
		fmt.Fprintf(&b, "%-8s %9d %10d %s\n", fmt.Sprintf("#%d", th.Thread), th.Intervals, th.BusyMs, util)
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// clock formats milliseconds since midnight as HH:MM:SS.mmm. Values past
// midnight (wraparound) keep counting hours.
func clock(ms int64) string {
	return fmt.Sprintf("%02d:%02d:%02d.%03d", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
}

// ---------------------------------------------------------------------------
// JSON Renderer (structured output for piping)
// ---------------------------------------------------------------------------

// JSONRenderer prints the statistics as one JSON document.
type JSONRenderer struct {
	enc *json.Encoder
}

func (r *JSONRenderer) Render(s aggregator.Stats) error {
	return r.enc.Encode(s)
}
