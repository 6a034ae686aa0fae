// Package render draws a reconstructed Timeline as a self-contained SVG
// document: one lane per thread, one rectangle per interval, barrier bands
// spanning the full canvas.
package render

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/atikulmunna/threadline/internal/model"
)

var (
	// ErrNoOperations is returned when the timeline has no operation
	// intervals, which almost always means the producer was not logging at
	// the required detail.
	ErrNoOperations = errors.New("no arrow intervals found; run the producer with jana:loglevel=debug and jana:log:show_threadstamp=1")

	// ErrZeroSpan is returned when every operation interval starts and ends
	// at the same instant, leaving nothing to scale the time axis by.
	ErrZeroSpan = errors.New("operation intervals span zero milliseconds; cannot scale the time axis")
)

// Options controls canvas geometry and colours.
type Options struct {
	Width         float64
	LaneHeight    float64
	LanePadding   float64
	RegionHeight  float64
	RegionInset   float64
	Palette       []string
	RegionPalette []string
	Stroke        string
	PendingStroke string // for model.Interval.Pending operations
	BarrierFill   string
}

// DefaultOptions returns the standard 1000-unit-wide layout.
func DefaultOptions() Options {
	return Options{
		Width:         1000,
		LaneHeight:    40,
		LanePadding:   20,
		RegionHeight:  8,
		RegionInset:   3,
		Palette:       DefaultPalette,
		RegionPalette: DefaultRegionPalette,
		Stroke:        "black",
		PendingStroke: "red",
		BarrierFill:   "#FFE4B5",
	}
}

// Renderer writes a Timeline to an output stream.
type Renderer interface {
	Render(w io.Writer, tl *model.Timeline) error
}

// SVGRenderer renders timelines as SVG 1.1.
type SVGRenderer struct {
	opts Options
}

// NewSVGRenderer returns a renderer using opts. Unset geometry and colour
// fields take their DefaultOptions value; a zero lane padding is kept.
func NewSVGRenderer(opts Options) *SVGRenderer {
	def := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	if opts.LaneHeight <= 0 {
		opts.LaneHeight = def.LaneHeight
	}
	if opts.LanePadding < 0 {
		opts.LanePadding = def.LanePadding
	}
	if opts.RegionHeight <= 0 {
		opts.RegionHeight = def.RegionHeight
	}
	if opts.RegionInset <= 0 {
		opts.RegionInset = def.RegionInset
	}
	// Regions sit inside the bottom of their lane.
	if opts.RegionHeight+opts.RegionInset > opts.LaneHeight {
		opts.RegionInset = 0
		opts.RegionHeight = math.Min(opts.RegionHeight, opts.LaneHeight)
	}
	if opts.Stroke == "" {
		opts.Stroke = def.Stroke
	}
	if opts.PendingStroke == "" {
		opts.PendingStroke = def.PendingStroke
	}
	if opts.BarrierFill == "" {
		opts.BarrierFill = def.BarrierFill
	}
	if len(opts.RegionPalette) == 0 {
		opts.RegionPalette = def.RegionPalette
	}
	return &SVGRenderer{opts: opts}
}

// scale maps milliseconds onto the x axis of a canvas limit units wide.
type scale struct {
	origin int64
	factor float64
	limit  float64
}

func (s scale) x(t int64) float64 { return float64(t-s.origin) * s.factor }

// place returns the x and width of iv. The width is never less than one unit
// and the rectangle never extends past the right edge, so zero-length
// intervals stay visible.
func (s scale) place(iv model.Interval) (x, w float64) {
	x = s.x(iv.Start)
	w = math.Max(1, float64(iv.End-iv.Start)*s.factor)
	if x+w > s.limit {
		x = math.Max(0, s.limit-w)
	}
	return x, w
}

// Render draws tl and writes the whole document to w in one call. Nothing is
// written when an error is returned.
func (r *SVGRenderer) Render(w io.Writer, tl *model.Timeline) error {
	start, end, ok := tl.Window()
	if !ok {
		return ErrNoOperations
	}
	if end == start {
		return ErrZeroSpan
	}
	sc := scale{origin: start, factor: r.opts.Width / float64(end-start), limit: r.opts.Width}

	threads := tl.ThreadIDs()
	n := float64(len(threads))
	height := n*r.opts.LaneHeight + (n+1)*r.opts.LanePadding

	var buf bytes.Buffer
	d := &doc{buf: &buf}

	d.printf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	d.printf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		num(r.opts.Width), num(height), num(r.opts.Width), num(height))
	d.printf("<rect x=\"0\" y=\"0\" width=\"%s\" height=\"%s\" fill=\"white\" stroke=\"red\"/>\n", num(r.opts.Width), num(height))

	// Barrier bands go first so lanes paint over them.
	for _, iv := range tl.Barriers {
		x, w := sc.place(iv)
		d.printf("<rect class=\"barrier\" x=\"%s\" y=\"0\" width=\"%s\" height=\"%s\" fill=\"%s\">",
			num(x), num(w), num(height), r.opts.BarrierFill)
		d.title(fmt.Sprintf("barrier: %dms", iv.Duration()))
		d.printf("</rect>\n")
	}

	ops := NewColorAssignment(r.opts.Palette)
	regions := NewColorAssignment(r.opts.RegionPalette)

	for i, thread := range threads {
		y := r.opts.LanePadding + float64(i)*(r.opts.LaneHeight+r.opts.LanePadding)

		d.printf("<g class=\"thread\" id=\"thread-%d\">\n", thread)
		d.printf("<rect class=\"lane\" x=\"0\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"lightgray\" stroke=\"lightgray\">",
			num(y), num(r.opts.Width), num(r.opts.LaneHeight))
		d.title(fmt.Sprintf("thread #%d", thread))
		d.printf("</rect>\n")

		for _, iv := range tl.Operations[thread] {
			x, w := sc.place(iv)
			stroke, strokeWidth := r.opts.Stroke, "0.5"
			if iv.Pending() {
				stroke, strokeWidth = r.opts.PendingStroke, "1.5"
			}
			d.printf("<rect class=\"op\" x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%s\">",
				num(x), num(y), num(w), num(r.opts.LaneHeight), ops.Color(iv.Label), stroke, strokeWidth)
			d.title(tooltip(iv))
			d.printf("</rect>\n")
			if iv.EventNumber != nil {
				d.printf("<text x=\"%s\" y=\"%s\" font-family=\"sans-serif\" font-size=\"10\" fill=\"black\">%d</text>\n",
					num(x+2), num(y+12), *iv.EventNumber)
			}
		}

		ry := y + r.opts.LaneHeight - r.opts.RegionInset - r.opts.RegionHeight
		for _, iv := range tl.Regions[thread] {
			x, w := sc.place(iv)
			d.printf("<rect class=\"region\" x=\"%s\" y=\"%s\" width=\"%s\" height=\"%s\" fill=\"%s\" stroke=\"%s\" stroke-width=\"0.5\">",
				num(x), num(ry), num(w), num(r.opts.RegionHeight), regions.Color(iv.Label), r.opts.Stroke)
			d.title(tooltip(iv))
			d.printf("</rect>\n")
			if iv.EventNumber != nil {
				d.printf("<text x=\"%s\" y=\"%s\" font-family=\"sans-serif\" font-size=\"7\" fill=\"white\">%d</text>\n",
					num(x+1), num(ry+r.opts.RegionHeight-1), *iv.EventNumber)
			}
		}
		d.printf("</g>\n")
	}
	d.printf("</svg>\n")

	if d.err != nil {
		return d.err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// tooltip describes an interval for the hover title.
func tooltip(iv model.Interval) string {
	event := "no event#"
	if iv.EventNumber != nil {
		event = "event# " + strconv.FormatInt(*iv.EventNumber, 10)
	}
	result := "no result"
	if iv.Result != "" {
		result = "result " + iv.Result
	}
	if iv.Barrier {
		result += " (holding back barrier)"
	}
	return fmt.Sprintf("%s | %s | %s | %dms", iv.Label, event, result, iv.Duration())
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

type doc struct {
	buf *bytes.Buffer
	err error
}

func (d *doc) printf(format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.buf, format, args...)
}

func (d *doc) title(s string) {
	if d.err != nil {
		return
	}
	d.buf.WriteString("<title>")
	d.err = xml.EscapeText(d.buf, []byte(s))
	d.buf.WriteString("</title>")
}

// num formats a coordinate with at most three decimals and no trailing zeros.
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}
