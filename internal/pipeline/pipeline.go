// Package pipeline wires the classifier, reconstructor and renderer into
// whole-file operations: read a log, rebuild its timeline, write the drawing.
package pipeline

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/atikulmunna/threadline/internal/metrics"
	"github.com/atikulmunna/threadline/internal/model"
	"github.com/atikulmunna/threadline/internal/parser"
	"github.com/atikulmunna/threadline/internal/reconstruct"
	"github.com/atikulmunna/threadline/internal/render"
)

// maxLineBytes bounds a single log line. Producer lines are short; anything
// longer is foreign output and would only be skipped.
const maxLineBytes = 1 << 20

// Result is one reconstruction pass over a log.
type Result struct {
	Timeline *model.Timeline
	Counters reconstruct.Counters
	Lines    int
}

// Intervals returns the number of operation, region and barrier intervals.
func (r Result) Intervals() (operations, regions, barriers int) {
	for _, h := range r.Timeline.Operations {
		operations += len(h)
	}
	for _, h := range r.Timeline.Regions {
		regions += len(h)
	}
	return operations, regions, len(r.Timeline.Barriers)
}

// Pipeline loads logs and renders timelines.
type Pipeline struct {
	classifier parser.Classifier
	renderer   render.Renderer
	wrap       bool
	metrics    *metrics.Metrics
	log        *zap.SugaredLogger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMidnightWrap turns on midnight wraparound detection for every pass.
func WithMidnightWrap(enabled bool) Option {
	return func(p *Pipeline) { p.wrap = enabled }
}

// WithMetrics records every pass and render on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New returns a Pipeline drawing with renderer.
func New(renderer render.Renderer, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: parser.NewArrowLogClassifier(),
		renderer:   renderer,
		log:        zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Read classifies every line of r and reconstructs the timeline. Unmatched
// lines and unmatched finishes are skipped; a malformed numeric field aborts
// the pass with the offending line number.
func (p *Pipeline) Read(r io.Reader) (Result, error) {
	rec := reconstruct.New(reconstruct.WithMidnightWrap(p.wrap))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lines := 0
	for scanner.Scan() {
		lines++
		ev, err := p.classifier.Classify(scanner.Text())
		if err != nil {
			return Result{}, fmt.Errorf("line %d: %w", lines, err)
		}
		if ev != nil {
			rec.Apply(ev)
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, fmt.Errorf("read line %d: %w", lines+1, err)
	}

	res := Result{Timeline: rec.Timeline(), Counters: rec.Counters(), Lines: lines}
	ops, regions, barriers := res.Intervals()
	p.metrics.ObservePass(lines, res.Counters, ops, regions, barriers)
	p.log.Debugw("reconstructed timeline",
		"lines", lines,
		"operations", ops,
		"regions", regions,
		"barriers", barriers,
		"unmatched", res.Counters.Unmatched,
		"overwritten", res.Counters.Overwritten,
		"pending", res.Counters.Pending,
	)
	return res, nil
}

// Load reads the log at path.
func (p *Pipeline) Load(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	res, err := p.Read(f)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Render loads the log at path and writes the drawing to w. Nothing is
// written to w when loading or rendering fails.
func (p *Pipeline) Render(w io.Writer, path string) (Result, error) {
	start := time.Now()
	res, err := p.Load(path)
	if err == nil {
		var buf bytes.Buffer
		if err = p.renderer.Render(&buf, res.Timeline); err == nil {
			_, err = w.Write(buf.Bytes())
		} else {
			err = fmt.Errorf("render %s: %w", path, err)
		}
	}
	p.metrics.ObserveRender(time.Since(start), err)
	return res, err
}

// RenderFile loads in and writes the drawing to out. The output file is
// replaced atomically, so a failed run leaves no new or partial file.
func (p *Pipeline) RenderFile(in, out string) (Result, error) {
	var buf bytes.Buffer
	res, err := p.Render(&buf, in)
	if err != nil {
		return res, err
	}
	if err := WriteFileAtomic(out, buf.Bytes()); err != nil {
		return res, err
	}

	ops, regions, barriers := res.Intervals()
	p.log.Infow("wrote timeline",
		"output", out,
		"threads", len(res.Timeline.ThreadIDs()),
		"operations", ops,
		"regions", regions,
		"barriers", barriers,
	)
	return res, nil
}

// WriteFileAtomic writes data to a temporary file beside path and renames it
// into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	name := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}
