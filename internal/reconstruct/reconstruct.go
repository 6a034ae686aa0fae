// Package reconstruct pairs start and finish events into closed intervals.
package reconstruct

import (
	"github.com/atikulmunna/threadline/internal/model"
)

const day = 24 * 60 * 60 * 1000

type scope int

const (
	scopeOperation scope = iota
	scopeRegion
	scopeBarrier
)

// key identifies one open entry. Operations and regions are keyed by thread
// and label; the barrier uses the zero key within its own scope.
type key struct {
	scope  scope
	thread int
	label  string
}

// Counters describes what a reconstruction pass saw. They never affect the
// intervals produced.
type Counters struct {
	Events      map[string]int `json:"events"`
	Unmatched   int            `json:"unmatched"`
	Overwritten int            `json:"overwritten"`
	Pending     int            `json:"pending"`
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithMidnightWrap enables wraparound detection: a timestamp more than 12h
// earlier than the previous one is taken to belong to the next day.
func WithMidnightWrap(enabled bool) Option {
	return func(r *Reconstructor) { r.wrap = enabled }
}

// Reconstructor holds the open-interval table for exactly one pass over a log.
// It is not safe for concurrent use.
type Reconstructor struct {
	open     map[key]int64
	timeline *model.Timeline
	counters Counters

	wrap   bool
	offset int64
	last   int64
	seen   bool
}

// New returns a Reconstructor with an empty table.
func New(opts ...Option) *Reconstructor {
	r := &Reconstructor{
		open:     make(map[key]int64),
		timeline: model.NewTimeline(),
		counters: Counters{Events: make(map[string]int)},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply feeds one event. Start-like events open (or overwrite) an entry;
// finish-like events close the matching entry and append an interval. A
// finish with no open entry is dropped.
func (r *Reconstructor) Apply(ev model.Event) {
	r.counters.Events[ev.Kind().String()]++
	at := r.adjust(ev.Millis())

	switch e := ev.(type) {
	case model.OperationStart:
		r.start(key{scopeOperation, e.Thread, e.Label}, at)
	case model.RegionEnter:
		r.start(key{scopeRegion, e.Thread, e.Label}, at)
	case model.BarrierInFlight:
		r.start(key{scope: scopeBarrier}, at)

	case model.OperationFinish:
		if start, ok := r.finish(key{scopeOperation, e.Thread, e.Label}); ok {
			r.timeline.Operations[e.Thread] = append(r.timeline.Operations[e.Thread], model.Interval{
				Start:       start,
				End:         at,
				Label:       e.Label,
				EventNumber: e.EventNumber,
				Result:      e.Result,
				Barrier:     e.Barrier,
			})
		}
	case model.RegionExit:
		if start, ok := r.finish(key{scopeRegion, e.Thread, e.Label}); ok {
			n := e.EventNumber
			r.timeline.Regions[e.Thread] = append(r.timeline.Regions[e.Thread], model.Interval{
				Start:       start,
				End:         at,
				Label:       e.Label,
				EventNumber: &n,
			})
		}
	case model.BarrierFinished:
		if start, ok := r.finish(key{scope: scopeBarrier}); ok {
			r.timeline.Barriers = append(r.timeline.Barriers, model.Interval{
				Start: start,
				End:   at,
				Label: "barrier",
			})
		}
	}
}

// Timeline returns the collections built so far. The caller must not keep
// applying events after handing the result to a renderer.
func (r *Reconstructor) Timeline() *model.Timeline {
	return r.timeline
}

// Counters returns a snapshot of the pass counters.
func (r *Reconstructor) Counters() Counters {
	c := Counters{
		Events:      make(map[string]int, len(r.counters.Events)),
		Unmatched:   r.counters.Unmatched,
		Overwritten: r.counters.Overwritten,
		Pending:     len(r.open),
	}
	for k, v := range r.counters.Events {
		c.Events[k] = v
	}
	return c
}

func (r *Reconstructor) start(k key, at int64) {
	if _, ok := r.open[k]; ok {
		r.counters.Overwritten++
	}
	r.open[k] = at
}

func (r *Reconstructor) finish(k key) (int64, bool) {
	start, ok := r.open[k]
	if !ok {
		r.counters.Unmatched++
		return 0, false
	}
	delete(r.open, k)
	return start, true
}

// adjust applies the midnight offset when wrap detection is on.
func (r *Reconstructor) adjust(ms int64) int64 {
	if !r.wrap {
		return ms
	}
	if r.seen && ms+day/2 < r.last {
		r.offset += day
	}
	r.last, r.seen = ms, true
	return ms + r.offset
}
