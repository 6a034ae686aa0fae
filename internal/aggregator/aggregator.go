package aggregator

import (
	"sort"

	"github.com/atikulmunna/threadline/internal/model"
)

// Stats holds aggregate figures for one reconstructed timeline.
type Stats struct {
	WindowStart int64         `json:"window_start_ms"`
	WindowEnd   int64         `json:"window_end_ms"`
	Operations  int           `json:"operations"`
	Regions     int           `json:"regions"`
	Barriers    int           `json:"barriers"`
	BarrierMs   int64         `json:"barrier_ms"`
	Labels      []LabelStats  `json:"labels"`
	Threads     []ThreadStats `json:"threads"`
}

// Window returns the span covered by operation intervals.
func (s Stats) Window() int64 { return s.WindowEnd - s.WindowStart }

// LabelStats summarises every operation interval sharing one label.
type LabelStats struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	TotalMs int64   `json:"total_ms"`
	MeanMs  float64 `json:"mean_ms"`
	MaxMs   int64   `json:"max_ms"`
	Pending int     `json:"pending"` // ComeBackLater without an event
}

// ThreadStats summarises one thread's operation history.
type ThreadStats struct {
	Thread      int     `json:"thread"`
	Intervals   int     `json:"intervals"`
	BusyMs      int64   `json:"busy_ms"`
	Utilization float64 `json:"utilization"`
}

// Summarize computes Stats over tl. Labels are ordered by total time
// descending, then name; threads by id. Negative durations count as zero.
func Summarize(tl *model.Timeline) Stats {
	var s Stats
	s.WindowStart, s.WindowEnd, _ = tl.Window()
	window := s.Window()

	byLabel := make(map[string]*LabelStats)
	for _, thread := range tl.ThreadIDs() {
		ts := ThreadStats{Thread: thread}
		for _, iv := range tl.Operations[thread] {
			d := clamp(iv.Duration())

			ls, ok := byLabel[iv.Label]
			if !ok {
				ls = &LabelStats{Label: iv.Label}
				byLabel[iv.Label] = ls
			}
			ls.Count++
			ls.TotalMs += d
			if d > ls.MaxMs {
				ls.MaxMs = d
			}
			if iv.Pending() {
				ls.Pending++
			}

			ts.Intervals++
			ts.BusyMs += d
			s.Operations++
		}
		if window > 0 {
			ts.Utilization = float64(ts.BusyMs) / float64(window)
		}
		s.Regions += len(tl.Regions[thread])
		s.Threads = append(s.Threads, ts)
	}

	for _, ls := range byLabel {
		ls.MeanMs = float64(ls.TotalMs) / float64(ls.Count)
		s.Labels = append(s.Labels, *ls)
	}
	sort.Slice(s.Labels, func(i, j int) bool {
		if s.Labels[i].TotalMs != s.Labels[j].TotalMs {
			return s.Labels[i].TotalMs > s.Labels[j].TotalMs
		}
		return s.Labels[i].Label < s.Labels[j].Label
	})

	s.Barriers = len(tl.Barriers)
	for _, iv := range tl.Barriers {
		s.BarrierMs += clamp(iv.Duration())
	}
	return s
}

func clamp(d int64) int64 {
	if d < 0 {
		return 0
	}
	return d
}
