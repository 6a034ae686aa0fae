package aggregator

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/atikulmunna/threadline/internal/model"
)

func TestSummarize(t *testing.T) {
	tl := model.NewTimeline()
	tl.Operations[1] = []model.Interval{
		{Start: 0, End: 100, Label: "Map", Result: "Success", EventNumber: model.EventNum(1)},
		{Start: 100, End: 400, Label: "Map", Result: "Success", EventNumber: model.EventNum(2)},
		{Start: 400, End: 410, Label: "Source", Result: "ComeBackLater"},
	}
	tl.Operations[2] = []model.Interval{
		{Start: 50, End: 1000, Label: "Tap"},
	}
	tl.Regions[2] = []model.Interval{{Start: 60, End: 70, Label: "Fit"}}
	tl.Regions[3] = []model.Interval{{Start: 80, End: 90, Label: "Fit"}}
	tl.Barriers = []model.Interval{{Start: 500, End: 600}, {Start: 700, End: 650}}

	s := Summarize(tl)

	if s.Window() != 1000 {
		t.Errorf("expected window 1000, got %d", s.Window())
	}
	if s.Operations != 4 || s.Regions != 2 || s.Barriers != 2 {
		t.Errorf("unexpected counts: ops=%d regions=%d barriers=%d", s.Operations, s.Regions, s.Barriers)
	}
	if s.BarrierMs != 100 {
		t.Errorf("expected negative barrier clamped, total 100, got %d", s.BarrierMs)
	}

	wantLabels := []LabelStats{
		{Label: "Tap", Count: 1, TotalMs: 950, MeanMs: 950, MaxMs: 950},
		{Label: "Map", Count: 2, TotalMs: 400, MeanMs: 200, MaxMs: 300},
		{Label: "Source", Count: 1, TotalMs: 10, MeanMs: 10, MaxMs: 10, Pending: 1},
	}
	if diff := cmp.Diff(wantLabels, s.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	wantThreads := []ThreadStats{
		{Thread: 1, Intervals: 3, BusyMs: 410, Utilization: 0.41},
		{Thread: 2, Intervals: 1, BusyMs: 950, Utilization: 0.95},
		{Thread: 3},
	}
	if diff := cmp.Diff(wantThreads, s.Threads); diff != "" {
		t.Errorf("threads mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(model.NewTimeline())
	if s.Operations != 0 || len(s.Labels) != 0 || len(s.Threads) != 0 {
		t.Errorf("expected empty stats, got %+v", s)
	}
}
