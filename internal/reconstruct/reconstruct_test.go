package reconstruct

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/atikulmunna/threadline/internal/model"
	"github.com/atikulmunna/threadline/internal/parser"
)

func apply(r *Reconstructor, events ...model.Event) {
	for _, ev := range events {
		r.Apply(ev)
	}
}

func TestStartFinishPair(t *testing.T) {
	r := New()
	apply(r,
		model.OperationStart{Thread: 1, Label: "Read", At: 1000},
		model.OperationFinish{Thread: 1, Label: "Read", At: 1050, Result: "Success", EventNumber: model.EventNum(1)},
	)

	want := map[int][]model.Interval{
		1: {{Start: 1000, End: 1050, Label: "Read", Result: "Success", EventNumber: model.EventNum(1)}},
	}
	if diff := cmp.Diff(want, r.Timeline().Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}

	start, end, ok := r.Timeline().Window()
	if !ok || start != 1000 || end != 1050 {
		t.Errorf("expected window [1000,1050], got [%d,%d] ok=%v", start, end, ok)
	}
}

func TestUnmatchedFinishIsDropped(t *testing.T) {
	r := New()
	apply(r,
		model.OperationFinish{Thread: 1, Label: "X", At: 500, EventNumber: model.EventNum(5)},
		model.OperationStart{Thread: 1, Label: "Y", At: 600},
		model.OperationFinish{Thread: 1, Label: "Y", At: 700},
	)

	got := r.Timeline().Operations[1]
	if len(got) != 1 || got[0].Label != "Y" {
		t.Fatalf("expected only the Y interval, got %+v", got)
	}
	if c := r.Counters(); c.Unmatched != 1 {
		t.Errorf("expected 1 unmatched finish, got %d", c.Unmatched)
	}
}

func TestSecondStartOverwrites(t *testing.T) {
	r := New()
	apply(r,
		model.OperationStart{Thread: 2, Label: "Map", At: 100},
		model.OperationStart{Thread: 2, Label: "Map", At: 150},
		model.OperationFinish{Thread: 2, Label: "Map", At: 200, Result: "Success"},
	)

	got := r.Timeline().Operations[2]
	if len(got) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(got))
	}
	if got[0].Start != 150 {
		t.Errorf("expected most recent start 150, got %d", got[0].Start)
	}
	if c := r.Counters(); c.Overwritten != 1 {
		t.Errorf("expected 1 overwritten start, got %d", c.Overwritten)
	}
}

func TestKeysAreThreadAndLabel(t *testing.T) {
	r := New()
	apply(r,
		model.OperationStart{Thread: 1, Label: "Map", At: 100},
		model.OperationStart{Thread: 2, Label: "Map", At: 110},
		model.OperationStart{Thread: 1, Label: "Tap", At: 120},
		model.OperationFinish{Thread: 2, Label: "Map", At: 130},
		model.OperationFinish{Thread: 1, Label: "Tap", At: 140},
		model.OperationFinish{Thread: 1, Label: "Map", At: 150},
	)

	want := map[int][]model.Interval{
		1: {
			{Start: 120, End: 140, Label: "Tap"},
			{Start: 100, End: 150, Label: "Map"},
		},
		2: {{Start: 110, End: 130, Label: "Map"}},
	}
	if diff := cmp.Diff(want, r.Timeline().Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestRegionsDoNotCloseOperations(t *testing.T) {
	r := New()
	apply(r,
		model.OperationStart{Thread: 1, Label: "Fit", At: 100},
		model.RegionExit{Thread: 1, Label: "Fit", At: 110, EventNumber: 3},
		model.OperationFinish{Thread: 1, Label: "Fit", At: 120},
	)

	if got := r.Timeline().Operations[1]; len(got) != 1 || got[0].Start != 100 {
		t.Errorf("expected operation [100,120], got %+v", got)
	}
	if got := r.Timeline().Regions[1]; len(got) != 0 {
		t.Errorf("expected no regions, got %+v", got)
	}
}

func TestBarrierIsGlobal(t *testing.T) {
	r := New()
	apply(r,
		model.BarrierInFlight{At: 2000},
		model.BarrierFinished{At: 2500},
		model.BarrierInFlight{At: 3000},
		model.BarrierFinished{At: 3100},
	)

	want := []model.Interval{
		{Start: 2000, End: 2500, Label: "barrier"},
		{Start: 3000, End: 3100, Label: "barrier"},
	}
	if diff := cmp.Diff(want, r.Timeline().Barriers); diff != "" {
		t.Errorf("barriers mismatch (-want +got):\n%s", diff)
	}
}

func TestRegionOrderPreserved(t *testing.T) {
	r := New()
	apply(r,
		model.RegionEnter{Thread: 4, Label: "A", At: 10, EventNumber: 1},
		model.RegionEnter{Thread: 4, Label: "B", At: 20, EventNumber: 1},
		model.RegionExit{Thread: 4, Label: "B", At: 30, EventNumber: 1},
		model.RegionExit{Thread: 4, Label: "A", At: 40, EventNumber: 1},
		model.RegionEnter{Thread: 4, Label: "C", At: 50, EventNumber: 2},
		model.RegionExit{Thread: 4, Label: "C", At: 60, EventNumber: 2},
	)

	var labels []string
	for _, iv := range r.Timeline().Regions[4] {
		labels = append(labels, iv.Label)
	}
	if diff := cmp.Diff([]string{"B", "A", "C"}, labels); diff != "" {
		t.Errorf("region order mismatch (-want +got):\n%s", diff)
	}
	if n := r.Timeline().Regions[4][0].EventNumber; n == nil || *n != 1 {
		t.Errorf("expected region event number 1, got %v", n)
	}
}

func TestPendingCounter(t *testing.T) {
	r := New()
	apply(r,
		model.OperationStart{Thread: 1, Label: "Read", At: 1},
		model.BarrierInFlight{At: 2},
	)
	c := r.Counters()
	if c.Pending != 2 {
		t.Errorf("expected 2 pending starts, got %d", c.Pending)
	}
	if c.Events["operation_start"] != 1 || c.Events["barrier_in_flight"] != 1 {
		t.Errorf("unexpected event counts: %v", c.Events)
	}
}

func TestMidnightWrapOptIn(t *testing.T) {
	events := []model.Event{
		model.OperationStart{Thread: 1, Label: "Read", At: 86399900},
		model.OperationFinish{Thread: 1, Label: "Read", At: 100},
	}

	plain := New()
	apply(plain, events...)
	if got := plain.Timeline().Operations[1][0]; got.End != 100 {
		t.Errorf("without wrap: expected raw end 100, got %d", got.End)
	}

	wrapped := New(WithMidnightWrap(true))
	apply(wrapped, events...)
	if got := wrapped.Timeline().Operations[1][0]; got.End != 86400100 || got.Duration() != 200 {
		t.Errorf("with wrap: expected end 86400100, got %+v", got)
	}
}

func TestEndToEndFromLines(t *testing.T) {
	lines := []string{
		"00:00:01.000 #1 [debug] Executing arrow Read",
		"JApplication: unrelated chatter",
		"00:00:01.050 #1 [debug] Executed arrow Read with result Success, emitting event# 1",
		"00:00:01.060 #2 [debug] Executed arrow X for event# 5",
		"00:00:01.070 #2 [debug] Executing arrow X for event# 6",
		"00:00:01.090 #2 [debug] Executed arrow X for event# 6",
	}

	p := parser.NewArrowLogClassifier()
	r := New()
	for _, line := range lines {
		ev, err := p.Classify(line)
		if err != nil {
			t.Fatal(err)
		}
		if ev != nil {
			r.Apply(ev)
		}
	}

	want := map[int][]model.Interval{
		1: {{Start: 1000, End: 1050, Label: "Read", Result: "Success", EventNumber: model.EventNum(1)}},
		2: {{Start: 1070, End: 1090, Label: "X", EventNumber: model.EventNum(6)}},
	}
	if diff := cmp.Diff(want, r.Timeline().Operations); diff != "" {
		t.Errorf("operations mismatch (-want +got):\n%s", diff)
	}
}
