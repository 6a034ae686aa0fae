package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/atikulmunna/threadline/internal/aggregator"
)

func sampleStats() aggregator.Stats {
	return aggregator.Stats{
		WindowStart: 3723004,
		WindowEnd:   3724004,
		Operations:  3,
		Labels: []aggregator.LabelStats{
			{Label: "Map", Count: 2, TotalMs: 400, MeanMs: 200, MaxMs: 300},
			{Label: "Source", Count: 1, TotalMs: 10, MeanMs: 10, MaxMs: 10, Pending: 1},
		},
		Threads: []aggregator.ThreadStats{{Thread: 1, Intervals: 3, BusyMs: 410, Utilization: 0.41}},
	}
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(sampleStats()); err != nil {
		t.Fatal(err)
	}

	var got aggregator.Stats
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\nraw: %s", err, buf.String())
	}
	if len(got.Labels) != 2 || got.Labels[1].Pending != 1 {
		t.Errorf("unexpected labels %+v", got.Labels)
	}
	if !strings.Contains(buf.String(), `"window_start_ms": 3723004`) {
		t.Errorf("expected snake_case keys, got %s", buf.String())
	}
}

func TestTextRenderer(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(sampleStats()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"01:02:03.004", "01:02:04.004", "(1000ms)", "Map", "Source", "#1", "41.0%"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := New("xml", &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown format")
	}
}
