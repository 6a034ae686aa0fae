package model

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Interval is a closed [Start, End] span in milliseconds since local midnight.
// End >= Start is not guaranteed.
type Interval struct {
	Start       int64  `json:"start_ms"`
	End         int64  `json:"end_ms"`
	Label       string `json:"label"`
	EventNumber *int64 `json:"event_number,omitempty"`
	Result      string `json:"result,omitempty"`
	Barrier     bool   `json:"barrier,omitempty"`
}

// PendingResult is the non-terminal arrow result: the arrow asked to be
// scheduled again later.
const PendingResult = "ComeBackLater"

// Pending reports whether the arrow came back without producing an event.
func (iv Interval) Pending() bool {
	return iv.Result == PendingResult && iv.EventNumber == nil
}

// Duration returns End - Start.
func (iv Interval) Duration() int64 { return iv.End - iv.Start }

// Timeline holds the three reconstructed collections. Thread histories are
// keyed by thread id and ordered by completion.
type Timeline struct {
	Operations map[int][]Interval `json:"operations"`
	Regions    map[int][]Interval `json:"regions"`
	Barriers   []Interval         `json:"barriers"`
}

// NewTimeline returns an empty Timeline with allocated maps.
func NewTimeline() *Timeline {
	return &Timeline{
		Operations: make(map[int][]Interval),
		Regions:    make(map[int][]Interval),
	}
}

// Empty reports whether no operation interval was reconstructed.
func (t *Timeline) Empty() bool {
	for _, h := range t.Operations {
		if len(h) > 0 {
			return false
		}
	}
	return true
}

// Window returns the earliest start and latest end over all operation
// intervals. Regions and barriers do not extend the window. ok is false when
// there are no operation intervals.
func (t *Timeline) Window() (start, end int64, ok bool) {
	for _, h := range t.Operations {
		for _, iv := range h {
			if !ok {
				start, end, ok = iv.Start, iv.End, true
				continue
			}
			if iv.Start < start {
				start = iv.Start
			}
			if iv.End > end {
				end = iv.End
			}
		}
	}
	return start, end, ok
}

// ThreadIDs returns every thread id with an operation or region history, in
// ascending order. Lanes and colour assignment follow this order.
func (t *Timeline) ThreadIDs() []int {
	seen := make(map[int]struct{}, len(t.Operations)+len(t.Regions))
	for id := range t.Operations {
		seen[id] = struct{}{}
	}
	for id := range t.Regions {
		seen[id] = struct{}{}
	}
	ids := maps.Keys(seen)
	slices.Sort(ids)
	return ids
}
