package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/atikulmunna/threadline/internal/model"
)

// ErrMalformedField is returned when a numeric field matched its pattern but
// could not be converted. It indicates a broken pattern, not a foreign line.
var ErrMalformedField = errors.New("malformed numeric field")

// Classifier converts a raw log line into at most one Event.
type Classifier interface {
	Classify(line string) (model.Event, error)
}

// ---------------------------------------------------------------------------
// Line header
// ---------------------------------------------------------------------------

// headerPattern matches "HH:MM:SS.mmm #<thread> [level] <body>". The level tag
// is right-aligned by the producer, so any run of spaces may precede it.
var headerPattern = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})\.(\d{3}) #(\d+) +\[\w+\] (.+)$`)

type header struct {
	thread int
	at     int64
}

func parseHeader(m []string) (header, error) {
	var fields [4]int64
	for i, name := range []string{"hours", "minutes", "seconds", "milliseconds"} {
		v, err := parseInt(name, m[i+1])
		if err != nil {
			return header{}, err
		}
		fields[i] = v
	}
	thread, err := strconv.Atoi(m[5])
	if err != nil {
		return header{}, fmt.Errorf("%w: thread id %q: %v", ErrMalformedField, m[5], err)
	}
	at := ((fields[0]*60+fields[1])*60+fields[2])*1000 + fields[3]
	return header{thread: thread, at: at}, nil
}

// ---------------------------------------------------------------------------
// Body matchers
// ---------------------------------------------------------------------------

type matcher struct {
	name  string
	re    *regexp.Regexp
	build func(h header, m []string) (model.Event, error)
}

// matchers are tried in order and the first match wins. The grammar makes
// them mutually exclusive, but the order is part of the contract.
var matchers = []matcher{
	{
		name: "executed_emitting",
		re:   regexp.MustCompile(`^Executed arrow (\S+) with result (\w+), emitting event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			n, err := parseInt("event number", m[3])
			if err != nil {
				return nil, err
			}
			return model.OperationFinish{Thread: h.thread, Label: m[1], At: h.at, Result: m[2], EventNumber: &n}, nil
		},
	},
	{
		name: "executed_holding_barrier",
		re:   regexp.MustCompile(`^Executed arrow (\S+) with result (\w+), holding back barrier event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			n, err := parseInt("event number", m[3])
			if err != nil {
				return nil, err
			}
			return model.OperationFinish{Thread: h.thread, Label: m[1], At: h.at, Result: m[2], EventNumber: &n, Barrier: true}, nil
		},
	},
	{
		name: "executed_result",
		re:   regexp.MustCompile(`^Executed arrow (\S+) with result (\w+)$`),
		build: func(h header, m []string) (model.Event, error) {
			return model.OperationFinish{Thread: h.thread, Label: m[1], At: h.at, Result: m[2]}, nil
		},
	},
	{
		name: "executing_for_event",
		re:   regexp.MustCompile(`^Executing arrow (\S+) for event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			if _, err := parseInt("event number", m[2]); err != nil {
				return nil, err
			}
			return model.OperationStart{Thread: h.thread, Label: m[1], At: h.at}, nil
		},
	},
	{
		name: "executed_for_event",
		re:   regexp.MustCompile(`^Executed arrow (\S+) for event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			n, err := parseInt("event number", m[2])
			if err != nil {
				return nil, err
			}
			return model.OperationFinish{Thread: h.thread, Label: m[1], At: h.at, EventNumber: &n}, nil
		},
	},
	{
		name: "executing",
		re:   regexp.MustCompile(`^Executing arrow (\S+)$`),
		build: func(h header, m []string) (model.Event, error) {
			return model.OperationStart{Thread: h.thread, Label: m[1], At: h.at}, nil
		},
	},
	{
		name: "entering_region",
		re:   regexp.MustCompile(`^Entering region (\S+) for event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			n, err := parseInt("event number", m[2])
			if err != nil {
				return nil, err
			}
			return model.RegionEnter{Thread: h.thread, Label: m[1], At: h.at, EventNumber: n}, nil
		},
	},
	{
		name: "exited_region",
		re:   regexp.MustCompile(`^Exited region (\S+) for event# (\d+)$`),
		build: func(h header, m []string) (model.Event, error) {
			n, err := parseInt("event number", m[2])
			if err != nil {
				return nil, err
			}
			return model.RegionExit{Thread: h.thread, Label: m[1], At: h.at, EventNumber: n}, nil
		},
	},
	{
		name: "barrier_in_flight",
		re:   regexp.MustCompile(`^\S+: Barrier event is in-flight$`),
		build: func(h header, _ []string) (model.Event, error) {
			return model.BarrierInFlight{At: h.at}, nil
		},
	},
	{
		name: "barrier_finished",
		re:   regexp.MustCompile(`^\S+: Barrier event finished, returning to normal operation$`),
		build: func(h header, _ []string) (model.Event, error) {
			return model.BarrierFinished{At: h.at}, nil
		},
	},
}

// MatcherNames returns the matcher names in priority order.
func MatcherNames() []string {
	names := make([]string, len(matchers))
	for i, m := range matchers {
		names[i] = m.name
	}
	return names
}

// ---------------------------------------------------------------------------
// Arrow log classifier
// ---------------------------------------------------------------------------

// ArrowLogClassifier recognises the arrow, region and barrier lines written
// by the event-processing runtime at debug level with thread stamps enabled.
type ArrowLogClassifier struct{}

func NewArrowLogClassifier() *ArrowLogClassifier { return &ArrowLogClassifier{} }

// Classify returns (nil, nil) for lines that match no grammar. A non-nil error
// wraps ErrMalformedField.
func (c *ArrowLogClassifier) Classify(line string) (model.Event, error) {
	hm := headerPattern.FindStringSubmatch(strings.TrimSpace(line))
	if hm == nil {
		return nil, nil
	}
	body := hm[6]

	for _, m := range matchers {
		bm := m.re.FindStringSubmatch(body)
		if bm == nil {
			continue
		}
		h, err := parseHeader(hm)
		if err != nil {
			return nil, err
		}
		return m.build(h, bm)
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func parseInt(name, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrMalformedField, name, s, err)
	}
	return v, nil
}
