package model

// Kind identifies which Event variant a value is.
type Kind int

const (
	KindOperationStart Kind = iota
	KindOperationFinish
	KindRegionEnter
	KindRegionExit
	KindBarrierInFlight
	KindBarrierFinished
)

var kindNames = [...]string{
	KindOperationStart:  "operation_start",
	KindOperationFinish: "operation_finish",
	KindRegionEnter:     "region_enter",
	KindRegionExit:      "region_exit",
	KindBarrierInFlight: "barrier_in_flight",
	KindBarrierFinished: "barrier_finished",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Event is one classified log line. The concrete types below are the only
// implementations.
type Event interface {
	Kind() Kind
	Millis() int64
}

// OperationStart is an "Executing arrow" line.
type OperationStart struct {
	Thread int
	Label  string
	At     int64
}

// OperationFinish is an "Executed arrow" line. Result is empty when the line
// carried none; EventNumber is nil when the line carried none.
type OperationFinish struct {
	Thread      int
	Label       string
	At          int64
	Result      string
	EventNumber *int64
	Barrier     bool // "holding back barrier event#"
}

// RegionEnter is an "Entering region" line.
type RegionEnter struct {
	Thread      int
	Label       string
	At          int64
	EventNumber int64
}

// RegionExit is an "Exited region" line.
type RegionExit struct {
	Thread      int
	Label       string
	At          int64
	EventNumber int64
}

// BarrierInFlight marks the opening of the global barrier window.
type BarrierInFlight struct {
	At int64
}

// BarrierFinished marks the closing of the global barrier window.
type BarrierFinished struct {
	At int64
}

func (e OperationStart) Kind() Kind  { return KindOperationStart }
func (e OperationFinish) Kind() Kind { return KindOperationFinish }
func (e RegionEnter) Kind() Kind     { return KindRegionEnter }
func (e RegionExit) Kind() Kind      { return KindRegionExit }
func (e BarrierInFlight) Kind() Kind { return KindBarrierInFlight }
func (e BarrierFinished) Kind() Kind { return KindBarrierFinished }

func (e OperationStart) Millis() int64  { return e.At }
func (e OperationFinish) Millis() int64 { return e.At }
func (e RegionEnter) Millis() int64     { return e.At }
func (e RegionExit) Millis() int64      { return e.At }
func (e BarrierInFlight) Millis() int64 { return e.At }
func (e BarrierFinished) Millis() int64 { return e.At }

// EventNum returns a pointer to n, for building OperationFinish values.
func EventNum(n int64) *int64 { return &n }
