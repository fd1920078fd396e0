package l2stability

// State is the tracking-quality state of the hysteresis machine.
type State string

const (
	StateUnstable State = "unstable" // Waiting for a run of agreeing keyframes
	StateStable   State = "stable"   // Frame and keyframe estimates agree
)

// Params configures the hysteresis thresholds.
type Params struct {
	// Window is the number of consecutive keyframe distances that must all
	// be below Threshold to open a segment.
	Window int
	// Threshold is the opening distance. A segment closes when a distance
	// exceeds twice this value.
	Threshold float64
}

// DefaultParams returns the thresholds used for ORB-SLAM2 monocular dumps.
func DefaultParams() Params {
	return Params{Window: 5, Threshold: 0.01}
}

// EventKind classifies a state transition.
type EventKind int

const (
	EventNone EventKind = iota
	EventStart
	EventEnd
)

// Event reports a transition at keyframe position Keyframe.
type Event struct {
	Kind     EventKind
	Keyframe int
}

// Machine is the explicit hysteresis state. PendingStart is the keyframe
// position of the open segment, or -1 while unstable.
type Machine struct {
	State        State
	PendingStart int
}

// NewMachine returns a machine in the unstable state.
func NewMachine() Machine {
	return Machine{State: StateUnstable, PendingStart: -1}
}

// Step advances the machine over keyframe i. It does not modify m or dists.
//
// While unstable, the distances dists[i:i+Window] must all be below the
// threshold to open a segment at i; the look-ahead is truncated at the end of
// the sequence. While stable, a distance above twice the threshold closes the
// segment at i.
func Step(m Machine, p Params, dists []float64, i int) (Machine, Event) {
	switch m.State {
	case StateStable:
		if dists[i] > 2*p.Threshold {
			return NewMachine(), Event{Kind: EventEnd, Keyframe: i}
		}
	default:
		end := min(i+p.Window, len(dists))
		for _, d := range dists[i:end] {
			if !(d < p.Threshold) {
				return m, Event{Kind: EventNone, Keyframe: i}
			}
		}
		return Machine{State: StateStable, PendingStart: i}, Event{Kind: EventStart, Keyframe: i}
	}
	return m, Event{Kind: EventNone, Keyframe: i}
}

// Run drives a fresh machine over every distance and returns the keyframe
// positions of each recorded start and end. A segment still open when the
// sequence ends is closed at the last keyframe and reported with open=true.
func Run(p Params, dists []float64) (starts, ends []int, open bool) {
	m := NewMachine()
	for i := range dists {
		var ev Event
		m, ev = Step(m, p, dists, i)
		switch ev.Kind {
		case EventStart:
			starts = append(starts, ev.Keyframe)
		case EventEnd:
			ends = append(ends, ev.Keyframe)
		}
	}
	if m.State == StateStable {
		ends = append(ends, len(dists)-1)
		open = true
	}
	return starts, ends, open
}
