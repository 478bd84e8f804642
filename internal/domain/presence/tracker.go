package presence

// ToggleEvent marks a flip of the match state at a sampled second.
type ToggleEvent struct {
	Second    int     `json:"second"`
	Timestamp float64 `json:"timestamp"`
	Entering  bool    `json:"entering"`
}

// Tracker holds the "currently matching" flag and the events emitted so far.
// It must see every sampled second exactly once, in increasing order.
type Tracker struct {
	timeline Timeline
	inMatch  bool
	last     int
	events   []ToggleEvent
}

func NewTracker(tl Timeline) *Tracker {
	return &Tracker{timeline: tl, last: -1}
}

// Advance feeds the decision for one second. ok is true when the state flipped.
func (t *Tracker) Advance(second int, isMatch bool) (ev ToggleEvent, ok bool, err error) {
	if second <= t.last {
		return ToggleEvent{}, false, violation("tracker", "second %d after %d: seconds must strictly increase", second, t.last)
	}
	t.last = second

	switch {
	case isMatch && !t.inMatch:
		t.inMatch = true
	case !isMatch && t.inMatch:
		t.inMatch = false
	default:
		return ToggleEvent{}, false, nil
	}

	ev = ToggleEvent{
		Second:    second,
		Timestamp: t.timeline.Timestamp(second),
		Entering:  t.inMatch,
	}
	t.events = append(t.events, ev)
	return ev, true, nil
}

// InMatch reports whether the last decision left the tracker inside a match run.
func (t *Tracker) InMatch() bool { return t.inMatch }

func (t *Tracker) Events() []ToggleEvent {
	return append([]ToggleEvent(nil), t.events...)
}

// Timestamps returns the event times in emission order.
func (t *Tracker) Timestamps() []float64 {
	out := make([]float64, len(t.events))
	for i, ev := range t.events {
		out[i] = ev.Timestamp
	}
	return out
}
