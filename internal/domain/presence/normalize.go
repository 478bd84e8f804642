package presence

import (
	"fmt"
	"math"
	"strings"
)

// ExclusionInterval is a half-open [Start, End) span to remove.
type ExclusionInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// LeadingZeroPolicy decides what a toggle at t=0 means.
type LeadingZeroPolicy int

const (
	// LeadingZeroDropAppend drops the event at 0 and closes the sequence with
	// the duration. Pairs then describe the runs between matches, so a video
	// that opens on the reference image has its matching half kept.
	LeadingZeroDropAppend LeadingZeroPolicy = iota
	// LeadingZeroAnchor keeps 0 as the start of a match run.
	LeadingZeroAnchor
)

func (p LeadingZeroPolicy) String() string {
	switch p {
	case LeadingZeroAnchor:
		return "anchor"
	default:
		return "drop-append"
	}
}

func ParseLeadingZeroPolicy(s string) (LeadingZeroPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop-append":
		return LeadingZeroDropAppend, nil
	case "anchor":
		return LeadingZeroAnchor, nil
	default:
		return 0, fmt.Errorf("unknown leading zero policy %q (want drop-append or anchor)", s)
	}
}

type NormalizeOptions struct {
	LeadingZero LeadingZeroPolicy
}

// Normalize pairs toggle timestamps into exclusion intervals.
//
// A run still open at the end of the timeline is closed at the duration
// rounded to the nearest second. The rounded value is clamped into
// (last event, duration] so the closing interval is never empty and never
// extends past the video. A lone trailing event already sitting at the
// duration is a zero-length run and is dropped instead of padded.
func Normalize(events []float64, duration float64, opts NormalizeOptions) ([]ExclusionInterval, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, &InvalidInputError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	if len(events) == 0 {
		return nil, nil
	}
	for i, ev := range events {
		if ev < 0 || ev > duration {
			return nil, violation("normalize", "event %d at %g is outside [0, %g]", i, ev, duration)
		}
		if i > 0 && ev <= events[i-1] {
			return nil, violation("normalize", "event %d at %g is not after event %d at %g", i, ev, i-1, events[i-1])
		}
	}

	seq := append([]float64(nil), events...)
	if seq[0] == 0 && opts.LeadingZero == LeadingZeroDropAppend {
		seq = append(seq[1:], duration)
	}

	if len(seq)%2 != 0 {
		last := seq[len(seq)-1]
		if last >= duration {
			seq = seq[:len(seq)-1]
		} else {
			seq = append(seq, closingTime(last, duration))
		}
	}

	var out []ExclusionInterval
	for i := 0; i+1 < len(seq); i += 2 {
		start, end := seq[i], seq[i+1]
		if start >= end {
			return nil, violation("normalize", "pair %d is [%g, %g): start must be before end", i/2, start, end)
		}
		out = append(out, ExclusionInterval{Start: start, End: end})
	}
	return out, nil
}

func closingTime(last, duration float64) float64 {
	c := math.Round(duration)
	if c > duration || c <= last {
		return duration
	}
	return c
}

// Boundaries flattens intervals back into the toggle timestamps they imply.
func Boundaries(ex []ExclusionInterval) []float64 {
	out := make([]float64, 0, len(ex)*2)
	for _, e := range ex {
		out = append(out, e.Start, e.End)
	}
	return out
}
