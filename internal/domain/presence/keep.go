package presence

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// KeepInterval is a half-open [Start, End) span retained in the output.
type KeepInterval struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (k KeepInterval) Length() float64 { return k.End - k.Start }

// KeepIntervals returns the complement of ex within [0, duration).
// Exclusions must be ordered and must not overlap.
func KeepIntervals(ex []ExclusionInterval, duration float64) ([]KeepInterval, error) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return nil, &InvalidInputError{Field: "duration", Reason: "must be a positive number of seconds"}
	}
	if len(ex) == 0 {
		return []KeepInterval{{Start: 0, End: duration}}, nil
	}

	var out []KeepInterval
	cursor := 0.0
	for i, e := range ex {
		if e.Start >= e.End {
			return nil, violation("keep", "exclusion %d is [%g, %g): start must be before end", i, e.Start, e.End)
		}
		if e.Start < cursor {
			return nil, violation("keep", "exclusion %d starts at %g before previous end %g", i, e.Start, cursor)
		}
		if e.End > duration {
			return nil, violation("keep", "exclusion %d ends at %g past duration %g", i, e.End, duration)
		}
		if e.Start > cursor {
			out = append(out, KeepInterval{Start: cursor, End: e.Start})
		}
		cursor = e.End
	}
	if cursor < duration {
		out = append(out, KeepInterval{Start: cursor, End: duration})
	}
	return out, nil
}

// CheckCoverage verifies that keeps and exclusions tile [0, duration) exactly.
func CheckCoverage(ex []ExclusionInterval, keeps []KeepInterval, duration float64) error {
	type span struct {
		start, end float64
		kind       string
	}
	spans := make([]span, 0, len(ex)+len(keeps))
	i, j := 0, 0
	for i < len(ex) || j < len(keeps) {
		if j >= len(keeps) || (i < len(ex) && ex[i].Start < keeps[j].Start) {
			spans = append(spans, span{ex[i].Start, ex[i].End, "exclusion"})
			i++
			continue
		}
		spans = append(spans, span{keeps[j].Start, keeps[j].End, "keep"})
		j++
	}

	cursor := 0.0
	for _, s := range spans {
		if s.start >= s.end {
			return violation("coverage", "empty %s [%g, %g)", s.kind, s.start, s.end)
		}
		if s.start < cursor {
			return violation("coverage", "%s [%g, %g) overlaps previous span ending at %g", s.kind, s.start, s.end, cursor)
		}
		if s.start > cursor {
			return violation("coverage", "gap [%g, %g) before %s", cursor, s.start, s.kind)
		}
		cursor = s.end
	}
	if cursor != duration {
		return violation("coverage", "spans end at %g, duration is %g", cursor, duration)
	}
	return nil
}

// RemovedSeconds sums the length of all exclusions.
func RemovedSeconds(ex []ExclusionInterval) float64 {
	var total float64
	for _, e := range ex {
		total += e.End - e.Start
	}
	return total
}

// FormatPairs renders intervals as "a->b, c->d" for console output.
func FormatPairs(ex []ExclusionInterval) string {
	parts := make([]string, 0, len(ex))
	for _, e := range ex {
		parts = append(parts, fmt.Sprintf("%s->%s", fmtSec(e.Start), fmtSec(e.End)))
	}
	return strings.Join(parts, ", ")
}

// FormatDuration renders seconds as "N min, M sec".
func FormatDuration(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	whole := int(math.Round(sec))
	return fmt.Sprintf("%d min, %d sec", whole/60, whole%60)
}

func fmtSec(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
