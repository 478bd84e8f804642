// Package similarity judges whether a sampled frame shows the reference image.
package similarity

import (
	"context"
	"fmt"
	"image"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/forPelevin/slidecut/internal/types"
)

// Capabilities describes a registered matcher.
type Capabilities struct {
	Name             string
	Accelerated      bool
	DefaultThreshold float64
	// Fallback names the matcher used when the accelerated path is unavailable.
	Fallback string
}

type scoreFunc func(ctx context.Context, ref, frame *image.Gray) (float64, error)

type entry struct {
	caps      Capabilities
	available func() bool
	newScore  func() scoreFunc
}

var registry = map[string]entry{
	"ssim": {
		caps: Capabilities{Name: "ssim", DefaultThreshold: 0.7},
		newScore: func() scoreFunc {
			return func(_ context.Context, ref, frame *image.Gray) (float64, error) { return SSIM(ref, frame) }
		},
	},
	"ncc": {
		caps: Capabilities{Name: "ncc", DefaultThreshold: 0.8},
		newScore: func() scoreFunc {
			return func(_ context.Context, ref, frame *image.Gray) (float64, error) { return NCC(ref, frame) }
		},
	},
	"ncc-parallel": {
		caps:      Capabilities{Name: "ncc-parallel", Accelerated: true, DefaultThreshold: 0.8, Fallback: "ncc"},
		available: func() bool { return runtime.NumCPU() > 1 },
		newScore: func() scoreFunc {
			workers := runtime.NumCPU()
			return func(ctx context.Context, ref, frame *image.Gray) (float64, error) {
				return ParallelNCC(ctx, ref, frame, workers)
			}
		},
	},
}

// Names lists the registered matchers.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the capabilities of a registered matcher.
func Lookup(name string) (Capabilities, error) {
	e, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Capabilities{}, fmt.Errorf("unknown matcher %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return e.caps, nil
}

// Matcher is the oracle: frame in, boolean verdict out.
type Matcher struct {
	caps      Capabilities
	threshold float64
	ref       *Reference
	score     scoreFunc
}

// New builds a matcher by name. A threshold <= 0 selects the matcher's
// default. An accelerated matcher that cannot run on this host falls back
// to its reference implementation.
func New(name string, ref *Reference, threshold float64, log zerolog.Logger) (*Matcher, error) {
	if ref == nil {
		return nil, fmt.Errorf("reference image is required")
	}
	caps, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	e := registry[caps.Name]
	if e.available != nil && !e.available() {
		log.Warn().
			Str("matcher", caps.Name).
			Str("fallback", caps.Fallback).
			Msg("accelerated matcher unavailable, falling back")
		e = registry[caps.Fallback]
		caps = e.caps
	}
	if threshold <= 0 {
		threshold = caps.DefaultThreshold
	}
	if threshold >= 1 {
		return nil, fmt.Errorf("threshold %g must be < 1", threshold)
	}
	return &Matcher{caps: caps, threshold: threshold, ref: ref, score: e.newScore()}, nil
}

func (m *Matcher) Capabilities() Capabilities { return m.caps }
func (m *Matcher) Threshold() float64         { return m.threshold }

// Judge scores frame against the reference resized to the frame size.
func (m *Matcher) Judge(ctx context.Context, frame *image.Gray) (types.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return types.Verdict{}, err
	}
	frame = ToGray(frame)
	ref := m.ref.Fit(frame.Bounds().Size())
	s, err := m.score(ctx, ref, frame)
	if err != nil {
		return types.Verdict{}, fmt.Errorf("%s: %w", m.caps.Name, err)
	}
	return types.Verdict{Match: s > m.threshold, Score: s, Threshold: m.threshold}, nil
}
