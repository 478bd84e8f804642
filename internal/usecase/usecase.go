package usecase

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/slidecut/internal/domain/presence"
	"github.com/forPelevin/slidecut/internal/ports"
	"github.com/forPelevin/slidecut/internal/types"
)

// minFrameSide keeps sampled frames larger than the SSIM window.
const minFrameSide = 8

type Deps struct {
	Video  ports.VideoTool
	Oracle ports.Oracle
	Log    zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	InputPath     string
	OutputPath    string
	AnalysisWidth int
	LeadingZero   presence.LeadingZeroPolicy
	// WorkDir receives the rendered parts before concatenation.
	WorkDir  string
	DryRun   bool
	Progress func(done, total int)
}

type Result struct {
	Report types.Report
	Plan   presence.Plan
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := u.d.Log
	progress := in.Progress
	if progress == nil {
		progress = func(int, int) {}
	}

	info, err := u.d.Video.Probe(ctx, in.InputPath)
	if err != nil {
		return Result{}, &presence.CollaboratorError{Stage: "probe", Second: -1, Err: err}
	}
	tl, err := presence.NewTimeline(info.FPS, info.TotalFrames)
	if err != nil {
		return Result{}, err
	}
	log.Info().
		Str("video", filepath.Base(in.InputPath)).
		Int("fps", tl.FrameRate()).
		Str("duration", presence.FormatDuration(tl.Duration())).
		Msg("video loaded")

	w, h := analysisSize(info, in.AnalysisWidth)
	spec := types.SampleSpec{FrameRate: tl.FrameRate(), Width: w, Height: h}

	tracker := presence.NewTracker(tl)
	total := tl.SampleCount()
	samples, matches := 0, 0
	var stepErr error
	err = u.d.Video.SampleFrames(ctx, in.InputPath, spec, func(second int, frame *image.Gray) error {
		if err := ctx.Err(); err != nil {
			stepErr = err
			return err
		}
		if second > tl.LastSecond() {
			return nil
		}
		v, err := u.d.Oracle.Judge(ctx, frame)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				stepErr = ctxErr
			} else {
				stepErr = &presence.CollaboratorError{Stage: "similarity", Second: second, Err: err}
			}
			return stepErr
		}
		ev, flipped, err := tracker.Advance(second, v.Match)
		if err != nil {
			stepErr = err
			return err
		}
		if flipped {
			log.Debug().Int("second", ev.Second).Bool("entering", ev.Entering).Float64("score", v.Score).Msg("toggle")
		}
		samples++
		if v.Match {
			matches++
		}
		progress(second+1, total)
		return nil
	})
	switch {
	case stepErr != nil:
		return Result{}, stepErr
	case err != nil && ctx.Err() != nil:
		return Result{}, ctx.Err()
	case err != nil:
		return Result{}, &presence.CollaboratorError{Stage: "sample frames", Second: samples, Err: err}
	}
	if samples == 0 {
		return Result{}, &presence.InvalidInputError{Field: "video", Reason: "yielded no frames"}
	}
	if samples != total {
		log.Warn().Int("sampled", samples).Int("expected", total).Msg("sampler returned a different number of seconds than the container reports")
	}

	plan, err := presence.BuildPlan(tl.Duration(), tracker.Timestamps(), presence.NormalizeOptions{LeadingZero: in.LeadingZero})
	if err != nil {
		return Result{}, err
	}

	rep := types.Report{
		Input:       in.InputPath,
		LeadingZero: in.LeadingZero.String(),
		FPS:         tl.FrameRate(),
		TotalFrames: tl.TotalFrames(),
		DurationSec: tl.Duration(),
		Samples:     samples,
		Matches:     matches,
		Toggles:     tracker.Events(),
		Exclusions:  plan.Exclusions,
		Keeps:       plan.Keeps,
		RemovedSec:  plan.RemovedSeconds(),
		CutPieces:   presence.FormatPairs(plan.Exclusions),
		DryRun:      in.DryRun,
	}
	log.Info().
		Str("cut", rep.CutPieces).
		Str("removed", presence.FormatDuration(rep.RemovedSec)).
		Int("keeps", len(plan.Keeps)).
		Msg("analysis done")

	if in.DryRun {
		return Result{Report: rep, Plan: plan}, nil
	}
	if len(plan.Keeps) == 0 {
		return Result{}, &presence.InvalidInputError{Field: "video", Reason: "matches the reference for its whole length, nothing left to keep"}
	}

	if err := u.assemble(ctx, in, plan.Keeps); err != nil {
		return Result{}, err
	}
	rep.Output = in.OutputPath
	return Result{Report: rep, Plan: plan}, nil
}

// assemble renders every keep interval and concatenates them in order. The
// output only appears once concatenation succeeded.
func (u Usecase) assemble(ctx context.Context, in Input, keeps []presence.KeepInterval) error {
	partsDir := filepath.Join(in.WorkDir, "parts")
	if err := os.MkdirAll(partsDir, 0o755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(in.OutputPath), 0o755); err != nil {
		return err
	}

	ext := filepath.Ext(in.OutputPath)
	if ext == "" {
		ext = ".mp4"
	}
	parts := make([]string, 0, len(keeps))
	for i, k := range keeps {
		part := filepath.Join(partsDir, fmt.Sprintf("%03d%s", i+1, ext))
		u.d.Log.Debug().Float64("start", k.Start).Float64("end", k.End).Str("part", part).Msg("render keep")
		if err := u.d.Video.RenderClip(ctx, in.InputPath, dur(k.Start), dur(k.End), part); err != nil {
			return &presence.CollaboratorError{Stage: "render clip", Second: int(k.Start), Err: err}
		}
		parts = append(parts, part)
	}

	tmp := partialPath(in.OutputPath, ext)
	if err := u.d.Video.Concat(ctx, parts, tmp); err != nil {
		_ = os.Remove(tmp)
		return &presence.CollaboratorError{Stage: "concat", Second: -1, Err: err}
	}
	if err := os.Rename(tmp, in.OutputPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

func partialPath(out, ext string) string {
	base := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
	return filepath.Join(filepath.Dir(out), "."+base+".partial"+ext)
}

// analysisSize scales the video down to maxWidth keeping the aspect ratio.
func analysisSize(info types.VideoInfo, maxWidth int) (int, int) {
	w, h := info.Width, info.Height
	if w <= 0 || h <= 0 {
		w, h = 16, 9
	}
	tw := w
	if maxWidth > 0 && maxWidth < w {
		tw = maxWidth
	}
	th := int(math.Round(float64(tw) * float64(h) / float64(w)))
	tw, th = even(max(tw, minFrameSide)), even(max(th, minFrameSide))
	return tw, th
}

func even(v int) int { return v + v%2 }

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }

// IsInvalidInput reports whether err came from input that cannot be analysed.
func IsInvalidInput(err error) bool {
	var in *presence.InvalidInputError
	return errors.As(err, &in)
}
