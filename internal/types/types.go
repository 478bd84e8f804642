package types

import "github.com/forPelevin/slidecut/internal/domain/presence"

// Verdict is the oracle's judgement of one sampled frame.
type Verdict struct {
	Match     bool
	Score     float64
	Threshold float64
}

type VideoInfo struct {
	Path        string
	FPS         float64
	TotalFrames int
	Duration    float64
	Width       int
	Height      int
	HasAudio    bool
}

// SampleSpec tells the sampler how to extract one frame per second.
type SampleSpec struct {
	FrameRate int
	Width     int
	Height    int
}

type Report struct {
	Input       string                       `json:"input"`
	Output      string                       `json:"output,omitempty"`
	Reference   string                       `json:"reference"`
	Matcher     string                       `json:"matcher"`
	Threshold   float64                      `json:"threshold"`
	LeadingZero string                       `json:"leading_zero"`
	FPS         int                          `json:"fps"`
	TotalFrames int                          `json:"total_frames"`
	DurationSec float64                      `json:"duration_sec"`
	Samples     int                          `json:"samples"`
	Matches     int                          `json:"matches"`
	Toggles     []presence.ToggleEvent       `json:"toggles"`
	Exclusions  []presence.ExclusionInterval `json:"exclusions"`
	Keeps       []presence.KeepInterval      `json:"keeps"`
	RemovedSec  float64                      `json:"removed_sec"`
	CutPieces   string                       `json:"cut_pieces"`
	DryRun      bool                         `json:"dry_run,omitempty"`
}
