// Package presence turns a per-second match/no-match stream into the time
// ranges to cut from a video and the ranges to keep.
package presence

import "math"

// Timeline is the immutable frame accounting of the analysed video.
type Timeline struct {
	frameRate   int
	totalFrames int
}

// NewTimeline rounds the probed frame rate to a whole number of frames per
// second, matching the one-sample-per-second accounting.
func NewTimeline(fps float64, totalFrames int) (Timeline, error) {
	if math.IsNaN(fps) || math.IsInf(fps, 0) {
		return Timeline{}, &InvalidInputError{Field: "frame rate", Reason: "is not a finite number"}
	}
	rate := int(math.Round(fps))
	if rate <= 0 {
		return Timeline{}, &InvalidInputError{Field: "frame rate", Reason: "must be > 0"}
	}
	if totalFrames <= 0 {
		return Timeline{}, &InvalidInputError{Field: "total frames", Reason: "must be > 0"}
	}
	return Timeline{frameRate: rate, totalFrames: totalFrames}, nil
}

func (t Timeline) FrameRate() int   { return t.frameRate }
func (t Timeline) TotalFrames() int { return t.totalFrames }

// Duration is TotalFrames / FrameRate in seconds.
func (t Timeline) Duration() float64 {
	return float64(t.totalFrames) / float64(t.frameRate)
}

// LastSecond is the last whole second that still has a frame at its start.
func (t Timeline) LastSecond() int {
	return (t.totalFrames - 1) / t.frameRate
}

// SampleCount is the number of one-per-second samples the timeline yields.
func (t Timeline) SampleCount() int {
	return t.LastSecond() + 1
}

// Timestamp converts a sampled second to seconds through its frame index.
func (t Timeline) Timestamp(second int) float64 {
	frame := second * t.frameRate
	return float64(frame) / float64(t.frameRate)
}
