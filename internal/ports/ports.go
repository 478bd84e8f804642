package ports

import (
	"context"
	"image"
	"time"

	"github.com/forPelevin/slidecut/internal/types"
)

// FrameFunc receives one grayscale frame per whole second, in order.
type FrameFunc func(second int, frame *image.Gray) error

type VideoTool interface {
	Probe(ctx context.Context, inPath string) (types.VideoInfo, error)
	SampleFrames(ctx context.Context, inPath string, spec types.SampleSpec, fn FrameFunc) error
	RenderClip(ctx context.Context, inPath string, start, end time.Duration, outPath string) error
	Concat(ctx context.Context, parts []string, outPath string) error
}

type Oracle interface {
	Judge(ctx context.Context, frame *image.Gray) (types.Verdict, error)
}
