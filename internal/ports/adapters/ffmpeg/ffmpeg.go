package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/slidecut/internal/ports"
	"github.com/forPelevin/slidecut/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
	log     zerolog.Logger
}

func New(ffmpegPath, ffprobePath string, log zerolog.Logger) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{
		ffmpeg:  ffmpegPath,
		ffprobe: ffprobePath,
		log:     log.With().Str("component", "ffmpeg").Logger(),
	}
}

// SampleFrames decodes the frame at the start of every whole second as gray
// rawvideo on stdout and hands each one to fn. An error from fn stops ffmpeg.
func (a *Adapter) SampleFrames(ctx context.Context, inPath string, spec types.SampleSpec, fn ports.FrameFunc) error {
	if spec.FrameRate <= 0 {
		return fmt.Errorf("sample frames: frame rate must be > 0")
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return fmt.Errorf("sample frames: frame size %dx%d is invalid", spec.Width, spec.Height)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	args := sampleArgs(inPath, spec)
	a.log.Debug().Strs("args", args).Msg("sampling frames")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg sample frames: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg sample frames: %w", err)
	}

	readErr := readFrames(stdout, spec.Width, spec.Height, fn)
	if readErr != nil {
		cancel()
		_ = cmd.Wait()
		return readErr
	}
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg sample frames: %w\n%s", err, stderr.String())
	}
	return nil
}

func sampleArgs(inPath string, spec types.SampleSpec) []string {
	vf := fmt.Sprintf("select=not(mod(n\\,%d)),scale=%d:%d,format=gray", spec.FrameRate, spec.Width, spec.Height)
	return []string{
		"-v", "error",
		"-nostdin",
		"-i", inPath,
		"-an",
		"-vf", vf,
		"-fps_mode", "passthrough",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"pipe:1",
	}
}

func readFrames(r io.Reader, w, h int, fn ports.FrameFunc) error {
	for second := 0; ; second++ {
		img := image.NewGray(image.Rect(0, 0, w, h))
		_, err := io.ReadFull(r, img.Pix)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("truncated frame at second %d", second)
		}
		if err != nil {
			return fmt.Errorf("read frame at second %d: %w", second, err)
		}
		if err := fn(second, img); err != nil {
			return err
		}
	}
}

// RenderClip re-encodes [start, end) of the input so every part shares codecs
// and the concat step can stream-copy.
func (a *Adapter) RenderClip(ctx context.Context, inPath string, start, end time.Duration, outPath string) error {
	args := []string{
		"-y",
		"-nostdin",
		"-ss", fmtSeconds(start),
		"-to", fmtSeconds(end),
		"-i", inPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		outPath,
	}
	a.log.Debug().Strs("args", args).Msg("rendering clip")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip: %w\n%s", err, string(b))
	}
	return nil
}

// Concat joins parts in order with the concat demuxer.
func (a *Adapter) Concat(ctx context.Context, parts []string, outPath string) error {
	if len(parts) == 0 {
		return fmt.Errorf("ffmpeg concat: no input files")
	}
	list, err := writeConcatList(filepath.Dir(outPath), parts)
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w", err)
	}
	defer os.Remove(list)

	args := []string{
		"-y",
		"-nostdin",
		"-f", "concat",
		"-safe", "0",
		"-i", list,
		"-c", "copy",
		"-movflags", "+faststart",
		outPath,
	}
	a.log.Debug().Strs("args", args).Int("parts", len(parts)).Msg("concatenating")
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(b))
	}
	return nil
}

func writeConcatList(dir string, parts []string) (string, error) {
	f, err := os.CreateTemp(dir, ".slidecut-concat-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	for _, p := range parts {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", err
		}
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapeConcatPath(abs)); err != nil {
			return "", err
		}
	}
	return f.Name(), nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// escapeConcatPath quotes a path for a single-quoted concat list entry.
func escapeConcatPath(p string) string {
	return strings.ReplaceAll(p, "'", `'\''`)
}
