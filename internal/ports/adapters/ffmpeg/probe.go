package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/forPelevin/slidecut/internal/types"
)

// Probe reads frame rate, frame count and size of the first video stream.
// When the container carries no frame count it is derived from duration.
func (a *Adapter) Probe(ctx context.Context, inPath string) (types.VideoInfo, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inPath,
	)
	b, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = string(ee.Stderr)
		}
		return types.VideoInfo{}, fmt.Errorf("ffprobe: %w\n%s", err, stderr)
	}
	return parseProbe(inPath, b)
}

type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"`
		AvgFrameRate string `json:"avg_frame_rate"`
		NbFrames     string `json:"nb_frames"`
		Duration     string `json:"duration"`
	} `json:"streams"`
}

func parseProbe(inPath string, b []byte) (types.VideoInfo, error) {
	var pr probeResult
	if err := json.Unmarshal(b, &pr); err != nil {
		return types.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	info := types.VideoInfo{Path: inPath}
	found := false
	for _, s := range pr.Streams {
		switch s.CodecType {
		case "video":
			if found {
				continue
			}
			found = true
			info.Width = s.Width
			info.Height = s.Height
			info.FPS = parseFrameRate(s.AvgFrameRate)
			if info.FPS <= 0 {
				info.FPS = parseFrameRate(s.RFrameRate)
			}
			info.TotalFrames, _ = strconv.Atoi(s.NbFrames)
			info.Duration, _ = strconv.ParseFloat(s.Duration, 64)
		case "audio":
			info.HasAudio = true
		}
	}
	if !found {
		return types.VideoInfo{}, fmt.Errorf("ffprobe: %s has no video stream", inPath)
	}
	if info.Duration <= 0 {
		info.Duration, _ = strconv.ParseFloat(pr.Format.Duration, 64)
	}
	if info.TotalFrames <= 0 && info.Duration > 0 && info.FPS > 0 {
		info.TotalFrames = int(math.Round(info.Duration * info.FPS))
	}
	return info, nil
}

// parseFrameRate parses "30000/1001" or "25".
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !ok {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
