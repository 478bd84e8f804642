//go:build integration

package itest

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	lectureSeconds = 10
	lectureFPS     = 25
)

func writeFixtureFile(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("not media"), 0o644))
	return p
}

func writeReferencePNG(t *testing.T, path string, level uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 36))
	for y := 0; y < 36; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// renderLecture encodes 10s of test pattern with a blank white slide shown
// from 3s until just before 6s.
func renderLecture(t *testing.T, path string) {
	t.Helper()
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "testsrc=s=320x180:r=25:d=10,drawbox=x=0:y=0:w=iw:h=ih:color=white:t=fill:enable='between(t,3,5.99)'",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		path,
	)
	out, err := ff.CombinedOutput()
	require.NoError(t, err, "ffmpeg fixture:\n%s", out)
}
