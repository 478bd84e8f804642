package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slidecut.yaml")
	body := "matcher: ncc\nthreshold: 0.85\nleading_zero: anchor\nanalysis_width: 0\nreference: slides/blank.png\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ncc", cfg.Matcher)
	assert.Equal(t, 0.85, cfg.Threshold)
	assert.Equal(t, "anchor", cfg.LeadingZero)
	assert.Equal(t, "slides/blank.png", cfg.Reference)
	assert.Equal(t, 320, cfg.AnalysisWidth, "width default restored")
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath, "untouched default")
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("matcher: [ssim"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}
