package pipeline

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/slidecut/internal/domain/presence"
	"github.com/forPelevin/slidecut/internal/types"
)

func TestBuildRunDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	root := filepath.Join(".cache", "runs")
	got := buildRunDir(root, "/tmp/Lecture 03.Intro.mp4", now)
	base := filepath.Base(got)

	assert.Equal(t, root, filepath.Dir(got))
	prefix := "lecture-03-intro-20260212-103045Z-"
	assert.Regexp(t, "^"+prefix+"[0-9a-f]{6}$", base)
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Лекция (v2)!":      "лекция-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, normalizePathSegment(in))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "in.mp4")
	ref := filepath.Join(tmp, "ex1.png")
	for _, p := range []string{input, ref} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
	valid := Config{
		Input:     input,
		Output:    filepath.Join(tmp, "out.mp4"),
		Reference: ref,
		Matcher:   "ssim",
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name         string
		mutate       func(c *Config)
		wantErr      string
		invalidInput bool
	}{
		{"empty input", func(c *Config) { c.Input = "" }, "input is empty", false},
		{"missing input", func(c *Config) { c.Input = filepath.Join(tmp, "nope.mp4") }, "invalid input: input", true},
		{"input is dir", func(c *Config) { c.Input = tmp }, "is a directory", true},
		{"empty output", func(c *Config) { c.Output = "" }, "output is empty", false},
		{"output equals input", func(c *Config) { c.Output = input }, "output must differ", false},
		{"missing reference", func(c *Config) { c.Reference = filepath.Join(tmp, "none.png") }, "invalid input: reference", true},
		{"unknown matcher", func(c *Config) { c.Matcher = "cuda" }, "unknown matcher", false},
		{"threshold too high", func(c *Config) { c.Threshold = 1 }, "threshold", false},
		{"bad policy", func(c *Config) { c.LeadingZero = "flip" }, "leading zero", false},
		{"negative width", func(c *Config) { c.AnalysisWidth = -1 }, "analysis width", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid
			tc.mutate(&c)
			err := c.Validate()
			require.ErrorContains(t, err, tc.wantErr)
			var in *presence.InvalidInputError
			assert.Equal(t, tc.invalidInput, errors.As(err, &in))
		})
	}

	dry := valid
	dry.Output = ""
	dry.DryRun = true
	assert.NoError(t, dry.Validate(), "dry run without output")
}

func TestWriteReport_KeepsDisplayArrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	rep := types.Report{
		Input:     "in.mp4",
		CutPieces: "3->7, 9->12",
		Keeps:     []presence.KeepInterval{{Start: 0, End: 3}},
	}
	require.NoError(t, writeReport(path, rep))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"cut_pieces": "3->7, 9->12"`)
	assert.NotContains(t, string(b), `\u003e`)

	var back types.Report
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, rep.CutPieces, back.CutPieces)
	assert.Equal(t, rep.Keeps, back.Keeps)
}
