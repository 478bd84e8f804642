package cli

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/slidecut/internal/config"
	"github.com/forPelevin/slidecut/internal/domain/presence"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFixtures(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}
}

func TestRoot_ArgsValidation(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no args", nil, "accepts between 1 and 2 arg(s), received 0"},
		{"too many args", []string{"a", "b", "c"}, "accepts between 1 and 2 arg(s), received 3"},
		{"unknown flag", []string{"a", "--wat"}, "unknown flag: --wat"},
		{"threshold not a number", []string{"a", "b", "--threshold", "high"}, `invalid argument "high" for "--threshold"`},
		{"missing input", []string{filepath.Join(t.TempDir(), "nope.mp4"), "out.mp4"}, "config: invalid input: input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRoot_RejectsUnknownMatcher(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.mp4")
	ref := filepath.Join(tmp, "ref.png")
	writeFixtures(t, in, ref)

	_, err := execute(t, in, filepath.Join(tmp, "out.mp4"), "--reference", ref, "--matcher", "cuda")
	require.ErrorContains(t, err, "unknown matcher")
	assert.Equal(t, exitFailure, exitCode(err))
}

func TestRoot_MissingReferenceIsInvalidInput(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.mp4")
	writeFixtures(t, in)

	_, err := execute(t, in, filepath.Join(tmp, "out.mp4"), "--reference", filepath.Join(tmp, "missing.png"))
	require.ErrorContains(t, err, "reference")
	assert.Equal(t, exitInvalidInput, exitCode(err))
}

func TestRoot_MissingInputIsInvalidInput(t *testing.T) {
	tmp := t.TempDir()
	ref := filepath.Join(tmp, "ref.png")
	writeFixtures(t, ref)

	_, err := execute(t, filepath.Join(tmp, "nope.mp4"), filepath.Join(tmp, "out.mp4"), "--reference", ref)
	require.Error(t, err)
	assert.Equal(t, exitInvalidInput, exitCode(err))
}

func TestApplyFlags(t *testing.T) {
	root := NewRootCommand()
	require.NoError(t, root.ParseFlags([]string{"--matcher", "ncc", "--width", "640"}))

	c := config.Default()
	c.Threshold = 0.9
	c.Reference = "from-file.png"
	applyFlags(root, &c)

	assert.Equal(t, "ncc", c.Matcher, "explicit flags win")
	assert.Equal(t, 640, c.AnalysisWidth, "explicit flags win")
	assert.Equal(t, 0.9, c.Threshold, "unset flags keep file values")
	assert.Equal(t, "from-file.png", c.Reference, "unset flags keep file values")
}

func TestExitCode(t *testing.T) {
	invalid := fmt.Errorf("run: %w", &presence.InvalidInputError{Field: "frame rate", Reason: "must be > 0"})
	assert.Equal(t, exitInvalidInput, exitCode(invalid))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
}
