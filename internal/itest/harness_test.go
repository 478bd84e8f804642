//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/forPelevin/slidecut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/slidecut/internal/types"
)

const cliTimeout = 2 * time.Minute

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if binPath != "" {
		_ = os.RemoveAll(filepath.Dir(binPath))
	}
	os.Exit(code)
}

// repoRoot is two directories above this file.
func repoRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok, "locate harness source")
	root := filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
	require.FileExists(t, filepath.Join(root, "go.mod"))
	return root
}

// slidecutBinary builds cmd/slidecut once per test binary.
func slidecutBinary(t *testing.T) string {
	t.Helper()
	root := repoRoot(t)
	buildOnce.Do(func() {
		dir, err := os.MkdirTemp("", "slidecut-itest-")
		if err != nil {
			buildErr = err
			return
		}
		binPath = filepath.Join(dir, "slidecut")
		if runtime.GOOS == "windows" {
			binPath += ".exe"
		}
		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/slidecut")
		cmd.Dir = root
		if out, err := cmd.CombinedOutput(); err != nil {
			buildErr = fmt.Errorf("go build: %w\n%s", err, out)
		}
	})
	require.NoError(t, buildErr)
	return binPath
}

type cliResult struct {
	exitCode int
	output   string
}

// runSlidecut runs the CLI from an empty directory so no stray .env or
// slidecut.yaml leaks into the run.
func runSlidecut(t *testing.T, args ...string) cliResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, slidecutBinary(t), args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), "NO_COLOR=1", "TERM=dumb", "SLIDECUT_CONFIG=")

	out, err := cmd.CombinedOutput()
	require.NoError(t, ctx.Err(), "slidecut %v timed out", args)

	res := cliResult{output: string(out)}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.exitCode = exitErr.ExitCode()
	default:
		require.Failf(t, "run slidecut", "%v\n%s", err, out)
	}
	return res
}

// probeVideo inspects a file through the same adapter the pipeline uses.
func probeVideo(t *testing.T, path string) types.VideoInfo {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	info, err := ffmpeg.New("ffmpeg", "ffprobe", zerolog.Nop()).Probe(ctx, path)
	require.NoError(t, err, "probe %s", path)
	return info
}
