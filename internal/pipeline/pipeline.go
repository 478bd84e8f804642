package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/slidecut/internal/domain/presence"
	"github.com/forPelevin/slidecut/internal/domain/similarity"
	"github.com/forPelevin/slidecut/internal/ports"
	"github.com/forPelevin/slidecut/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/slidecut/internal/types"
	"github.com/forPelevin/slidecut/internal/usecase"
)

type Config struct {
	Input     string
	Output    string
	Reference string

	Matcher       string
	Threshold     float64
	LeadingZero   string
	AnalysisWidth int

	// CacheDir is the base directory for rendered parts. If empty, defaults to ".cache".
	CacheDir  string
	KeepCache bool

	// ReportPath defaults to the output path with a .json extension.
	ReportPath string
	DryRun     bool

	FFmpegPath  string
	FFprobePath string

	Log      zerolog.Logger
	Progress func(done, total int)
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	st, err := os.Stat(c.Input)
	if err != nil {
		return &presence.InvalidInputError{Field: "input", Reason: err.Error()}
	}
	if st.IsDir() {
		return &presence.InvalidInputError{Field: "input", Reason: c.Input + " is a directory"}
	}
	if c.Output == "" && !c.DryRun {
		return errors.New("output is empty")
	}
	if c.Output != "" && samePath(c.Input, c.Output) {
		return errors.New("output must differ from input")
	}
	if c.Reference == "" {
		return errors.New("reference image is required")
	}
	if _, err := os.Stat(c.Reference); err != nil {
		return &presence.InvalidInputError{Field: "reference", Reason: err.Error()}
	}
	if _, err := similarity.Lookup(c.Matcher); err != nil {
		return err
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("threshold must be in [0, 1)")
	}
	if _, err := presence.ParseLeadingZeroPolicy(c.LeadingZero); err != nil {
		return err
	}
	if c.AnalysisWidth < 0 {
		return fmt.Errorf("analysis width must be >= 0")
	}
	return nil
}

func Run(ctx context.Context, cfg Config) (types.Report, error) {
	log := cfg.Log

	policy, err := presence.ParseLeadingZeroPolicy(cfg.LeadingZero)
	if err != nil {
		return types.Report{}, err
	}
	ref, err := similarity.LoadReference(cfg.Reference)
	if err != nil {
		return types.Report{}, &presence.InvalidInputError{Field: "reference", Reason: err.Error()}
	}
	matcher, err := similarity.New(cfg.Matcher, ref, cfg.Threshold, log)
	if err != nil {
		return types.Report{}, err
	}
	caps := matcher.Capabilities()
	log.Debug().
		Str("matcher", caps.Name).
		Bool("accelerated", caps.Accelerated).
		Float64("threshold", matcher.Threshold()).
		Msg("matcher ready")

	// adapters
	v := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath, log)
	uc := usecase.New(usecase.Deps{
		Video:  v,
		Oracle: matcher,
		Log:    log,
	})

	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	workDir := buildRunDir(filepath.Join(baseCache, "runs"), cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return types.Report{}, err
	}
	if !cfg.KeepCache {
		defer os.RemoveAll(workDir)
	}
	log.Debug().Str("dir", workDir).Msg("work dir")

	res, err := uc.Run(ctx, usecase.Input{
		InputPath:     cfg.Input,
		OutputPath:    cfg.Output,
		AnalysisWidth: cfg.AnalysisWidth,
		LeadingZero:   policy,
		WorkDir:       workDir,
		DryRun:        cfg.DryRun,
		Progress:      cfg.Progress,
	})
	if err != nil {
		return types.Report{}, err
	}

	rep := res.Report
	rep.Reference = cfg.Reference
	rep.Matcher = caps.Name
	rep.Threshold = matcher.Threshold()

	reportPath := cfg.ReportPath
	if reportPath == "" && cfg.Output != "" {
		reportPath = strings.TrimSuffix(cfg.Output, filepath.Ext(cfg.Output)) + ".json"
	}
	if reportPath != "" {
		if err := writeReport(reportPath, rep); err != nil {
			return rep, err
		}
		log.Info().Str("report", reportPath).Msg("report written")
	}
	return rep, nil
}

func writeReport(path string, rep types.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode report: %w", err)
	}
	return f.Close()
}

func buildRunDir(root, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(root, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func samePath(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return a == b
	}
	return aa == bb
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Oracle = (*similarity.Matcher)(nil)
