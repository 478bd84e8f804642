package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forPelevin/slidecut/internal/config"
	"github.com/forPelevin/slidecut/internal/domain/presence"
	"github.com/forPelevin/slidecut/internal/logging"
	"github.com/forPelevin/slidecut/internal/pipeline"
)

const defaultConfigFile = "slidecut.yaml"

func run(cmd *cobra.Command, input, output string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	log := logging.New(cmd.ErrOrStderr(), verbose)

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = getenvDefault("SLIDECUT_CONFIG", defaultConfigFile)
	}
	fileCfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, &fileCfg)

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	absOut := ""
	if output != "" {
		if absOut, err = filepath.Abs(output); err != nil {
			return err
		}
	}
	reportPath, _ := cmd.Flags().GetString("report")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress := logging.NewProgress(cmd.ErrOrStderr(), logging.WithComponent(log, "analysis"))
	cfg := pipeline.Config{
		Input:     absIn,
		Output:    absOut,
		Reference: fileCfg.Reference,

		Matcher:       fileCfg.Matcher,
		Threshold:     fileCfg.Threshold,
		LeadingZero:   fileCfg.LeadingZero,
		AnalysisWidth: fileCfg.AnalysisWidth,

		CacheDir:  fileCfg.CacheDir,
		KeepCache: fileCfg.KeepCache,

		ReportPath: reportPath,
		DryRun:     dryRun,

		FFmpegPath:  getenvDefault("SLIDECUT_FFMPEG", fileCfg.FFmpegPath),
		FFprobePath: getenvDefault("SLIDECUT_FFPROBE", fileCfg.FFprobePath),

		Log:      log,
		Progress: progress.Update,
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	rep, err := pipeline.Run(ctx, cfg)
	progress.Done()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cut pieces: %s\n", rep.CutPieces)
	fmt.Fprintf(out, "Removed: %s of %s\n", presence.FormatDuration(rep.RemovedSec), presence.FormatDuration(rep.DurationSec))
	if rep.Output != "" {
		fmt.Fprintf(out, "Saved: %s\n", rep.Output)
	}
	return nil
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	f := cmd.Flags()
	if f.Changed("reference") || c.Reference == "" {
		c.Reference, _ = f.GetString("reference")
	}
	if f.Changed("matcher") {
		c.Matcher, _ = f.GetString("matcher")
	}
	if f.Changed("threshold") {
		c.Threshold, _ = f.GetFloat64("threshold")
	}
	if f.Changed("leading-zero") || c.LeadingZero == "" {
		c.LeadingZero, _ = f.GetString("leading-zero")
	}
	if f.Changed("width") {
		c.AnalysisWidth, _ = f.GetInt("width")
	}
	if f.Changed("cache") {
		c.CacheDir, _ = f.GetString("cache")
	}
	if f.Changed("keep-cache") {
		c.KeepCache, _ = f.GetBool("keep-cache")
	}
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
