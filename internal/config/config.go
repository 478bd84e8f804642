package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables that can live in a YAML file. Flags given on the
// command line override it.
type Config struct {
	Reference     string  `yaml:"reference"`
	Matcher       string  `yaml:"matcher"`
	Threshold     float64 `yaml:"threshold"`
	LeadingZero   string  `yaml:"leading_zero"`
	AnalysisWidth int     `yaml:"analysis_width"`
	CacheDir      string  `yaml:"cache_dir"`
	KeepCache     bool    `yaml:"keep_cache"`
	FFmpegPath    string  `yaml:"ffmpeg"`
	FFprobePath   string  `yaml:"ffprobe"`
}

func Default() Config {
	return Config{
		Reference:     "ex1.png",
		Matcher:       "ssim",
		LeadingZero:   "drop-append",
		AnalysisWidth: 320,
		CacheDir:      ".cache",
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
	}
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	def := Default()
	if cfg.AnalysisWidth <= 0 {
		cfg.AnalysisWidth = def.AnalysisWidth
	}
	if cfg.Matcher == "" {
		cfg.Matcher = def.Matcher
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = def.CacheDir
	}
	return cfg, nil
}
