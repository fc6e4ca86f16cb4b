package config

import (
	"context"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Config holds all engine configuration
type Config struct {
	// Core settings
	WorkDir     string `yaml:"work_dir"`
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`

	// Timeline settings
	Timeline TimelineConfig `yaml:"timeline"`

	// Playback settings
	Playback PlaybackConfig `yaml:"playback"`

	// Source decoding settings
	Source SourceConfig `yaml:"source"`
}

type TimelineConfig struct {
	FPS        float64 `yaml:"fps"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	SampleRate int     `yaml:"sample_rate"`
}

type PlaybackConfig struct {
	MinSpeed          float64 `yaml:"min_speed"`
	MaxSpeed          float64 `yaml:"max_speed"`
	RenderToleranceMs float64 `yaml:"render_tolerance_ms"`
}

type SourceConfig struct {
	FrameCacheSize int  `yaml:"frame_cache_size"`
	PrefetchDepth  int  `yaml:"prefetch_depth"`
	ProbePackets   bool `yaml:"probe_packets"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func defaultConfig() *Config {
	return &Config{
		WorkDir:     "./work",
		TempDir:     "./temp",
		Concurrency: 4,
		Timeline: TimelineConfig{
			FPS:        24,
			Width:      1920,
			Height:     1080,
			SampleRate: 44100,
		},
		Playback: PlaybackConfig{
			MinSpeed:          0.1,
			MaxSpeed:          10,
			RenderToleranceMs: 1000.0 / 24 / 2,
		},
		Source: SourceConfig{
			FrameCacheSize: 64,
			PrefetchDepth:  8,
			ProbePackets:   true,
		},
	}
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		filepath.Join(os.Getenv("HOME"), ".reelcore", "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
