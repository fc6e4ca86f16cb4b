package config

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Timeline.FPS != 24 || cfg.Timeline.Width != 1920 {
		t.Fatalf("unexpected defaults: %+v", cfg.Timeline)
	}
	if cfg.Playback.MinSpeed != 0.1 || cfg.Playback.MaxSpeed != 10 {
		t.Fatalf("unexpected speed clamps: %+v", cfg.Playback)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := defaultConfig()
	cfg.Timeline.FPS = 30
	cfg.Source.FrameCacheSize = 16
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Timeline.FPS != 30 || got.Source.FrameCacheSize != 16 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestContextCarrier(t *testing.T) {
	cfg := defaultConfig()
	cfg.Timeline.FPS = 60

	ctx := WithConfig(context.Background(), cfg)
	if got := FromContext(ctx); got.Timeline.FPS != 60 {
		t.Fatalf("carried config lost: %+v", got.Timeline)
	}

	// A bare context yields defaults rather than nil.
	if got := FromContext(context.Background()); got == nil || got.Timeline.FPS != 24 {
		t.Fatal("bare context must yield defaults")
	}
}
