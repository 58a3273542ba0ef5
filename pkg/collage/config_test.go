package collage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slideshow.toml")
	body := `
swap_interval = "5s"
min_display_time = "30s"
orientation_match_probability = 0.9
stacked_landscapes_probability = 0.0
viewport_width = 1280
viewport_height = 1024
min_photos_for_transition = 5
final_quality = "original"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.SwapInterval != 5*time.Second {
		t.Errorf("SwapInterval = %v, want 5s", cfg.SwapInterval)
	}
	if cfg.MinDisplayTime != 30*time.Second {
		t.Errorf("MinDisplayTime = %v, want 30s", cfg.MinDisplayTime)
	}
	if cfg.OrientationMatchProbability != 0.9 {
		t.Errorf("OrientationMatchProbability = %v, want 0.9", cfg.OrientationMatchProbability)
	}
	if cfg.StackedLandscapesProbability != 0.0 {
		t.Errorf("StackedLandscapesProbability = %v, want 0 (explicit zero must stick)", cfg.StackedLandscapesProbability)
	}
	if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 1024 {
		t.Errorf("viewport = %dx%d, want 1280x1024", cfg.ViewportWidth, cfg.ViewportHeight)
	}
	if cfg.MinPhotosForTransition != 5 {
		t.Errorf("MinPhotosForTransition = %d, want 5", cfg.MinPhotosForTransition)
	}

	// Untouched keys keep their defaults.
	def := DefaultConfig()
	if cfg.CollectionInterval != def.CollectionInterval {
		t.Errorf("CollectionInterval = %v, want default %v", cfg.CollectionInterval, def.CollectionInterval)
	}
	if cfg.InitialQuality != def.InitialQuality {
		t.Errorf("InitialQuality = %q, want default %q", cfg.InitialQuality, def.InitialQuality)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing config file must fail")
	}
}

func TestQualityLabel(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		q    Quality
		want string
	}{
		{QualityInitial, "album"},
		{QualityFinal, "view"},
		{QualityOriginal, "original"},
	}
	for _, tc := range tests {
		if got := cfg.QualityLabel(tc.q); got != tc.want {
			t.Errorf("QualityLabel(%s) = %q, want %q", tc.q, got, tc.want)
		}
	}
}
