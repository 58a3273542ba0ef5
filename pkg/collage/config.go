package collage

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of the engine. Zero values are filled from
// defaults, so a partial TOML file or a hand-built struct both work.
type Config struct {
	// Timing.
	SwapInterval       time.Duration
	MinDisplayTime     time.Duration
	CollectionInterval time.Duration
	PrefetchLeadTime   time.Duration

	// Probabilities.
	PanoramaUseProbability       float64
	OrientationMatchProbability  float64
	InterRowDifferProbability    float64
	StackedLandscapesProbability float64

	// Geometry.
	PanoramaAspectThreshold float64
	ViewportWidth           int
	ViewportHeight          int

	// Transitions.
	PrefetchMemoryThresholdMB int
	ForceReloadInterval       int
	MinPhotosForTransition    int

	// Quality ladder.
	InitialQuality    string
	FinalQuality      string
	UpgradeBatchSize  int
	UpgradeBatchDelay time.Duration

	// Network.
	FetchTimeout time.Duration
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() *Config {
	return &Config{
		SwapInterval:       12 * time.Second,
		MinDisplayTime:     45 * time.Second,
		CollectionInterval: 30 * time.Minute,
		PrefetchLeadTime:   2 * time.Minute,

		PanoramaUseProbability:       0.25,
		OrientationMatchProbability:  0.7,
		InterRowDifferProbability:    0.7,
		StackedLandscapesProbability: 0.3,

		PanoramaAspectThreshold: 2.0,
		ViewportWidth:           1920,
		ViewportHeight:          1080,

		PrefetchMemoryThresholdMB: 256,
		ForceReloadInterval:       10,
		MinPhotosForTransition:    15,

		InitialQuality:    "album",
		FinalQuality:      "view",
		UpgradeBatchSize:  4,
		UpgradeBatchDelay: 3 * time.Second,

		FetchTimeout: 20 * time.Second,
	}
}

// QualityLabel maps a quality rung to the size label the asset fetcher
// understands.
func (c *Config) QualityLabel(q Quality) string {
	switch q {
	case QualityInitial:
		return c.InitialQuality
	case QualityFinal:
		return c.FinalQuality
	}
	return "original"
}

// duration lets TOML carry values like "45s" or "30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// fileConfig is the TOML schema; every field is optional.
type fileConfig struct {
	SwapInterval       duration `toml:"swap_interval"`
	MinDisplayTime     duration `toml:"min_display_time"`
	CollectionInterval duration `toml:"collection_interval"`
	PrefetchLeadTime   duration `toml:"prefetch_lead_time"`

	PanoramaUseProbability       *float64 `toml:"panorama_use_probability"`
	OrientationMatchProbability  *float64 `toml:"orientation_match_probability"`
	InterRowDifferProbability    *float64 `toml:"inter_row_differ_probability"`
	StackedLandscapesProbability *float64 `toml:"stacked_landscapes_probability"`

	PanoramaAspectThreshold *float64 `toml:"panorama_aspect_threshold"`
	ViewportWidth           int      `toml:"viewport_width"`
	ViewportHeight          int      `toml:"viewport_height"`

	PrefetchMemoryThresholdMB *int `toml:"prefetch_memory_threshold_mb"`
	ForceReloadInterval       int  `toml:"force_reload_interval"`
	MinPhotosForTransition    int  `toml:"min_photos_for_transition"`

	InitialQuality    string   `toml:"initial_quality"`
	FinalQuality      string   `toml:"final_quality"`
	UpgradeBatchSize  int      `toml:"upgrade_batch_size"`
	UpgradeBatchDelay duration `toml:"upgrade_batch_delay"`

	FetchTimeout duration `toml:"fetch_timeout"`
}

// LoadConfig reads a TOML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	c := DefaultConfig()

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if fc.SwapInterval.Duration > 0 {
		c.SwapInterval = fc.SwapInterval.Duration
	}
	if fc.MinDisplayTime.Duration > 0 {
		c.MinDisplayTime = fc.MinDisplayTime.Duration
	}
	if fc.CollectionInterval.Duration > 0 {
		c.CollectionInterval = fc.CollectionInterval.Duration
	}
	if fc.PrefetchLeadTime.Duration > 0 {
		c.PrefetchLeadTime = fc.PrefetchLeadTime.Duration
	}
	if fc.PanoramaUseProbability != nil {
		c.PanoramaUseProbability = *fc.PanoramaUseProbability
	}
	if fc.OrientationMatchProbability != nil {
		c.OrientationMatchProbability = *fc.OrientationMatchProbability
	}
	if fc.InterRowDifferProbability != nil {
		c.InterRowDifferProbability = *fc.InterRowDifferProbability
	}
	if fc.StackedLandscapesProbability != nil {
		c.StackedLandscapesProbability = *fc.StackedLandscapesProbability
	}
	if fc.PanoramaAspectThreshold != nil {
		c.PanoramaAspectThreshold = *fc.PanoramaAspectThreshold
	}
	if fc.ViewportWidth > 0 {
		c.ViewportWidth = fc.ViewportWidth
	}
	if fc.ViewportHeight > 0 {
		c.ViewportHeight = fc.ViewportHeight
	}
	if fc.PrefetchMemoryThresholdMB != nil {
		c.PrefetchMemoryThresholdMB = *fc.PrefetchMemoryThresholdMB
	}
	if fc.ForceReloadInterval > 0 {
		c.ForceReloadInterval = fc.ForceReloadInterval
	}
	if fc.MinPhotosForTransition > 0 {
		c.MinPhotosForTransition = fc.MinPhotosForTransition
	}
	if fc.InitialQuality != "" {
		c.InitialQuality = fc.InitialQuality
	}
	if fc.FinalQuality != "" {
		c.FinalQuality = fc.FinalQuality
	}
	if fc.UpgradeBatchSize > 0 {
		c.UpgradeBatchSize = fc.UpgradeBatchSize
	}
	if fc.UpgradeBatchDelay.Duration > 0 {
		c.UpgradeBatchDelay = fc.UpgradeBatchDelay.Duration
	}
	if fc.FetchTimeout.Duration > 0 {
		c.FetchTimeout = fc.FetchTimeout.Duration
	}

	return c, nil
}
