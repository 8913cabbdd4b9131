package controller

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/blobtrail/detector"
	"github.com/nvr-ai/blobtrail/overlay"
	"github.com/nvr-ai/blobtrail/tracking"
)

// ErrInvalidConfig is returned by Config.Validate for out-of-range settings.
var ErrInvalidConfig = errors.New("invalid config")

// Mode selects the detection criterion.
type Mode string

const (
	// ModeBright detects regions at or above the luminance threshold.
	ModeBright Mode = "bright"
	// ModeDark detects regions at or below 255 minus the threshold.
	ModeDark Mode = "dark"
	// ModeBoth merges bright and dark regions before the size ranking.
	ModeBoth Mode = "both"
	// ModeBackground detects deviations from a learned median background.
	ModeBackground Mode = "background"
)

// Modes lists the accepted detection modes.
var Modes = []Mode{ModeBright, ModeDark, ModeBoth, ModeBackground}

// ParseMode parses a mode name, case-insensitively. "bg" is accepted for
// ModeBackground.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "bg" {
		return ModeBackground, nil
	}
	for _, m := range Modes {
		if s == string(m) {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrInvalidConfig, "unknown mode %q", s)
}

// Config contains every setting of a BlobTracker. It is captured by value at
// construction and never changes during a run.
type Config struct {
	// Detection
	Mode             Mode    `yaml:"mode"`
	Threshold        int     `yaml:"threshold"`
	DiffThreshold    float64 `yaml:"diff_threshold"`
	BackgroundFrames int     `yaml:"background_frames"`
	// RollingBackground keeps updating the median after warm-up instead of
	// freezing it.
	RollingBackground bool `yaml:"rolling_background"`
	MinArea           int  `yaml:"min_area"`
	// MaxArea of 0 disables the upper area bound.
	MaxArea int `yaml:"max_area"`
	// MaxBlobs of 0 keeps every blob.
	MaxBlobs int `yaml:"max_blobs"`

	// Tracking
	TrailLength            int     `yaml:"trail_length"`
	MaxAssociationDistance float64 `yaml:"max_association_distance"`
	MaxStale               int     `yaml:"max_stale"`

	// Rendering
	MaxDistance       float64             `yaml:"max_distance"`
	ShowTrails        bool                `yaml:"show_trails"`
	ShowConnections   bool                `yaml:"show_connections"`
	ShowBoxes         bool                `yaml:"show_boxes"`
	MarkerStyle       overlay.MarkerStyle `yaml:"marker_style"`
	UsePoints         bool                `yaml:"use_points"`
	Invert            bool                `yaml:"invert"`
	ShowNumbers       bool                `yaml:"show_numbers"`
	ShowMask          bool                `yaml:"show_mask"`
	ShowWarmup        bool                `yaml:"show_warmup"`
	MaxTrailThickness int                 `yaml:"max_trail_thickness"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Mode:                   ModeBoth,
		Threshold:              detector.DefaultThreshold,
		DiffThreshold:          detector.DefaultDiffThreshold,
		BackgroundFrames:       detector.DefaultBackgroundFrames,
		MinArea:                detector.DefaultMinArea,
		MaxArea:                detector.DefaultMaxArea,
		TrailLength:            tracking.DefaultTrailLength,
		MaxAssociationDistance: tracking.DefaultMaxAssociationDistance,
		MaxStale:               tracking.DefaultMaxStale,
		MaxDistance:            500,
		ShowTrails:             true,
		ShowConnections:        true,
		ShowBoxes:              true,
		MarkerStyle:            overlay.MarkerBoth,
		MaxTrailThickness:      overlay.DefaultMaxTrailThickness,
	}
}

// Validate checks every field and reports the first problem wrapped in
// ErrInvalidConfig.
func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	switch {
	case c.Threshold < 0 || c.Threshold > 255:
		return errors.Wrapf(ErrInvalidConfig, "threshold %d outside [0, 255]", c.Threshold)
	case c.DiffThreshold < 0 || c.DiffThreshold > 1:
		return errors.Wrapf(ErrInvalidConfig, "diff threshold %v outside [0, 1]", c.DiffThreshold)
	case c.BackgroundFrames < 1:
		return errors.Wrapf(ErrInvalidConfig, "background frames must be positive, got %d", c.BackgroundFrames)
	case c.MinArea < 1:
		return errors.Wrapf(ErrInvalidConfig, "min area must be positive, got %d", c.MinArea)
	case c.MaxArea != 0 && c.MaxArea < c.MinArea:
		return errors.Wrapf(ErrInvalidConfig, "max area %d below min area %d", c.MaxArea, c.MinArea)
	case c.MaxBlobs < 0:
		return errors.Wrapf(ErrInvalidConfig, "max blobs must not be negative, got %d", c.MaxBlobs)
	case c.TrailLength < 1:
		return errors.Wrapf(ErrInvalidConfig, "trail length must be positive, got %d", c.TrailLength)
	case c.MaxAssociationDistance < 0:
		return errors.Wrapf(ErrInvalidConfig, "association distance must not be negative, got %v", c.MaxAssociationDistance)
	case c.MaxStale < 0:
		return errors.Wrapf(ErrInvalidConfig, "max stale must not be negative, got %d", c.MaxStale)
	case c.MaxDistance < 0:
		return errors.Wrapf(ErrInvalidConfig, "max distance must not be negative, got %v", c.MaxDistance)
	case c.MaxTrailThickness < 1:
		return errors.Wrapf(ErrInvalidConfig, "max trail thickness must be positive, got %d", c.MaxTrailThickness)
	}
	if _, err := c.MarkerStyle.MarshalText(); err != nil {
		return errors.Wrap(ErrInvalidConfig, err.Error())
	}
	return nil
}

// Style returns the overlay style described by the config.
func (c Config) Style() overlay.Style {
	return overlay.Style{
		ShowTrails:        c.ShowTrails,
		ShowConnections:   c.ShowConnections,
		ShowMarkers:       c.ShowBoxes,
		Marker:            c.MarkerStyle,
		UsePoints:         c.UsePoints,
		ShowNumbers:       c.ShowNumbers,
		Invert:            c.Invert,
		MaxTrailThickness: c.MaxTrailThickness,
		ShowMask:          c.ShowMask,
		ShowWarmup:        c.ShowWarmup,
	}
}

// BackgroundPolicy maps RollingBackground to the detector policy.
func (c Config) BackgroundPolicy() detector.BackgroundPolicy {
	if c.RollingBackground {
		return detector.BackgroundRolling
	}
	return detector.BackgroundFrozen
}

// LoadConfig reads a YAML file over DefaultConfig. Keys missing from the file
// keep their defaults. The result is validated.
//
// Arguments:
//   - path: YAML file path.
//
// Returns:
//   - Config: the merged configuration.
//   - error: on read, parse or validation failure.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
