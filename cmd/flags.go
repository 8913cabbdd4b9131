package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/nvr-ai/blobtrail/controller"
	"github.com/nvr-ai/blobtrail/overlay"
)

// addTrackerFlags registers the tracker settings shared by render and live,
// with defaults taken from d.
func addTrackerFlags(fs *pflag.FlagSet, d controller.Config) {
	fs.StringP("mode", "m", string(d.Mode), "Detection mode: bright, dark, both, background")
	fs.IntP("threshold", "t", d.Threshold, "Luma threshold for bright/dark detection (0-255)")
	fs.Float64("diff-threshold", d.DiffThreshold, "Background difference threshold (0-1)")
	fs.Int("bg-frames", d.BackgroundFrames, "Frames used to build the background model")
	fs.Bool("rolling-bg", d.RollingBackground, "Keep updating the background after warm-up")
	fs.Int("min-area", d.MinArea, "Minimum blob area in pixels")
	fs.Int("max-area", d.MaxArea, "Maximum blob area in pixels")
	fs.Int("max-blobs", d.MaxBlobs, "Keep only the N largest blobs, 0 for all")

	fs.Int("trail-length", d.TrailLength, "Trail history length in frames")
	fs.Float64("assoc-distance", d.MaxAssociationDistance, "Maximum centroid jump between frames for one track")
	fs.Int("max-stale", d.MaxStale, "Frames a track survives without a matching blob")

	fs.Float64("max-distance", d.MaxDistance, "Maximum distance for connection lines")
	fs.Bool("no-trails", !d.ShowTrails, "Do not draw trails")
	fs.Bool("no-connections", !d.ShowConnections, "Do not draw connection lines")
	fs.Bool("no-boxes", !d.ShowBoxes, "Do not draw blob markers")
	fs.String("marker-style", d.MarkerStyle.String(), "Marker style: both, outer, inner")
	fs.Bool("use-points", d.UsePoints, "Draw points instead of squares")
	fs.Bool("invert", d.Invert, "Draw the overlay in inverted colors")
	fs.Bool("show-numbers", d.ShowNumbers, "Label every blob with its index")
	fs.Bool("show-mask", d.ShowMask, "Show the detection mask in the top-left corner")
	fs.Int("max-thickness", d.MaxTrailThickness, "Thickness of the newest trail segment")
}

// applyTrackerFlags copies every flag the user set onto cfg.
func applyTrackerFlags(fs *pflag.FlagSet, cfg *controller.Config) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err == nil {
			err = applyTrackerFlag(fs, f.Name, cfg)
		}
	})
	return err
}

func applyTrackerFlag(fs *pflag.FlagSet, name string, cfg *controller.Config) error {
	var err error
	switch name {
	case "mode":
		var s string
		if s, err = fs.GetString(name); err == nil {
			cfg.Mode, err = controller.ParseMode(s)
		}
	case "threshold":
		cfg.Threshold, err = fs.GetInt(name)
	case "diff-threshold":
		cfg.DiffThreshold, err = fs.GetFloat64(name)
	case "bg-frames":
		cfg.BackgroundFrames, err = fs.GetInt(name)
	case "rolling-bg":
		cfg.RollingBackground, err = fs.GetBool(name)
	case "min-area":
		cfg.MinArea, err = fs.GetInt(name)
	case "max-area":
		cfg.MaxArea, err = fs.GetInt(name)
	case "max-blobs":
		cfg.MaxBlobs, err = fs.GetInt(name)
	case "trail-length":
		cfg.TrailLength, err = fs.GetInt(name)
	case "assoc-distance":
		cfg.MaxAssociationDistance, err = fs.GetFloat64(name)
	case "max-stale":
		cfg.MaxStale, err = fs.GetInt(name)
	case "max-distance":
		cfg.MaxDistance, err = fs.GetFloat64(name)
	case "no-trails":
		var off bool
		off, err = fs.GetBool(name)
		cfg.ShowTrails = !off
	case "no-connections":
		var off bool
		off, err = fs.GetBool(name)
		cfg.ShowConnections = !off
	case "no-boxes":
		var off bool
		off, err = fs.GetBool(name)
		cfg.ShowBoxes = !off
	case "marker-style":
		var s string
		if s, err = fs.GetString(name); err == nil {
			cfg.MarkerStyle, err = overlay.ParseMarkerStyle(s)
		}
	case "use-points":
		cfg.UsePoints, err = fs.GetBool(name)
	case "invert":
		cfg.Invert, err = fs.GetBool(name)
	case "show-numbers":
		cfg.ShowNumbers, err = fs.GetBool(name)
	case "show-mask":
		cfg.ShowMask, err = fs.GetBool(name)
	case "max-thickness":
		cfg.MaxTrailThickness, err = fs.GetInt(name)
	}
	return errors.Wrapf(err, "--%s", name)
}

// resolveConfig builds the tracker configuration: the --config file when
// given, base otherwise, then the flags the user set.
func resolveConfig(fs *pflag.FlagSet, base controller.Config) (controller.Config, error) {
	cfg := base
	if configPath != "" {
		var err error
		if cfg, err = controller.LoadConfig(configPath); err != nil {
			return cfg, err
		}
	}
	if err := applyTrackerFlags(fs, &cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
