// Package controller routes frames through detection, tracking and overlay
// rendering, and drives whole runs from a frame source to a frame sink.
package controller

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/nvr-ai/blobtrail/detector"
	"github.com/nvr-ai/blobtrail/images"
	"github.com/nvr-ai/blobtrail/overlay"
	"github.com/nvr-ai/blobtrail/profiler"
	"github.com/nvr-ai/blobtrail/tracking"
)

// Stage names recorded in the profiler.
const (
	OperationDetect = "detect"
	OperationTrack  = "track"
	OperationRender = "render"
)

// BlobTracker turns input frames into annotated output frames.
//
// Each call to ProcessFrame runs detect, trail update, connection planning
// and rendering in that order. Tracking and background state carry over
// between calls, so frames must be fed in stream order from one goroutine.
type BlobTracker struct {
	config Config
	logger zerolog.Logger

	extractor  *detector.BlobExtractor
	threshold  *detector.ThresholdDetector
	background *detector.BackgroundModel
	store      *tracking.Store
	renderer   *overlay.Renderer
	profiler   *profiler.Profiler

	lastBlobs []detector.Blob
	frames    int
}

// New validates cfg and builds a tracker for it.
//
// Arguments:
//   - cfg: Tracker settings, copied.
//   - logger: Structured logger, zerolog.Nop() to disable.
//
// Returns:
//   - *BlobTracker: call Close() to release native memory.
//   - error: ErrInvalidConfig (wrapped) for bad settings.
func New(cfg Config, logger zerolog.Logger) (*BlobTracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	cfg.Mode = mode

	extractor, err := detector.NewBlobExtractor(cfg.MinArea, cfg.MaxArea, cfg.MaxBlobs)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	t := &BlobTracker{
		config:    cfg,
		logger:    logger,
		extractor: extractor,
		renderer:  overlay.NewRenderer(cfg.Style()),
		profiler:  profiler.New(profiler.DefaultMaxSamples),
	}

	if cfg.Mode == ModeBackground {
		t.background, err = detector.NewBackgroundModel(cfg.BackgroundFrames, cfg.DiffThreshold, cfg.BackgroundPolicy(), extractor)
	} else {
		t.threshold, err = detector.NewThresholdDetector(cfg.Threshold, extractor)
	}
	if err != nil {
		extractor.Close()
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	t.store, err = tracking.NewStore(cfg.TrailLength, cfg.MaxAssociationDistance, cfg.MaxStale)
	if err != nil {
		t.Close()
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}

	logger.Debug().
		Str("mode", string(cfg.Mode)).
		Int("max_blobs", cfg.MaxBlobs).
		Int("trail_length", cfg.TrailLength).
		Float64("max_distance", cfg.MaxDistance).
		Msg("blob tracker created")
	return t, nil
}

// Config returns the settings the tracker was built with.
func (t *BlobTracker) Config() Config {
	return t.config
}

// Detect runs the configured detector on frame. Blobs are sorted by area,
// largest first, and capped to MaxBlobs.
func (t *BlobTracker) Detect(frame gocv.Mat) ([]detector.Blob, error) {
	switch t.config.Mode {
	case ModeBright:
		return t.threshold.Detect(frame, detector.PolarityBright)
	case ModeDark:
		return t.threshold.Detect(frame, detector.PolarityDark)
	case ModeBoth:
		return t.threshold.DetectBoth(frame)
	case ModeBackground:
		wasReady := t.background.State() == detector.Ready
		blobs, err := t.background.Observe(frame)
		if err == nil && !wasReady && t.background.State() == detector.Ready {
			t.logger.Info().Int("frame", t.frames).Int("samples", t.config.BackgroundFrames).Msg("background model ready")
		}
		return blobs, err
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown mode %q", t.config.Mode)
	}
}

// ProcessFrame annotates one frame.
//
// The input is never modified: the overlay is drawn on a BGR copy which the
// caller owns. A frame without blobs is not an error.
//
// Arguments:
//   - in: 8-bit gray, BGR or BGRA frame.
//
// Returns:
//   - gocv.Mat: the annotated BGR frame, caller must Close() it. Zero on error.
//   - error: on unsupported frames or detector failures.
func (t *BlobTracker) ProcessFrame(in gocv.Mat) (gocv.Mat, error) {
	out, err := images.ToBGR(in)
	if err != nil {
		out.Close()
		return gocv.Mat{}, errors.Wrapf(err, "frame %d", t.frames)
	}

	done := t.profiler.StartOperation(OperationDetect)
	blobs, err := t.Detect(in)
	done()
	if err != nil {
		out.Close()
		return gocv.Mat{}, errors.Wrapf(err, "detect frame %d", t.frames)
	}
	t.lastBlobs = blobs
	t.frames++

	done = t.profiler.StartOperation(OperationTrack)
	centroids := detector.Centroids(blobs)
	t.store.Update(centroids)
	var connections []overlay.Connection
	if t.config.ShowConnections {
		connections = overlay.PlanConnections(centroids, t.config.MaxDistance)
	}
	done()

	scene := overlay.Scene{
		Blobs:       blobs,
		Trails:      t.store.Trails(),
		Connections: connections,
	}
	if t.config.ShowMask {
		mask := t.Mask()
		scene.Mask = &mask
	}
	if t.background != nil {
		scene.Warming = t.background.State() == detector.Warming
		scene.Progress = t.background.Progress()
	}

	done = t.profiler.StartOperation(OperationRender)
	err = t.renderer.Draw(&out, scene)
	done()
	if err != nil {
		out.Close()
		return gocv.Mat{}, errors.Wrapf(err, "render frame %d", t.frames-1)
	}
	return out, nil
}

// Mask returns the detection mask of the last frame. It is owned by the
// tracker and empty while the background is warming.
func (t *BlobTracker) Mask() gocv.Mat {
	if t.background != nil {
		return t.background.Mask()
	}
	return t.threshold.LastMask()
}

// LastBlobs returns the blobs of the last processed frame.
func (t *BlobTracker) LastBlobs() []detector.Blob {
	return t.lastBlobs
}

// Trails returns the point history of every live track.
func (t *BlobTracker) Trails() [][]r2.Vec {
	return t.store.Trails()
}

// Frames returns the number of frames processed so far.
func (t *BlobTracker) Frames() int {
	return t.frames
}

// Warming reports whether the background model is still learning, and its
// progress in [0, 1]. Threshold modes are never warming.
func (t *BlobTracker) Warming() (bool, float64) {
	if t.background == nil {
		return false, 1
	}
	return t.background.State() == detector.Warming, t.background.Progress()
}

// ResetBackground restarts the background warm-up and clears every trail.
// Threshold modes ignore it.
func (t *BlobTracker) ResetBackground() {
	if t.background != nil {
		t.background.Reset()
		t.store.Reset()
		t.logger.Info().Int("frame", t.frames).Msg("background reset")
	}
}

// Profiler returns the per-stage timings.
func (t *BlobTracker) Profiler() *profiler.Profiler {
	return t.profiler
}

// Close releases all OpenCV native resources used by the tracker.
func (t *BlobTracker) Close() {
	if t.threshold != nil {
		t.threshold.Close()
	}
	if t.background != nil {
		t.background.Close()
	}
	t.extractor.Close()
}
