package cmd

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/controller"
	"github.com/nvr-ai/blobtrail/images"
	"github.com/nvr-ai/blobtrail/video"
)

type liveOptions struct {
	Camera    int
	MaxWidth  int
	MaxHeight int
	Save      string
	Codec     string
	FPS       float64
	OutputDir string
}

var liveOpts liveOptions

var liveCmd = &cobra.Command{
	Use:   "live",
	Short: "Track blobs on a camera feed in a preview window",
	Long: `Live opens a camera, learns its background and tracks whatever moves.

Keys:
  q, Esc           quit
  space            save a screenshot
  r                start or stop recording
  backspace, del   rebuild the background model`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := resolveConfig(cmd.Flags(), liveDefaults())
		if err != nil {
			return err
		}
		return runLive(cmd.Context(), cfg, liveOpts)
	},
}

// liveDefaults is DefaultConfig switched to background subtraction with the
// warm-up banner.
func liveDefaults() controller.Config {
	cfg := controller.DefaultConfig()
	cfg.Mode = controller.ModeBackground
	cfg.ShowWarmup = true
	return cfg
}

func init() {
	addTrackerFlags(liveCmd.Flags(), liveDefaults())
	liveCmd.Flags().IntVar(&liveOpts.Camera, "camera", 0, "Camera device index")
	liveCmd.Flags().IntVar(&liveOpts.MaxWidth, "max-width", 0, "Request the largest standard resolution within this width")
	liveCmd.Flags().IntVar(&liveOpts.MaxHeight, "max-height", 0, "Request the largest standard resolution within this height")
	liveCmd.Flags().StringVar(&liveOpts.Save, "save", "", "Start recording to this file immediately")
	liveCmd.Flags().StringVar(&liveOpts.Codec, "codec", video.DefaultCodec, "Recording FourCC codec")
	liveCmd.Flags().Float64Var(&liveOpts.FPS, "fps", video.DefaultFPS, "Recording frame rate")
	liveCmd.Flags().StringVar(&liveOpts.OutputDir, "output-dir", ".", "Directory for screenshots and recordings")
	rootCmd.AddCommand(liveCmd)
}

func runLive(ctx context.Context, cfg controller.Config, opts liveOptions) error {
	source, err := video.OpenDevice(opts.Camera)
	if err != nil {
		return err
	}
	defer source.Close()

	if opts.MaxWidth > 0 && opts.MaxHeight > 0 {
		res, ok := images.GetHighestResolutionUnderDimensions(opts.MaxWidth, opts.MaxHeight)
		if !ok {
			return errors.Errorf("no standard resolution fits in %dx%d", opts.MaxWidth, opts.MaxHeight)
		}
		source.RequestResolution(res)
	}

	tracker, err := controller.New(cfg, logger)
	if err != nil {
		return err
	}
	defer tracker.Close()

	session := newLiveSession(tracker, &video.Recorder{Codec: opts.Codec, FPS: opts.FPS}, opts.OutputDir, logger)
	if opts.Save != "" {
		if err := session.recorder.Start(opts.Save); err != nil {
			return err
		}
	}

	preview := video.NewWindowPreview("Real-time blob tracker (press q to quit)")
	defer preview.Close()
	preview.OnKey = session.HandleKey

	logger.Info().
		Int("camera", opts.Camera).
		Stringer("resolution", source.Info().Resolution).
		Int("bg_frames", cfg.BackgroundFrames).
		Msg("live tracking started, q to quit")

	stats, err := controller.Run(ctx, session, source, session.recorder, controller.RunOptions{
		Preview: preview,
		Logger:  &logger,
	})
	tracker.Profiler().Report(logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Int("frames", stats.Frames).Float64("fps", stats.FPS()).Msg("live tracking stopped")
	return nil
}

var recordColor = color.RGBA{R: 255, A: 255}

// liveSession wires keyboard commands to the tracker and recorder.
type liveSession struct {
	tracker  *controller.BlobTracker
	recorder *video.Recorder
	dir      string
	logger   zerolog.Logger

	// recordPattern names new recordings after their start time.
	recordPattern string
	now           func() time.Time
	screenshots   int
}

func newLiveSession(tracker *controller.BlobTracker, recorder *video.Recorder, dir string, logger zerolog.Logger) *liveSession {
	return &liveSession{
		tracker:       tracker,
		recorder:      recorder,
		dir:           dir,
		logger:        logger,
		recordPattern: "recording_%d.mp4",
		now:           time.Now,
	}
}

// ProcessFrame annotates the frame and marks it while recording.
func (s *liveSession) ProcessFrame(in gocv.Mat) (gocv.Mat, error) {
	out, err := s.tracker.ProcessFrame(in)
	if err != nil {
		return out, err
	}
	if s.recorder.Recording() {
		gocv.Circle(&out, image.Pt(30, 30), 10, recordColor, -1)
		gocv.PutText(&out, "REC", image.Pt(50, 40), gocv.FontHersheySimplex, 0.7, recordColor, 2)
	}
	return out, nil
}

// HandleKey reacts to one key press. It never stops the run; q and Esc are
// handled by the preview.
func (s *liveSession) HandleKey(key int, frame gocv.Mat) bool {
	switch key {
	case video.KeySpace:
		s.screenshots++
		path := filepath.Join(s.dir, fmt.Sprintf("screenshot_%d.png", s.screenshots))
		if !gocv.IMWrite(path, frame) {
			s.logger.Error().Str("path", path).Msg("screenshot failed")
			break
		}
		s.logger.Info().Str("path", path).Msg("screenshot saved")
	case 'r':
		if s.recorder.Recording() {
			if err := s.recorder.Stop(); err != nil {
				s.logger.Error().Err(err).Msg("stop recording")
				break
			}
			s.logger.Info().Msg("recording saved")
			break
		}
		path := filepath.Join(s.dir, fmt.Sprintf(s.recordPattern, s.now().Unix()))
		if err := s.recorder.Start(path); err != nil {
			s.logger.Error().Err(err).Msg("start recording")
			break
		}
		s.logger.Info().Str("path", path).Msg("recording started")
	case video.KeyBackspace, video.KeyDelete:
		s.tracker.ResetBackground()
		s.logger.Info().Msg("background model reset")
	}
	return true
}
