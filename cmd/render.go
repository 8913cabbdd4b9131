package cmd

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/blobtrail/controller"
	"github.com/nvr-ai/blobtrail/video"
)

// renderOptions holds the render flags that are not tracker settings.
type renderOptions struct {
	Codec     string
	FPS       float64
	MaxFrames int
	Preview   bool
	Quiet     bool
}

var renderOpts renderOptions

var renderCmd = &cobra.Command{
	Use:   "render INPUT OUTPUT",
	Short: "Annotate a video, image, image sequence or camera into a video file",
	Long: `Render reads INPUT frame by frame, detects and tracks blobs and writes the
annotated frames to OUTPUT.

INPUT is a video file, an image, a directory of frame-N images or a camera
index.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg, err := resolveConfig(cmd.Flags(), controller.DefaultConfig())
		if err != nil {
			return err
		}
		return runRender(cmd.Context(), cfg, args[0], args[1], renderOpts)
	},
}

func init() {
	addTrackerFlags(renderCmd.Flags(), controller.DefaultConfig())
	renderCmd.Flags().StringVar(&renderOpts.Codec, "codec", video.DefaultCodec, "Output FourCC codec")
	renderCmd.Flags().Float64Var(&renderOpts.FPS, "fps", 0, "Output frame rate, 0 to use the input rate")
	renderCmd.Flags().IntVar(&renderOpts.MaxFrames, "max-frames", 0, "Stop after N frames, 0 for the whole input")
	renderCmd.Flags().BoolVarP(&renderOpts.Preview, "preview", "p", false, "Show frames while rendering, q to stop")
	renderCmd.Flags().BoolVarP(&renderOpts.Quiet, "quiet", "q", false, "Hide the progress bar")
	rootCmd.AddCommand(renderCmd)
}

func runRender(ctx context.Context, cfg controller.Config, input, output string, opts renderOptions) error {
	in, err := parseInput(input)
	if err != nil {
		return err
	}
	if in.Type != InputDevice && samePath(in.Path, output) {
		return errors.New("input and output paths must be different")
	}

	source, info, err := openInput(in)
	if err != nil {
		return err
	}
	defer source.Close()

	tracker, err := controller.New(cfg, logger)
	if err != nil {
		return err
	}
	defer tracker.Close()

	fps := opts.FPS
	if fps <= 0 {
		fps = info.FPS
	}
	sink := video.NewWriterSink(output, opts.Codec, fps)

	total := info.FrameCount
	if opts.MaxFrames > 0 && (total == 0 || opts.MaxFrames < total) {
		total = opts.MaxFrames
	}
	if total == 0 {
		total = -1
	}
	bar := newProgressBar(total, "Rendering", opts.Quiet)

	runOpts := controller.RunOptions{
		MaxFrames: opts.MaxFrames,
		Logger:    &logger,
		OnFrame:   func(int) { _ = bar.Add(1) },
	}
	if opts.Preview {
		preview := video.NewWindowPreview("blobtrail - press q to stop")
		defer preview.Close()
		runOpts.Preview = preview
	}

	logger.Info().
		Str("input", input).
		Str("output", output).
		Str("mode", string(cfg.Mode)).
		Stringer("resolution", info.Resolution).
		Float64("fps", sink.FPS).
		Msg("rendering")

	stats, err := controller.Run(ctx, tracker, source, sink, runOpts)
	_ = bar.Finish()
	tracker.Profiler().Report(logger)
	if errors.Is(err, context.Canceled) {
		logger.Warn().Int("frames", stats.Frames).Str("output", output).Msg("render interrupted, output holds the frames written so far")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info().
		Int("frames", stats.Frames).
		Dur("elapsed", stats.Duration.Round(time.Millisecond)).
		Float64("fps", stats.FPS()).
		Str("output", output).
		Msg("render complete")
	return nil
}

// newProgressBar writes to stderr next to the log. A negative total gives a
// spinner.
func newProgressBar(total int, description string, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(total), description)
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() { _, _ = os.Stderr.WriteString("\n") }),
	)
}
