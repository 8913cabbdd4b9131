package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/blobtrail/controller"
	"github.com/nvr-ai/blobtrail/video"
)

type synthFlags struct {
	Duration int
	Codec    string
	Quiet    bool
	Options  video.SynthOptions
}

var synthOpts = synthFlags{Options: video.DefaultSynthOptions()}

var synthCmd = &cobra.Command{
	Use:   "synth [OUTPUT]",
	Short: "Generate a test video of bright discs moving over a dark background",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		output := "test_input.mp4"
		if len(args) == 1 {
			output = args[0]
		}
		return runSynth(cmd.Context(), output, synthOpts)
	},
}

func init() {
	f := synthCmd.Flags()
	f.IntVar(&synthOpts.Duration, "duration", 10, "Duration in seconds")
	f.IntVar(&synthOpts.Options.FPS, "fps", synthOpts.Options.FPS, "Frames per second")
	f.IntVar(&synthOpts.Options.Width, "width", synthOpts.Options.Width, "Frame width")
	f.IntVar(&synthOpts.Options.Height, "height", synthOpts.Options.Height, "Frame height")
	f.IntVar(&synthOpts.Options.Sparkles, "sparkles", synthOpts.Options.Sparkles, "Random dots per frame")
	f.Uint64Var(&synthOpts.Options.Seed, "seed", synthOpts.Options.Seed, "Seed for the random dots")
	f.StringVar(&synthOpts.Codec, "codec", video.DefaultCodec, "Output FourCC codec")
	f.BoolVarP(&synthOpts.Quiet, "quiet", "q", false, "Hide the progress bar")
	rootCmd.AddCommand(synthCmd)
}

func runSynth(ctx context.Context, output string, flags synthFlags) error {
	if flags.Duration < 1 {
		return errors.Errorf("duration must be at least 1 second, got %d", flags.Duration)
	}
	opts := flags.Options
	opts.Frames = flags.Duration * opts.FPS

	source, err := video.NewSynthSource(opts)
	if err != nil {
		return err
	}
	defer source.Close()

	sink := video.NewWriterSink(output, flags.Codec, float64(opts.FPS))
	bar := newProgressBar(opts.Frames, "Generating", flags.Quiet)

	logger.Info().
		Str("output", output).
		Stringer("resolution", source.Info().Resolution).
		Int("fps", opts.FPS).
		Int("frames", opts.Frames).
		Msg("generating test video")

	stats, err := controller.Run(ctx, controller.Passthrough, source, sink, controller.RunOptions{
		Logger:  &logger,
		OnFrame: func(int) { _ = bar.Add(1) },
	})
	_ = bar.Finish()
	if errors.Is(err, context.Canceled) {
		logger.Warn().Int("frames", stats.Frames).Str("output", output).Msg("generation interrupted")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info().Int("frames", stats.Frames).Str("output", output).Msg("test video written")
	return nil
}
