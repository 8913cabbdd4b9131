package controller

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Source produces frames in stream order. Read returns io.EOF once the stream
// is exhausted.
type Source interface {
	Read(dst *gocv.Mat) error
	Close() error
}

// Sink consumes annotated frames.
type Sink interface {
	Write(frame gocv.Mat) error
	Close() error
}

// Preview displays annotated frames. Show returns false to stop the run.
type Preview interface {
	Show(frame gocv.Mat) bool
}

// Processor turns one input frame into one output frame owned by the caller.
type Processor interface {
	ProcessFrame(in gocv.Mat) (gocv.Mat, error)
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(in gocv.Mat) (gocv.Mat, error)

// ProcessFrame calls f(in).
func (f ProcessorFunc) ProcessFrame(in gocv.Mat) (gocv.Mat, error) {
	return f(in)
}

// Passthrough copies frames unchanged.
var Passthrough = ProcessorFunc(func(in gocv.Mat) (gocv.Mat, error) {
	return in.Clone(), nil
})

// RunOptions configures Run.
type RunOptions struct {
	// Preview receives every written frame. Optional.
	Preview Preview
	// OnFrame is called after each frame is written, with its index.
	OnFrame func(index int)
	// MaxFrames stops the run after that many frames. Zero means no limit.
	MaxFrames int
	// Logger defaults to zerolog.Nop().
	Logger *zerolog.Logger
}

// Stats summarises a run.
type Stats struct {
	RunID    uuid.UUID
	Frames   int
	Duration time.Duration
	// Stopped is set when the preview or MaxFrames ended the run early.
	Stopped bool
}

// FPS returns the average processing rate.
func (s Stats) FPS() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Duration.Seconds()
}

// Run pulls frames from source, processes them and pushes the results to
// sink until the source is exhausted, the preview asks to stop, MaxFrames is
// reached, ctx is cancelled or a stage fails.
//
// The context is checked between frames only, a frame in flight always
// completes. The sink is closed exactly once before Run returns, whatever the
// outcome. The source stays open, it belongs to the caller.
//
// Arguments:
//   - ctx: Cancellation, checked at frame boundaries.
//   - p: Frame processor, usually a *BlobTracker.
//   - source: Frame source.
//   - sink: Frame sink, closed by Run.
//   - opts: Optional preview, progress callback, limit and logger.
//
// Returns:
//   - Stats: frames written and timing, also on error.
//   - error: ctx.Err() on cancellation, *FrameError on a stage failure.
func Run(ctx context.Context, p Processor, source Source, sink Sink, opts RunOptions) (stats Stats, err error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	stats.RunID = uuid.New()
	logger = logger.With().Str("run", stats.RunID.String()).Logger()
	logger.Info().Msg("run started")

	start := time.Now()
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = &FrameError{Index: stats.Frames, Stage: StageSink, Err: errors.Wrap(cerr, "close sink")}
		}
		stats.Duration = time.Since(start)

		var frameErr *FrameError
		switch {
		case errors.As(err, &frameErr):
			logger.Error().Err(frameErr.Err).Int("frame", frameErr.Index).Str("stage", frameErr.Stage.String()).Msg("run failed")
		case err != nil:
			logger.Warn().Err(err).Int("frames", stats.Frames).Msg("run cancelled")
		default:
			logger.Info().
				Int("frames", stats.Frames).
				Dur("duration", stats.Duration).
				Float64("fps", stats.FPS()).
				Bool("stopped", stats.Stopped).
				Msg("run finished")
		}
	}()

	frame := gocv.NewMat()
	defer frame.Close()

	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if opts.MaxFrames > 0 && index >= opts.MaxFrames {
			stats.Stopped = true
			return stats, nil
		}

		if err := source.Read(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return stats, nil
			}
			return stats, &FrameError{Index: index, Stage: StageSource, Err: err}
		}

		out, err := p.ProcessFrame(frame)
		if err != nil {
			return stats, &FrameError{Index: index, Stage: StageProcess, Err: err}
		}

		if err := sink.Write(out); err != nil {
			out.Close()
			return stats, &FrameError{Index: index, Stage: StageSink, Err: err}
		}
		keepGoing := true
		if opts.Preview != nil {
			keepGoing = opts.Preview.Show(out)
		}
		out.Close()

		stats.Frames++
		if opts.OnFrame != nil {
			opts.OnFrame(index)
		}
		if !keepGoing {
			logger.Debug().Int("frame", index).Msg("preview requested stop")
			stats.Stopped = true
			return stats, nil
		}
	}
}
