package video

import (
	"image"
	"image/color"
	"io"
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// SynthOptions configures the demo video generator.
type SynthOptions struct {
	Width  int
	Height int
	FPS    int
	Frames int
	// Sparkles is the number of random short-lived dots per frame.
	Sparkles int
	// Seed makes the sparkles reproducible.
	Seed uint64
}

// DefaultSynthOptions returns ten seconds of 720p at 30 fps.
func DefaultSynthOptions() SynthOptions {
	return SynthOptions{
		Width:    1280,
		Height:   720,
		FPS:      30,
		Frames:   300,
		Sparkles: 5,
		Seed:     1,
	}
}

var synthBackground = gocv.NewScalar(20, 20, 30, 0)

// SynthSource generates frames with five bright discs on deterministic paths
// over a dark background, plus random sparkles.
type SynthSource struct {
	opts  SynthOptions
	index int
	rng   *rand.Rand
}

// NewSynthSource validates opts and creates the generator.
func NewSynthSource(opts SynthOptions) (*SynthSource, error) {
	if opts.Width < 100 || opts.Height < 100 {
		return nil, errors.Errorf("synthetic frames must be at least 100x100, got %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS < 1 || opts.Frames < 0 || opts.Sparkles < 0 {
		return nil, errors.Errorf("invalid synthetic video options %+v", opts)
	}
	return &SynthSource{
		opts: opts,
		rng:  rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Disc is one generated blob.
type Disc struct {
	Center image.Point
	Radius int
	Color  color.RGBA
}

// Discs returns the scripted discs of frame index.
func (s *SynthSource) Discs(index int) []Disc {
	w, h := float64(s.opts.Width), float64(s.opts.Height)
	fps := s.opts.FPS
	t := float64(index) / float64(fps)
	diag := float64(index%fps) / float64(fps)

	return []Disc{
		// circular
		{Center: image.Pt(int(w/2+200*math.Cos(t*2)), int(h/2+200*math.Sin(t*2))), Radius: 30, Color: color.RGBA{R: 255, G: 255, B: 255, A: 255}},
		// figure eight
		{Center: image.Pt(int(w/2+300*math.Sin(t*1.5)), int(h/2+150*math.Sin(t*3))), Radius: 25, Color: color.RGBA{R: 200, G: 255, B: 255, A: 255}},
		// horizontal
		{Center: image.Pt(int(w/4+100*math.Sin(t*3)), int(h/3)), Radius: 20, Color: color.RGBA{R: 255, G: 200, B: 255, A: 255}},
		// vertical
		{Center: image.Pt(int(3*w/4), int(h/2+150*math.Cos(t*2.5))), Radius: 22, Color: color.RGBA{R: 255, G: 255, B: 200, A: 255}},
		// diagonal, restarting every second
		{Center: image.Pt(int(w/4+w/2*diag), int(h/4+h/2*diag)), Radius: 18, Color: color.RGBA{R: 150, G: 255, B: 255, A: 255}},
	}
}

// Read renders the next frame into dst, io.EOF after Frames frames.
func (s *SynthSource) Read(dst *gocv.Mat) error {
	if s.index >= s.opts.Frames {
		return io.EOF
	}
	frame := gocv.NewMatWithSizeFromScalar(synthBackground, s.opts.Height, s.opts.Width, gocv.MatTypeCV8UC3)
	defer frame.Close()

	for _, d := range s.Discs(s.index) {
		gocv.Circle(&frame, d.Center, d.Radius, d.Color, -1)
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i := 0; i < s.opts.Sparkles; i++ {
		x := s.sparkleCoord(s.opts.Width)
		y := s.sparkleCoord(s.opts.Height)
		r := 5 + s.rng.IntN(10)
		gocv.Circle(&frame, image.Pt(x, y), r, white, -1)
	}

	frame.CopyTo(dst)
	s.index++
	return nil
}

// sparkleMargin keeps sparkles away from the frame border.
const sparkleMargin = 50

// sparkleCoord picks a coordinate at least sparkleMargin from both edges, or
// the margin itself when the frame has no room beyond it.
func (s *SynthSource) sparkleCoord(size int) int {
	return sparkleMargin + s.rng.IntN(max(size-2*sparkleMargin, 1))
}

// Info describes the generated stream.
func (s *SynthSource) Info() Info {
	return Info{
		Path:       "synthetic",
		Resolution: resolutionOf(s.opts.Width, s.opts.Height),
		FPS:        float64(s.opts.FPS),
		FrameCount: s.opts.Frames,
		Duration:   DurationOf(s.opts.Frames, float64(s.opts.FPS)),
		Codec:      "raw",
	}
}

// Close is a no-op.
func (s *SynthSource) Close() error {
	return nil
}
