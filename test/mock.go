// Package test holds end-to-end scenarios and benchmarks that drive the
// whole pipeline with synthetic frames.
package test

import (
	"image"
	"io"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/nvr-ai/blobtrail/images"
)

// MockFrameGenerator creates deterministic BGR test frames.
//
// @example
// gen := NewMockFrameGenerator(64, 64)
// frame := gen.GenerateSquareFrame(5, image.Pt(10, 30))
// defer frame.Close()
type MockFrameGenerator struct {
	width  int
	height int
	// Background is the gray level of empty frames.
	Background uint8
	// Foreground is the gray level of generated squares.
	Foreground uint8
}

// NewMockFrameGenerator creates a generator for frames of the given size
// with dark gray backgrounds and white squares.
func NewMockFrameGenerator(width, height int) *MockFrameGenerator {
	return &MockFrameGenerator{
		width:      width,
		height:     height,
		Background: 50,
		Foreground: 255,
	}
}

// GenerateStaticFrame returns an empty background frame.
func (g *MockFrameGenerator) GenerateStaticFrame() gocv.Mat {
	v := float64(g.Background)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), g.height, g.width, gocv.MatTypeCV8UC3)
}

// GenerateSquareFrame draws a filled square of the given side with its
// top-left corner at each point. Squares are clipped to the frame.
func (g *MockFrameGenerator) GenerateSquareFrame(side int, corners ...image.Point) gocv.Mat {
	frame := g.GenerateStaticFrame()
	bounds := image.Rect(0, 0, g.width, g.height)
	for _, c := range corners {
		rect := image.Rect(c.X, c.Y, c.X+side, c.Y+side).Intersect(bounds)
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				for ch := 0; ch < 3; ch++ {
					frame.SetUCharAt(y, x*3+ch, g.Foreground)
				}
			}
		}
	}
	return frame
}

// GenerateMovingSquare returns n frames of one square starting at start and
// moving by step every frame.
func (g *MockFrameGenerator) GenerateMovingSquare(n, side int, start, step image.Point) []gocv.Mat {
	frames := make([]gocv.Mat, n)
	for i := range frames {
		frames[i] = g.GenerateSquareFrame(side, start.Add(step.Mul(i)))
	}
	return frames
}

// SquareCentroid is the centroid of a square of the given side whose
// top-left pixel is corner.
func SquareCentroid(corner image.Point, side int) r2.Vec {
	half := float64(side-1) / 2
	return r2.Vec{X: float64(corner.X) + half, Y: float64(corner.Y) + half}
}

// FrameSource replays a fixed list of frames and owns them.
type FrameSource struct {
	frames []gocv.Mat
	next   int
}

// NewFrameSource wraps frames. Close releases them.
func NewFrameSource(frames []gocv.Mat) *FrameSource {
	return &FrameSource{frames: frames}
}

// Read copies the next frame into dst.
func (s *FrameSource) Read(dst *gocv.Mat) error {
	if s.next >= len(s.frames) {
		return io.EOF
	}
	s.frames[s.next].CopyTo(dst)
	s.next++
	return nil
}

// Close releases every frame.
func (s *FrameSource) Close() error {
	for i := range s.frames {
		s.frames[i].Close()
	}
	s.frames = nil
	return nil
}

// ChecksumSink records the checksum of every written frame.
type ChecksumSink struct {
	Checksums []string
	Closed    int
}

// Write records frame.
func (s *ChecksumSink) Write(frame gocv.Mat) error {
	s.Checksums = append(s.Checksums, images.ComputeMatChecksum(frame))
	return nil
}

// Close counts calls.
func (s *ChecksumSink) Close() error {
	s.Closed++
	return nil
}
