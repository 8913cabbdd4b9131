package video

import (
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/blobtrail/images"
)

func smallSynth() SynthOptions {
	opts := DefaultSynthOptions()
	opts.Width, opts.Height = 640, 360
	opts.Frames = 4
	return opts
}

func TestNewSynthSource_Validation(t *testing.T) {
	opts := smallSynth()
	opts.Width = 50
	_, err := NewSynthSource(opts)
	assert.Error(t, err)

	opts = smallSynth()
	opts.FPS = 0
	_, err = NewSynthSource(opts)
	assert.Error(t, err)
}

func TestSynthSource_FrameCountAndEOF(t *testing.T) {
	src, err := NewSynthSource(smallSynth())
	require.NoError(t, err)
	defer src.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, src.Read(&frame))
		assert.Equal(t, 640, frame.Cols())
		assert.Equal(t, 360, frame.Rows())
		assert.Equal(t, gocv.MatTypeCV8UC3, frame.Type())
	}
	assert.ErrorIs(t, src.Read(&frame), io.EOF)

	info := src.Info()
	assert.Equal(t, 4, info.FrameCount)
	assert.Equal(t, images.ResolutionTypeNHD, info.Resolution.Name)
}

func TestSynthSource_Deterministic(t *testing.T) {
	checksums := func() []string {
		src, err := NewSynthSource(smallSynth())
		require.NoError(t, err)
		frame := gocv.NewMat()
		defer frame.Close()

		var out []string
		for src.Read(&frame) == nil {
			out = append(out, images.ComputeMatChecksum(frame))
		}
		return out
	}
	first := checksums()
	assert.Len(t, first, 4)
	assert.Equal(t, first, checksums())
}

func TestSynthSource_DiscsStayInFrame(t *testing.T) {
	opts := DefaultSynthOptions()
	src, err := NewSynthSource(opts)
	require.NoError(t, err)

	bounds := image.Rect(0, 0, opts.Width, opts.Height)
	for i := 0; i < opts.Frames; i++ {
		discs := src.Discs(i)
		require.Len(t, discs, 5)
		for _, d := range discs {
			assert.True(t, d.Center.In(bounds), "frame %d disc at %v", i, d.Center)
		}
	}
}

func TestSynthSource_DiscIsBright(t *testing.T) {
	src, err := NewSynthSource(SynthOptions{Width: 640, Height: 360, FPS: 30, Frames: 1})
	require.NoError(t, err)

	frame := gocv.NewMat()
	defer frame.Close()
	require.NoError(t, src.Read(&frame))

	c := src.Discs(0)[0].Center
	assert.Equal(t, uint8(255), frame.GetUCharAt(c.Y, c.X*3))
	assert.Equal(t, uint8(20), frame.GetUCharAt(2, 0), "background blue channel")
}

func TestSynthSource_MinimumSizeWithSparkles(t *testing.T) {
	for _, size := range []image.Point{{100, 100}, {101, 100}, {100, 240}} {
		src, err := NewSynthSource(SynthOptions{Width: size.X, Height: size.Y, FPS: 30, Frames: 3, Sparkles: 5, Seed: 7})
		require.NoError(t, err, size)

		frame := gocv.NewMat()
		read := 0
		require.NotPanics(t, func() {
			for src.Read(&frame) == nil {
				read++
			}
		}, size)
		assert.Equal(t, 3, read)
		assert.Equal(t, size.X, frame.Cols())
		assert.Equal(t, size.Y, frame.Rows())
		frame.Close()
	}
}
