package detector

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBackground(t *testing.T, frames int, policy BackgroundPolicy) *BackgroundModel {
	t.Helper()
	e, err := NewBlobExtractor(DefaultMinArea, DefaultMaxArea, 0)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	m, err := NewBackgroundModel(frames, DefaultDiffThreshold, policy, e)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// observeGray feeds a uniform frame with an optional bright square.
func observeGray(t *testing.T, m *BackgroundModel, square image.Rectangle) []Blob {
	t.Helper()
	frame := grayFrame(64, 48, 50)
	defer frame.Close()
	fill(&frame, square, 200)

	blobs, err := m.Observe(frame)
	require.NoError(t, err)
	return blobs
}

func TestNewBackgroundModel_Validation(t *testing.T) {
	e, err := NewBlobExtractor(DefaultMinArea, DefaultMaxArea, 0)
	require.NoError(t, err)
	defer e.Close()

	_, err = NewBackgroundModel(0, DefaultDiffThreshold, BackgroundFrozen, e)
	assert.Error(t, err)
	_, err = NewBackgroundModel(5, 1.5, BackgroundFrozen, e)
	assert.Error(t, err)
	_, err = NewBackgroundModel(5, DefaultDiffThreshold, BackgroundFrozen, nil)
	assert.Error(t, err)
}

func TestBackgroundModel_WarmUp(t *testing.T) {
	const frames = 5
	m := newTestBackground(t, frames, BackgroundFrozen)
	square := image.Rect(20, 20, 26, 26)

	assert.Equal(t, Warming, m.State())
	assert.Nil(t, m.Reference())

	for i := 1; i <= frames; i++ {
		// Even a frame full of change yields nothing while warming.
		blobs := observeGray(t, m, square.Add(image.Pt(i, 0)))
		assert.Nil(t, blobs, "frame %d", i)
		assert.InDelta(t, float64(i)/frames, m.Progress(), 1e-9)
	}
	assert.Equal(t, Ready, m.State())
	assert.Equal(t, "ready", m.State().String())

	blobs := observeGray(t, m, square)
	require.Len(t, blobs, 1)
	assert.Equal(t, PolarityDifference, blobs[0].Polarity)
	assert.Equal(t, 36, blobs[0].Area)
}

func TestBackgroundModel_UnchangedFrameHasNoBlobs(t *testing.T) {
	m := newTestBackground(t, 3, BackgroundFrozen)
	for i := 0; i < 3; i++ {
		observeGray(t, m, image.Rectangle{})
	}
	assert.Empty(t, observeGray(t, m, image.Rectangle{}))
}

func TestBackgroundModel_NoiseIsCleaned(t *testing.T) {
	m := newTestBackground(t, 3, BackgroundFrozen)
	for i := 0; i < 3; i++ {
		observeGray(t, m, image.Rectangle{})
	}
	// A 2x2 speck disappears in the opening pass.
	assert.Empty(t, observeGray(t, m, image.Rect(10, 10, 12, 12)))
}

func TestBackgroundModel_Policies(t *testing.T) {
	square := image.Rect(20, 20, 26, 26)

	t.Run("Frozen keeps reporting a parked object", func(t *testing.T) {
		m := newTestBackground(t, 3, BackgroundFrozen)
		for i := 0; i < 3; i++ {
			observeGray(t, m, image.Rectangle{})
		}
		for i := 0; i < 5; i++ {
			assert.Len(t, observeGray(t, m, square), 1, "ready frame %d", i+1)
		}
	})

	t.Run("Rolling absorbs a parked object", func(t *testing.T) {
		m := newTestBackground(t, 3, BackgroundRolling)
		for i := 0; i < 3; i++ {
			observeGray(t, m, image.Rectangle{})
		}
		assert.Len(t, observeGray(t, m, square), 1)
		assert.Len(t, observeGray(t, m, square), 1)
		// Two of three samples now hold the square, so it is background.
		assert.Empty(t, observeGray(t, m, square))
	})
}

func TestBackgroundModel_EvenMedianAverages(t *testing.T) {
	m := newTestBackground(t, 2, BackgroundFrozen)

	for _, v := range []uint8{10, 20} {
		frame := grayFrame(4, 4, v)
		_, err := m.Observe(frame)
		frame.Close()
		require.NoError(t, err)
	}

	ref := m.Reference()
	require.Len(t, ref, 16)
	for _, r := range ref {
		assert.InDelta(t, 15.0/255, r, 1e-6)
	}
}

func TestBackgroundModel_FrameSizeChanged(t *testing.T) {
	m := newTestBackground(t, 3, BackgroundFrozen)
	observeGray(t, m, image.Rectangle{})

	frame := grayFrame(32, 32, 50)
	defer frame.Close()
	_, err := m.Observe(frame)
	assert.ErrorIs(t, err, ErrFrameSizeChanged)

	m.Reset()
	assert.Equal(t, Warming, m.State())
	_, err = m.Observe(frame)
	assert.NoError(t, err)
}

func TestBackgroundModel_ColorFrames(t *testing.T) {
	m := newTestBackground(t, 1, BackgroundFrozen)

	bg := bgrFrame(64, 48, 50)
	defer bg.Close()
	_, err := m.Observe(bg)
	require.NoError(t, err)

	fg := bgrFrame(64, 48, 50)
	defer fg.Close()
	fill(&fg, image.Rect(5, 5, 15, 15), 220)
	blobs, err := m.Observe(fg)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, image.Rect(5, 5, 15, 15), blobs[0].Bounds)
}
