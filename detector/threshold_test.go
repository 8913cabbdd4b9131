package detector

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func newTestThresholdDetector(t *testing.T, threshold, maxBlobs int) *ThresholdDetector {
	t.Helper()
	e, err := NewBlobExtractor(DefaultMinArea, DefaultMaxArea, maxBlobs)
	require.NoError(t, err)
	t.Cleanup(e.Close)

	d, err := NewThresholdDetector(threshold, e)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestNewThresholdDetector_Validation(t *testing.T) {
	e, err := NewBlobExtractor(DefaultMinArea, DefaultMaxArea, 0)
	require.NoError(t, err)
	defer e.Close()

	_, err = NewThresholdDetector(-1, e)
	assert.Error(t, err)
	_, err = NewThresholdDetector(256, e)
	assert.Error(t, err)
	_, err = NewThresholdDetector(DefaultThreshold, nil)
	assert.Error(t, err)
}

func TestThresholdDetector_BrightCutIsInclusive(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	tests := []struct {
		name  string
		value uint8
		want  int
	}{
		{name: "At threshold", value: 200, want: 1},
		{name: "Below threshold", value: 199, want: 0},
		{name: "Saturated", value: 255, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := bgrFrame(64, 48, 100)
			defer frame.Close()
			fill(&frame, image.Rect(20, 20, 26, 26), tt.value)

			blobs, err := d.Detect(frame, PolarityBright)
			require.NoError(t, err)
			require.Len(t, blobs, tt.want)
			if tt.want > 0 {
				assert.Equal(t, 36, blobs[0].Area)
				assert.Equal(t, PolarityBright, blobs[0].Polarity)
			}
		})
	}
}

func TestThresholdDetector_DarkCutIsInclusive(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	tests := []struct {
		name  string
		value uint8
		want  int
	}{
		{name: "At threshold", value: 55, want: 1},
		{name: "Above threshold", value: 56, want: 0},
		{name: "Black", value: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := grayFrame(64, 48, 128)
			defer frame.Close()
			fill(&frame, image.Rect(10, 10, 16, 16), tt.value)

			blobs, err := d.Detect(frame, PolarityDark)
			require.NoError(t, err)
			assert.Len(t, blobs, tt.want)
		})
	}
}

func TestThresholdDetector_UniformFrameHasNoBlobs(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	frame := bgrFrame(32, 32, 128)
	defer frame.Close()

	for _, polarity := range []Polarity{PolarityBright, PolarityDark} {
		blobs, err := d.Detect(frame, polarity)
		require.NoError(t, err)
		assert.Empty(t, blobs, polarity.String())
	}
}

func TestThresholdDetector_DetectBoth(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	frame := bgrFrame(64, 48, 128)
	defer frame.Close()
	fill(&frame, image.Rect(4, 4, 10, 10), 255) // 36 bright
	fill(&frame, image.Rect(30, 20, 38, 28), 0)  // 64 dark

	blobs, err := d.DetectBoth(frame)
	require.NoError(t, err)
	require.Len(t, blobs, 2)
	assert.Equal(t, PolarityDark, blobs[0].Polarity)
	assert.Equal(t, 64, blobs[0].Area)
	assert.Equal(t, PolarityBright, blobs[1].Polarity)
}

func TestThresholdDetector_DetectBothOverlappingCuts(t *testing.T) {
	// At 100 the bright cut is luma >= 100 and the dark cut luma <= 155.
	t.Run("uniform overlap is reported once", func(t *testing.T) {
		d := newTestThresholdDetector(t, 100, 0)
		frame := bgrFrame(20, 20, 128)
		defer frame.Close()

		blobs, err := d.DetectBoth(frame)
		require.NoError(t, err)
		require.Len(t, blobs, 1)
		assert.Equal(t, PolarityBright, blobs[0].Polarity)
		assert.Equal(t, 400, blobs[0].Area)
	})

	t.Run("each pixel has one polarity", func(t *testing.T) {
		tests := []struct {
			name       string
			background uint8
			square     uint8
			want       []Polarity
		}{
			{name: "overlap square on bright", background: 250, square: 150, want: []Polarity{PolarityBright}},
			{name: "dark square on overlap", background: 128, square: 20, want: []Polarity{PolarityBright, PolarityDark}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e, err := NewBlobExtractor(DefaultMinArea, 0, 0)
				require.NoError(t, err)
				defer e.Close()
				d, err := NewThresholdDetector(100, e)
				require.NoError(t, err)
				defer d.Close()

				frame := bgrFrame(32, 32, tt.background)
				defer frame.Close()
				fill(&frame, image.Rect(10, 10, 16, 16), tt.square)

				blobs, err := d.DetectBoth(frame)
				require.NoError(t, err)

				var got []Polarity
				total := 0
				for _, b := range blobs {
					got = append(got, b.Polarity)
					total += b.Area
				}
				assert.Equal(t, tt.want, got)
				assert.Equal(t, 32*32, total)
				assert.Equal(t, 32*32, gocv.CountNonZero(d.LastMask()))
			})
		}
	})
}

func TestThresholdDetector_DetectBothCapsUnion(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 1)

	frame := bgrFrame(64, 48, 128)
	defer frame.Close()
	fill(&frame, image.Rect(4, 4, 14, 14), 255)
	fill(&frame, image.Rect(30, 20, 35, 25), 0)

	blobs, err := d.DetectBoth(frame)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, PolarityBright, blobs[0].Polarity)
}

func TestThresholdDetector_RejectsDifferencePolarity(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	frame := grayFrame(16, 16, 0)
	defer frame.Close()

	_, err := d.Detect(frame, PolarityDifference)
	assert.Error(t, err)
}

func TestThresholdDetector_Deterministic(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	frame := bgrFrame(64, 48, 128)
	defer frame.Close()
	fill(&frame, image.Rect(4, 4, 10, 10), 255)
	fill(&frame, image.Rect(30, 20, 40, 30), 255)

	first, err := d.Detect(frame, PolarityBright)
	require.NoError(t, err)
	second, err := d.Detect(frame, PolarityBright)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestThresholdDetector_LastMaskAfterDetectBoth(t *testing.T) {
	d := newTestThresholdDetector(t, DefaultThreshold, 0)

	frame := grayFrame(64, 48, 128)
	defer frame.Close()
	fill(&frame, image.Rect(4, 4, 10, 10), 255)
	fill(&frame, image.Rect(30, 20, 38, 28), 0)

	_, err := d.DetectBoth(frame)
	require.NoError(t, err)
	mask := d.LastMask()
	assert.Equal(t, uint8(255), mask.GetUCharAt(5, 5), "bright region")
	assert.Equal(t, uint8(255), mask.GetUCharAt(21, 31), "dark region")
	assert.Equal(t, uint8(0), mask.GetUCharAt(40, 50))

	_, err = d.Detect(frame, PolarityBright)
	require.NoError(t, err)
	mask = d.LastMask()
	assert.Equal(t, uint8(0), mask.GetUCharAt(21, 31), "single polarity mask")
}
