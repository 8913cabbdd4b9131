package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestComputeMatChecksum(t *testing.T) {
	a := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer a.Close()
	b := a.Clone()
	defer b.Close()

	assert.Equal(t, ComputeMatChecksum(a), ComputeMatChecksum(b))

	b.SetUCharAt(0, 0, 11)
	assert.NotEqual(t, ComputeMatChecksum(a), ComputeMatChecksum(b))

	empty := gocv.NewMat()
	defer empty.Close()
	assert.Equal(t, "empty", ComputeMatChecksum(empty))
}

func TestCheckFrame(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	assert.ErrorIs(t, CheckFrame(empty), ErrUnsupportedMat)

	float := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV32F)
	defer float.Close()
	assert.ErrorIs(t, CheckFrame(float), ErrUnsupportedMat)

	bgr := gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3)
	defer bgr.Close()
	assert.NoError(t, CheckFrame(bgr))
}

func TestLuminance(t *testing.T) {
	bgr := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 4, 4, gocv.MatTypeCV8UC3)
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	require.NoError(t, Luminance(bgr, &gray))

	assert.Equal(t, 1, gray.Channels())
	assert.Equal(t, uint8(255), gray.GetUCharAt(2, 2))
}

func TestMatFromGrayRoundTrip(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5}
	mat, err := MatFromGray(data, 3, 2)
	require.NoError(t, err)
	defer mat.Close()

	data[0] = 99
	assert.Equal(t, uint8(0), mat.GetUCharAt(0, 0), "mat must not alias the input buffer")
	assert.Equal(t, uint8(5), mat.GetUCharAt(1, 2))

	_, err = MatFromGray(data, 4, 4)
	assert.Error(t, err)
}
