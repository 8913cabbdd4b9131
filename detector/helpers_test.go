package detector

import (
	"image"

	"gocv.io/x/gocv"
)

// grayFrame returns a single-channel frame filled with value.
func grayFrame(width, height int, value uint8) gocv.Mat {
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(value), 0, 0, 0), height, width, gocv.MatTypeCV8UC1)
}

// bgrFrame returns a BGR frame filled with a gray value.
func bgrFrame(width, height int, value uint8) gocv.Mat {
	v := float64(value)
	return gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
}

// fill sets every channel of every pixel in r to value.
func fill(mat *gocv.Mat, r image.Rectangle, value uint8) {
	channels := mat.Channels()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			for c := 0; c < channels; c++ {
				mat.SetUCharAt(y, x*channels+c, value)
			}
		}
	}
}
