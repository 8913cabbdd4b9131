// Package images - This file contains the binary mask cleanup used before
// connected-component extraction, using OpenCV (via gocv).
//
// Pipeline Overview:
//
// ┌──────────────────────┐
// │ Binary mask (0/255)  │
// └──────┬───────────────┘
// ┌────────────────────────────┐
// │ Morphology: open (erode,   │
// │ dilate) drops 1px noise    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Morphology: close (dilate, │
// │ erode) fills small gaps    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Clean mask                 │
// └────────────────────────────┘
//
// Usage:
//
//	cleaner := images.NewMaskCleaner(3)
//	defer cleaner.Close()
//
//	for {
//	    mask := nextMask()
//	    cleaner.Clean(mask, &clean)
//	}
//
// Note: You must call Close() when finished to release native resources.
package images

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// DefaultKernelSize is the side of the square structuring element.
const DefaultKernelSize = 3

// MaskCleaner removes isolated noise pixels from a binary mask and fills
// pinholes inside regions. It keeps its kernel and scratch Mat across frames.
type MaskCleaner struct {
	Kernel  gocv.Mat // Square structuring element
	scratch gocv.Mat // Result of the opening pass
}

// NewMaskCleaner constructs a MaskCleaner with a size x size rectangular kernel.
//
// Arguments:
//   - size: Kernel side in pixels. Values below 1 fall back to DefaultKernelSize.
//
// Returns:
//   - *MaskCleaner: ready to use, call Close() to release memory.
func NewMaskCleaner(size int) *MaskCleaner {
	if size < 1 {
		size = DefaultKernelSize
	}
	return &MaskCleaner{
		Kernel:  gocv.GetStructuringElement(gocv.MorphRect, image.Pt(size, size)),
		scratch: gocv.NewMat(),
	}
}

// Opening performs erosion followed by dilation. Components thinner than the
// kernel disappear.
func (c *MaskCleaner) Opening(src gocv.Mat, dst *gocv.Mat) {
	gocv.MorphologyEx(src, dst, gocv.MorphOpen, c.Kernel)
}

// Closing performs dilation followed by erosion. Gaps narrower than the kernel
// are filled.
func (c *MaskCleaner) Closing(src gocv.Mat, dst *gocv.Mat) {
	gocv.MorphologyEx(src, dst, gocv.MorphClose, c.Kernel)
}

// Clean runs Opening then Closing.
//
// Arguments:
//   - mask: 8UC1 binary mask.
//   - dst: Destination for the cleaned mask. May alias mask.
//
// Returns:
//   - error: if the mask is not single channel.
func (c *MaskCleaner) Clean(mask gocv.Mat, dst *gocv.Mat) error {
	if mask.Empty() || mask.Channels() != 1 {
		return errors.Wrap(ErrUnsupportedMat, "mask must be single channel")
	}
	c.Opening(mask, &c.scratch)
	c.Closing(c.scratch, dst)
	return nil
}

// Close releases all OpenCV native resources used by the cleaner.
//
// Always call this when you're done to prevent memory leaks.
func (c *MaskCleaner) Close() {
	c.Kernel.Close()
	c.scratch.Close()
}
