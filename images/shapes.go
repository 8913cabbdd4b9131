// Package images - Image processing utilities
package images

import "image"

// SquareAround returns the axis-aligned square of the given half side centred
// on center. Max is inclusive-exclusive like image.Rectangle, so a half side of
// 0 still yields a 1x1 square on the centre pixel.
func SquareAround(center image.Point, half int) image.Rectangle {
	if half < 0 {
		half = 0
	}
	return image.Rect(center.X-half, center.Y-half, center.X+half+1, center.Y+half+1)
}

// ClipToFrame intersects r with the frame of the given size.
//
// **Why this exists**
//
// OpenCV drawing primitives already clip lines, circles and rectangle
// outlines against the image border, so they never fail on out-of-frame
// coordinates. Region extraction (Mat.Region) and filled patches that are
// later copied pixel-by-pixel do not: a ROI that leaves the frame aborts the
// native call. Every rectangle that is turned into a ROI goes through this
// function first.
//
// Arguments:
//   - r: The rectangle to clip, in pixel coordinates.
//   - cols: Frame width.
//   - rows: Frame height.
//
// Returns:
//   - image.Rectangle: The visible part of r.
//   - bool: false when nothing of r is inside the frame.
//
// Example Usage:
// ```go
//
//	patch, ok := ClipToFrame(image.Rect(-4, -4, 10, 10), 64, 64) // (0,0)-(10,10), true
//	_, ok = ClipToFrame(image.Rect(70, 70, 80, 80), 64, 64)      // false
//
// ```
func ClipToFrame(r image.Rectangle, cols, rows int) (image.Rectangle, bool) {
	clipped := r.Canon().Intersect(image.Rect(0, 0, cols, rows))
	if clipped.Empty() {
		return image.Rectangle{}, false
	}
	return clipped, true
}
