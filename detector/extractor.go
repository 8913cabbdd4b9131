package detector

import (
	"image"
	"slices"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/nvr-ai/blobtrail/images"
)

const (
	// DefaultMinArea drops single-pixel and speckle noise.
	DefaultMinArea = 10
	// DefaultMaxArea drops regions that flood most of the frame.
	DefaultMaxArea = 500
)

// Column indices of the stats matrix produced by ConnectedComponentsWithStats.
const (
	statLeft   = 0
	statTop    = 1
	statWidth  = 2
	statHeight = 3
	statArea   = 4
)

// BlobExtractor converts a binary mask into blobs.
//
// Components are labelled with 8-connectivity. OpenCV assigns labels in
// raster order (top to bottom, left to right, by first pixel), which is the
// tie-break order for equal areas.
type BlobExtractor struct {
	// MinArea is the smallest accepted component, inclusive.
	MinArea int
	// MaxArea is the largest accepted component, inclusive. Zero disables
	// the upper bound.
	MaxArea int
	// MaxBlobs keeps only the N largest components. Zero keeps all.
	MaxBlobs int

	labels    gocv.Mat
	stats     gocv.Mat
	centroids gocv.Mat
}

// NewBlobExtractor creates an extractor with the given area filter and cap.
//
// Arguments:
//   - minArea: Minimum component area in pixels, must be at least 1.
//   - maxArea: Maximum component area in pixels, 0 for unbounded.
//   - maxBlobs: Maximum number of blobs returned, 0 for unlimited.
//
// Returns:
//   - *BlobExtractor: ready to use, call Close() to release memory.
//   - error: if the bounds are inconsistent.
func NewBlobExtractor(minArea, maxArea, maxBlobs int) (*BlobExtractor, error) {
	if minArea < 1 {
		return nil, errors.Errorf("min area must be at least 1, got %d", minArea)
	}
	if maxArea != 0 && maxArea < minArea {
		return nil, errors.Errorf("max area %d is below min area %d", maxArea, minArea)
	}
	if maxBlobs < 0 {
		return nil, errors.Errorf("max blobs must not be negative, got %d", maxBlobs)
	}
	return &BlobExtractor{
		MinArea:   minArea,
		MaxArea:   maxArea,
		MaxBlobs:  maxBlobs,
		labels:    gocv.NewMat(),
		stats:     gocv.NewMat(),
		centroids: gocv.NewMat(),
	}, nil
}

// Extract labels the non-zero pixels of mask and returns the accepted
// components, largest first, capped to MaxBlobs.
//
// Arguments:
//   - mask: 8UC1 mask, any non-zero pixel is foreground.
//   - polarity: Polarity stamped on every returned blob.
//
// Returns:
//   - []Blob: accepted blobs sorted by area descending.
//   - error: if the mask is not single channel.
func (e *BlobExtractor) Extract(mask gocv.Mat, polarity Polarity) ([]Blob, error) {
	blobs, err := e.Components(mask, polarity)
	if err != nil {
		return nil, err
	}
	return SortAndLimit(blobs, e.MaxBlobs), nil
}

// Components returns the area-filtered components of mask in label order,
// without sorting or capping. Used when several masks are merged before the
// size ranking.
func (e *BlobExtractor) Components(mask gocv.Mat, polarity Polarity) ([]Blob, error) {
	if mask.Empty() || mask.Channels() != 1 {
		return nil, errors.Wrap(images.ErrUnsupportedMat, "mask must be a non-empty single channel image")
	}

	n := gocv.ConnectedComponentsWithStats(mask, &e.labels, &e.stats, &e.centroids)

	var blobs []Blob
	// Label 0 is the background.
	for label := 1; label < n; label++ {
		area := int(e.stats.GetIntAt(label, statArea))
		if area < e.MinArea || (e.MaxArea > 0 && area > e.MaxArea) {
			continue
		}
		left := int(e.stats.GetIntAt(label, statLeft))
		top := int(e.stats.GetIntAt(label, statTop))
		width := int(e.stats.GetIntAt(label, statWidth))
		height := int(e.stats.GetIntAt(label, statHeight))

		blobs = append(blobs, Blob{
			Centroid: r2.Vec{X: e.centroids.GetDoubleAt(label, 0), Y: e.centroids.GetDoubleAt(label, 1)},
			Area:     area,
			Bounds:   image.Rect(left, top, left+width, top+height),
			Polarity: polarity,
		})
	}
	return blobs, nil
}

// SortAndLimit orders blobs by area, largest first, keeping the input order
// for equal areas, and truncates the result to maxBlobs when maxBlobs > 0.
// The input slice is sorted in place.
func SortAndLimit(blobs []Blob, maxBlobs int) []Blob {
	slices.SortStableFunc(blobs, func(a, b Blob) int {
		return b.Area - a.Area
	})
	if maxBlobs > 0 && len(blobs) > maxBlobs {
		blobs = blobs[:maxBlobs]
	}
	return blobs
}

// Close releases all OpenCV native resources used by the extractor.
func (e *BlobExtractor) Close() {
	e.labels.Close()
	e.stats.Close()
	e.centroids.Close()
}
