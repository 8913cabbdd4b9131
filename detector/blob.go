// Package detector turns video frames into lists of blobs: connected regions
// selected either by a fixed luminance threshold or by their deviation from a
// median background image.
package detector

import (
	"image"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Polarity records which criterion selected a blob.
type Polarity int

const (
	// PolarityBright marks regions at or above the luminance threshold.
	PolarityBright Polarity = iota
	// PolarityDark marks regions at or below 255 minus the threshold.
	PolarityDark
	// PolarityDifference marks regions that deviate from the background model.
	PolarityDifference
)

// String returns the polarity name.
func (p Polarity) String() string {
	switch p {
	case PolarityBright:
		return "bright"
	case PolarityDark:
		return "dark"
	case PolarityDifference:
		return "difference"
	default:
		return "unknown"
	}
}

// Blob is a connected region detected in a single frame.
type Blob struct {
	// Centroid is the mean pixel position of the region.
	Centroid r2.Vec
	// Area is the pixel count of the region.
	Area int
	// Bounds is the bounding box of the region.
	Bounds image.Rectangle
	// Polarity is the detection criterion that produced the region.
	Polarity Polarity
}

// Diameter is the diameter of a disc with the blob's area. Markers are sized
// from it.
func (b Blob) Diameter() float64 {
	return 2 * math.Sqrt(float64(b.Area)/math.Pi)
}

// Point returns the centroid truncated to integer pixel coordinates.
func (b Blob) Point() image.Point {
	return image.Pt(int(b.Centroid.X), int(b.Centroid.Y))
}

// Centroids returns the centroids of blobs in order.
func Centroids(blobs []Blob) []r2.Vec {
	out := make([]r2.Vec, len(blobs))
	for i, b := range blobs {
		out[i] = b.Centroid
	}
	return out
}
