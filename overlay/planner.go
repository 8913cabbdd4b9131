// Package overlay plans and draws the tracking graphics: fading trails,
// distance-weighted connection lines, blob markers and labels.
package overlay

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Connection is a line to draw between two blobs of the same frame.
type Connection struct {
	// I and J index the blob list, I < J.
	I, J int
	// Distance is the Euclidean distance between the centroids in pixels.
	Distance float64
	// Intensity is the line brightness in [0, 1], 1 for coincident blobs.
	Intensity float64
}

// PlanConnections returns every unordered pair of centroids no further than
// maxDistance apart, ordered by (I, J).
//
// Intensity falls off linearly: 1 - d/maxDistance, clamped to [0, 1]. With a
// maxDistance of 0 only coincident centroids are connected, at intensity 1.
// The work is quadratic in len(centroids), which stays small after the blob
// cap.
//
// Arguments:
//   - centroids: Blob centroids in blob order.
//   - maxDistance: Cutoff in pixels, inclusive. Negative values connect nothing.
//
// Returns:
//   - []Connection: the planned pairs, nil when there are none.
func PlanConnections(centroids []r2.Vec, maxDistance float64) []Connection {
	if maxDistance < 0 {
		return nil
	}
	var out []Connection
	for i := 0; i < len(centroids); i++ {
		for j := i + 1; j < len(centroids); j++ {
			d := r2.Norm(r2.Sub(centroids[j], centroids[i]))
			if d > maxDistance {
				continue
			}
			out = append(out, Connection{I: i, J: j, Distance: d, Intensity: falloff(d, maxDistance)})
		}
	}
	return out
}

func falloff(d, maxDistance float64) float64 {
	if maxDistance == 0 {
		return 1
	}
	return clamp01(1 - d/maxDistance)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
