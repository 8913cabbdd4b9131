// Package tracking keeps bounded position histories for blobs seen across
// consecutive frames.
package tracking

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Trail is a fixed-capacity ring of centroid positions. Appending to a full
// trail overwrites the oldest point.
type Trail struct {
	points []r2.Vec
	// index of the next write
	index int
	full  bool
}

// NewTrail creates an empty trail holding at most capacity points.
// A capacity below 1 is raised to 1.
func NewTrail(capacity int) *Trail {
	if capacity < 1 {
		capacity = 1
	}
	return &Trail{points: make([]r2.Vec, capacity)}
}

// Append stores p as the newest point.
func (t *Trail) Append(p r2.Vec) {
	t.points[t.index] = p
	t.index = (t.index + 1) % len(t.points)
	if t.index == 0 {
		t.full = true
	}
}

// Len returns the number of stored points.
func (t *Trail) Len() int {
	if t.full {
		return len(t.points)
	}
	return t.index
}

// Cap returns the trail capacity.
func (t *Trail) Cap() int {
	return len(t.points)
}

// Points returns a copy of the stored points, oldest first.
func (t *Trail) Points() []r2.Vec {
	if !t.full {
		out := make([]r2.Vec, t.index)
		copy(out, t.points[:t.index])
		return out
	}
	out := make([]r2.Vec, 0, len(t.points))
	out = append(out, t.points[t.index:]...)
	return append(out, t.points[:t.index]...)
}

// Last returns the newest point, or false when the trail is empty.
func (t *Trail) Last() (r2.Vec, bool) {
	if t.Len() == 0 {
		return r2.Vec{}, false
	}
	i := t.index - 1
	if i < 0 {
		i = len(t.points) - 1
	}
	return t.points[i], true
}

// Reset empties the trail without releasing its storage.
func (t *Trail) Reset() {
	t.index = 0
	t.full = false
}
