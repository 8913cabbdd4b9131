package tracking

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultTrailLength is the number of positions kept per track.
	DefaultTrailLength = 30
	// DefaultMaxAssociationDistance is the largest centroid jump, in pixels,
	// accepted as the same blob between consecutive frames.
	DefaultMaxAssociationDistance = 50.0
	// DefaultMaxStale is the number of consecutive frames a track may go
	// unobserved before it is dropped.
	DefaultMaxStale = 5
)

// Track is one slot of the store: a trail plus its bookkeeping.
type Track struct {
	// ID is unique within a Store and increases with creation order.
	ID int
	// Trail holds the observed positions, oldest first.
	Trail *Trail
	// Missed counts consecutive frames without an observation.
	Missed int
	// Hits counts all observations.
	Hits int
}

// Stale reports whether the track missed the last frame.
func (t *Track) Stale() bool {
	return t.Missed > 0
}

// candidate is a possible (track, blob) pairing.
type candidate struct {
	distance float64
	slot     int
	blob     int
}

// Store associates blob centroids with tracks from frame to frame.
//
// Matching is greedy over all pairs within MaxDistance, ordered by distance,
// then slot index, then blob index. Two blobs crossing each other can swap
// tracks.
type Store struct {
	// TrailLength is the capacity of each new trail.
	TrailLength int
	// MaxDistance is the association radius in pixels, inclusive.
	MaxDistance float64
	// MaxStale is how many consecutive misses a track survives.
	MaxStale int

	tracks []*Track
	nextID int
	frames int
}

// NewStore creates an empty store.
//
// Arguments:
//   - trailLength: Points kept per track, at least 1.
//   - maxDistance: Association radius in pixels, not negative.
//   - maxStale: Missed frames tolerated before a track is dropped, not negative.
//
// Returns:
//   - *Store: the empty store.
//   - error: on invalid arguments.
func NewStore(trailLength int, maxDistance float64, maxStale int) (*Store, error) {
	if trailLength < 1 {
		return nil, errors.Errorf("trail length must be at least 1, got %d", trailLength)
	}
	if maxDistance < 0 || math.IsNaN(maxDistance) {
		return nil, errors.Errorf("association distance must not be negative, got %v", maxDistance)
	}
	if maxStale < 0 {
		return nil, errors.Errorf("max stale must not be negative, got %d", maxStale)
	}
	return &Store{
		TrailLength: trailLength,
		MaxDistance: maxDistance,
		MaxStale:    maxStale,
	}, nil
}

// Update associates one frame of centroids with the existing tracks.
//
// Matched tracks get the centroid appended. Unmatched centroids open new
// tracks at the end of the slot list. Unmatched tracks age and are dropped
// once they have missed more than MaxStale frames.
//
// Returns the track ID assigned to each centroid, in input order.
func (s *Store) Update(centroids []r2.Vec) []int {
	s.frames++

	var candidates []candidate
	for slot, track := range s.tracks {
		last, ok := track.Trail.Last()
		if !ok {
			continue
		}
		for blob, c := range centroids {
			d := r2.Norm(r2.Sub(c, last))
			if d <= s.MaxDistance {
				candidates = append(candidates, candidate{distance: d, slot: slot, blob: blob})
			}
		}
	}
	slices.SortFunc(candidates, func(a, b candidate) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		case a.slot != b.slot:
			return a.slot - b.slot
		default:
			return a.blob - b.blob
		}
	})

	ids := make([]int, len(centroids))
	matchedSlot := make([]bool, len(s.tracks))
	matchedBlob := make([]bool, len(centroids))
	for _, c := range candidates {
		if matchedSlot[c.slot] || matchedBlob[c.blob] {
			continue
		}
		matchedSlot[c.slot] = true
		matchedBlob[c.blob] = true

		track := s.tracks[c.slot]
		track.Trail.Append(centroids[c.blob])
		track.Missed = 0
		track.Hits++
		ids[c.blob] = track.ID
	}

	// Age before opening new tracks so new ones start fresh.
	kept := s.tracks[:0]
	for slot, track := range s.tracks {
		if !matchedSlot[slot] {
			track.Missed++
			if track.Missed > s.MaxStale {
				continue
			}
		}
		kept = append(kept, track)
	}
	clear(s.tracks[len(kept):])
	s.tracks = kept

	for blob, c := range centroids {
		if matchedBlob[blob] {
			continue
		}
		track := &Track{ID: s.nextID, Trail: NewTrail(s.TrailLength), Hits: 1}
		s.nextID++
		track.Trail.Append(c)
		s.tracks = append(s.tracks, track)
		ids[blob] = track.ID
	}
	return ids
}

// Tracks returns the live tracks in slot order. The slice is a copy, the
// tracks are not.
func (s *Store) Tracks() []*Track {
	return slices.Clone(s.tracks)
}

// Trails returns the point history of every live track in slot order.
func (s *Store) Trails() [][]r2.Vec {
	out := make([][]r2.Vec, len(s.tracks))
	for i, t := range s.tracks {
		out[i] = t.Trail.Points()
	}
	return out
}

// Len returns the number of live tracks.
func (s *Store) Len() int {
	return len(s.tracks)
}

// Frames returns the number of Update calls since creation or Reset.
func (s *Store) Frames() int {
	return s.frames
}

// Reset drops every track. IDs keep increasing.
func (s *Store) Reset() {
	clear(s.tracks)
	s.tracks = s.tracks[:0]
	s.frames = 0
}
