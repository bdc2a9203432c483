// Package keypoint defines per-frame keypoint coordinates and parses them from
// motion-capture XML exports.
package keypoint

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Point is a 2D keypoint coordinate in the capture tool's coordinate space.
type Point struct {
	X, Y float64
}

// Missing is the sentinel for a keypoint that was not detected in a frame.
var Missing = Point{X: math.NaN(), Y: math.NaN()}

// Valid reports whether p is a real coordinate rather than Missing.
func (p Point) Valid() bool {
	return errors.IsFinite(p.X) && errors.IsFinite(p.Y)
}

// Set is an ordered set of keypoint identifiers ("used keypoints").
// The order is the order frames store their points in.
type Set struct {
	names []string
	index map[string]int
}

// NewSet builds a Set, rejecting an empty list, empty names and duplicates.
func NewSet(names ...string) (Set, error) {
	if len(names) == 0 {
		return Set{}, errors.NewValidationError("used_keypoints", "must not be empty", names)
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return Set{}, errors.NewValidationError("used_keypoints", "keypoint name must not be empty", names)
		}
		if _, dup := index[name]; dup {
			return Set{}, errors.NewValidationError("used_keypoints", "duplicate keypoint "+name, names)
		}
		index[name] = i
	}
	return Set{names: append([]string(nil), names...), index: index}, nil
}

// Len returns the number of keypoints in the set.
func (s Set) Len() int { return len(s.names) }

// Names returns the keypoints in set order.
func (s Set) Names() []string { return append([]string(nil), s.names...) }

// Index returns the position of name in the set.
func (s Set) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Canonical returns the keypoints sorted by name. Two sets with equal
// canonical forms select the same keypoints.
func (s Set) Canonical() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}

// Frame maps every keypoint of a Set to a Point (or Missing) for one time step.
// Frames are immutable; accessors return copies.
type Frame struct {
	set    Set
	points []Point
}

// NewFrame creates a frame; points must be in set order.
func NewFrame(set Set, points []Point) (Frame, error) {
	if len(points) != set.Len() {
		return Frame{}, errors.NewDimensionError("keypoint.NewFrame", set.Len(), len(points), 1)
	}
	return Frame{set: set, points: append([]Point(nil), points...)}, nil
}

// Len returns the number of keypoints in the frame.
func (f Frame) Len() int { return len(f.points) }

// Set returns the keypoint set the frame was built for.
func (f Frame) Set() Set { return f.set }

// At returns the i-th point in set order.
func (f Frame) At(i int) Point { return f.points[i] }

// Point returns the point of the named keypoint.
func (f Frame) Point(name string) (Point, bool) {
	i, ok := f.set.Index(name)
	if !ok {
		return Point{}, false
	}
	return f.points[i], true
}

// Points returns a copy of all points in set order.
func (f Frame) Points() []Point { return append([]Point(nil), f.points...) }

// Complete reports whether every keypoint has a valid coordinate.
func (f Frame) Complete() bool {
	for _, p := range f.points {
		if !p.Valid() {
			return false
		}
	}
	return true
}

// MissingCount returns the number of Missing keypoints.
func (f Frame) MissingCount() int {
	n := 0
	for _, p := range f.points {
		if !p.Valid() {
			n++
		}
	}
	return n
}

// Sequence is one file's frames in temporal order.
type Sequence struct {
	Source string
	Set    Set
	Frames []Frame
}

// Len returns the number of frames.
func (s Sequence) Len() int { return len(s.Frames) }
