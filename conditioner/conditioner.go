// Package conditioner turns raw keypoint sequences into sequences with a valid
// coordinate for every used keypoint in every frame.
//
// Conditioning drops NoiseFrames frames from both ends of a sequence, then fills
// each missing coordinate by linear interpolation between the nearest valid
// samples of the same keypoint, provided both lie within InterpolationFrames
// frames. A frame with a gap that cannot be filled that way is dropped. Values
// are never extrapolated past the first or last valid sample.
package conditioner

import (
	"gonum.org/v1/gonum/interp"

	"github.com/YuminosukeSato/posegrid/keypoint"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Conditioner holds the two conditioning parameters.
type Conditioner struct {
	NoiseFrames         int
	InterpolationFrames int
}

// New validates the parameters and returns a Conditioner.
func New(noiseFrames, interpolationFrames int) (*Conditioner, error) {
	if noiseFrames < 0 {
		return nil, errors.NewValidationError("noise_frames", "must be non-negative", noiseFrames)
	}
	if interpolationFrames < 0 {
		return nil, errors.NewValidationError("interpolation_frames", "must be non-negative", interpolationFrames)
	}
	return &Conditioner{NoiseFrames: noiseFrames, InterpolationFrames: interpolationFrames}, nil
}

// Result is a conditioned sequence plus what conditioning did to it.
type Result struct {
	// Frames are complete: every keypoint has a valid coordinate.
	Frames []keypoint.Frame

	// Kept holds the original frame index of each entry of Frames.
	Kept []int

	// Dropped holds the original indices of frames removed for unrecoverable
	// gaps. Noise frames are not listed.
	Dropped []int

	// Interpolated counts the coordinates filled by interpolation.
	Interpolated int
}

// Len returns the number of conditioned frames.
func (r Result) Len() int { return len(r.Frames) }

// Condition conditions one sequence. The input is not modified.
func (c *Conditioner) Condition(seq keypoint.Sequence) (Result, error) {
	n := seq.Len() - 2*c.NoiseFrames
	if n <= 0 {
		return Result{}, nil
	}
	trimmed := seq.Frames[c.NoiseFrames : c.NoiseFrames+n]

	k := seq.Set.Len()
	points := make([][]keypoint.Point, n)
	for i, f := range trimmed {
		if f.Len() != k {
			return Result{}, errors.NewDimensionError("conditioner.Condition", k, f.Len(), 1)
		}
		points[i] = f.Points()
	}

	drop := make([]bool, n)
	for j := 0; j < k; j++ {
		c.fillKeypoint(points, j, drop)
	}

	var res Result
	for i := 0; i < n; i++ {
		original := i + c.NoiseFrames
		if drop[i] {
			res.Dropped = append(res.Dropped, original)
			continue
		}
		frame, err := keypoint.NewFrame(seq.Set, points[i])
		if err != nil {
			return Result{}, err
		}
		res.Frames = append(res.Frames, frame)
		res.Kept = append(res.Kept, original)
		res.Interpolated += trimmed[i].MissingCount()
	}
	return res, nil
}

// fillKeypoint fills the gaps of keypoint j in place and marks frames whose gap
// cannot be filled. Only original samples are used as interpolation anchors.
func (c *Conditioner) fillKeypoint(points [][]keypoint.Point, j int, drop []bool) {
	n := len(points)
	var xs, px, py []float64
	missing := 0
	for i := 0; i < n; i++ {
		p := points[i][j]
		if !p.Valid() {
			missing++
			continue
		}
		xs = append(xs, float64(i))
		px = append(px, p.X)
		py = append(py, p.Y)
	}
	if missing == 0 {
		return
	}

	prev := make([]int, n)
	last := -1
	for i := 0; i < n; i++ {
		prev[i] = last
		if points[i][j].Valid() {
			last = i
		}
	}
	next := make([]int, n)
	last = -1
	for i := n - 1; i >= 0; i-- {
		next[i] = last
		if points[i][j].Valid() {
			last = i
		}
	}

	var lx, ly interp.PiecewiseLinear
	canInterpolate := len(xs) >= 2 && c.InterpolationFrames > 0
	if canInterpolate {
		// xs is strictly increasing by construction.
		if lx.Fit(xs, px) != nil || ly.Fit(xs, py) != nil {
			canInterpolate = false
		}
	}

	for i := 0; i < n; i++ {
		if points[i][j].Valid() {
			continue
		}
		p, q := prev[i], next[i]
		if !canInterpolate || p < 0 || q < 0 || i-p > c.InterpolationFrames || q-i > c.InterpolationFrames {
			drop[i] = true
			continue
		}
		x := float64(i)
		points[i][j] = keypoint.Point{X: lx.Predict(x), Y: ly.Predict(x)}
	}
}
