package conditioner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/posegrid/keypoint"
)

var m = keypoint.Missing

// sequence builds a two-keypoint sequence from per-frame points.
func sequence(t *testing.T, frames ...[2]keypoint.Point) keypoint.Sequence {
	t.Helper()
	set, err := keypoint.NewSet("a", "b")
	require.NoError(t, err)
	seq := keypoint.Sequence{Source: "test", Set: set}
	for _, pts := range frames {
		f, err := keypoint.NewFrame(set, pts[:])
		require.NoError(t, err)
		seq.Frames = append(seq.Frames, f)
	}
	return seq
}

func pt(x, y float64) keypoint.Point { return keypoint.Point{X: x, Y: y} }

func complete(n int) [][2]keypoint.Point {
	out := make([][2]keypoint.Point, n)
	for i := range out {
		out[i] = [2]keypoint.Point{pt(float64(i), 1), pt(1, float64(i))}
	}
	return out
}

func TestNewValidation(t *testing.T) {
	_, err := New(-1, 2)
	assert.Error(t, err)
	_, err = New(1, -2)
	assert.Error(t, err)
	c, err := New(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, c.NoiseFrames)
	assert.Equal(t, 2, c.InterpolationFrames)
}

func TestNoiseFramesTrimmed(t *testing.T) {
	c, _ := New(1, 1)
	res, err := c.Condition(sequence(t, complete(10)...))
	require.NoError(t, err)

	assert.Equal(t, 8, res.Len())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, res.Kept)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, 0, res.Interpolated)
}

func TestSequenceShorterThanNoise(t *testing.T) {
	c, _ := New(3, 1)
	for _, n := range []int{0, 3, 6} {
		res, err := c.Condition(sequence(t, complete(n)...))
		require.NoError(t, err)
		assert.Equal(t, 0, res.Len(), "n=%d", n)
	}
}

func TestInterpolatesInteriorGap(t *testing.T) {
	frames := complete(6)
	// keypoint a missing at 2 and 3, anchors at 1 (x=1) and 4 (x=4)
	frames[2][0] = m
	frames[3][0] = m
	c, _ := New(0, 2)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	require.Equal(t, 6, res.Len())
	assert.Equal(t, 2, res.Interpolated)

	a2, _ := res.Frames[2].Point("a")
	a3, _ := res.Frames[3].Point("a")
	assert.InDelta(t, 2.0, a2.X, 1e-12)
	assert.InDelta(t, 3.0, a3.X, 1e-12)
	assert.InDelta(t, 1.0, a2.Y, 1e-12)
}

func TestGapWiderThanWindowIsDropped(t *testing.T) {
	frames := complete(7)
	frames[2][0] = m
	frames[3][0] = m
	frames[4][0] = m
	// frame 3 is 2 away from both anchors (1 and 5); frames 2 and 4 are 1 and 3 away.
	c, _ := New(0, 2)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 4}, res.Dropped)
	assert.Equal(t, []int{0, 1, 3, 5, 6}, res.Kept)
	for _, f := range res.Frames {
		assert.True(t, f.Complete())
	}
	a3, _ := res.Frames[2].Point("a")
	assert.InDelta(t, 3.0, a3.X, 1e-12)
}

// Leading and trailing gaps have only one anchor; they are dropped rather than
// extrapolated.
func TestEdgeGapsAreDroppedNotExtrapolated(t *testing.T) {
	frames := complete(6)
	frames[0][1] = m
	frames[5][0] = m
	c, _ := New(0, 5)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 5}, res.Dropped)
	assert.Equal(t, 4, res.Len())
}

func TestZeroWindowDropsEveryGap(t *testing.T) {
	frames := complete(5)
	frames[2][1] = m
	c, _ := New(0, 0)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, res.Dropped)
	assert.Equal(t, 0, res.Interpolated)
}

func TestKeypointNeverDetected(t *testing.T) {
	frames := complete(4)
	for i := range frames {
		frames[i][1] = m
	}
	c, _ := New(0, 3)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, []int{0, 1, 2, 3}, res.Dropped)
}

// Anchors come from the trimmed sequence only: a sample inside the noise band
// must not be used.
func TestNoiseFramesAreNotAnchors(t *testing.T) {
	frames := complete(6)
	frames[2][0] = m
	frames[1][0] = pt(100, 1)
	frames[3][0] = m
	c, _ := New(2, 3)

	// trimmed = original 2,3: both missing a, no anchors
	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Len())
	assert.Equal(t, []int{2, 3}, res.Dropped)
}

func TestConditionedFramesHaveNoSentinel(t *testing.T) {
	frames := complete(20)
	for i := 0; i < 20; i += 3 {
		frames[i][i%2] = m
	}
	c, _ := New(1, 1)

	res, err := c.Condition(sequence(t, frames...))
	require.NoError(t, err)
	assert.Equal(t, len(res.Frames), len(res.Kept))
	assert.Equal(t, 18, len(res.Kept)+len(res.Dropped))
	for _, f := range res.Frames {
		assert.Equal(t, 0, f.MissingCount())
	}
}

func TestInputNotModified(t *testing.T) {
	frames := complete(3)
	frames[1][0] = m
	seq := sequence(t, frames...)
	c, _ := New(0, 1)

	_, err := c.Condition(seq)
	require.NoError(t, err)
	a, _ := seq.Frames[1].Point("a")
	assert.False(t, a.Valid())
}
