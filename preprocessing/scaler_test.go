package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestCoordinateScalerBounds(t *testing.T) {
	s := NewCoordinateScaler(false)
	require.NoError(t, s.FitBounds(0, 1920, 0, 1080))
	assert.True(t, s.IsFitted())

	tests := []struct {
		x, y, u, v float64
	}{
		{0, 0, 0, 0},
		{1920, 1080, 1, 1},
		{960, 540, 0.5, 0.5},
		{480, 810, 0.25, 0.75},
	}
	for _, tt := range tests {
		u, v := s.TransformPoint(tt.x, tt.y)
		assert.InDelta(t, tt.u, u, 1e-12)
		assert.InDelta(t, tt.v, v, 1e-12)
	}
}

func TestCoordinateScalerBoundsValidation(t *testing.T) {
	s := NewCoordinateScaler(false)
	assert.Error(t, s.FitBounds(1, 1, 0, 1))
	assert.Error(t, s.FitBounds(0, 1, 2, 1))
	assert.Error(t, s.FitBounds(0, math.Inf(1), 0, 1))
	assert.False(t, s.IsFitted())
}

func TestCoordinateScalerFit(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		10, 100,
		20, 150,
		30, 200,
	})

	s := NewCoordinateScaler(false)
	out, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.5, out.At(1, 0), 1e-12)
	assert.InDelta(t, 1.0, out.At(2, 1), 1e-12)
}

func TestCoordinateScalerUniformKeepsAspect(t *testing.T) {
	// 幅20, 高さ100 の骨格
	X := mat.NewDense(2, 2, []float64{
		10, 100,
		30, 200,
	})

	s := NewCoordinateScaler(true)
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	// y はそのまま [0,1]、x は 0.1 幅で中央寄せ
	assert.InDelta(t, 0.0, out.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, out.At(1, 1), 1e-12)
	assert.InDelta(t, 0.4, out.At(0, 0), 1e-12)
	assert.InDelta(t, 0.6, out.At(1, 0), 1e-12)
}

func TestCoordinateScalerSinglePoint(t *testing.T) {
	for _, uniform := range []bool{true, false} {
		s := NewCoordinateScaler(uniform)
		out, err := s.FitTransform(mat.NewDense(1, 2, []float64{7, 9}))
		require.NoError(t, err)
		assert.InDelta(t, 0.5, out.At(0, 0), 1e-12)
		assert.InDelta(t, 0.5, out.At(0, 1), 1e-12)
	}
}

func TestCoordinateScalerErrors(t *testing.T) {
	s := NewCoordinateScaler(false)
	_, err := s.Transform(mat.NewDense(1, 2, nil))
	assert.Error(t, err, "not fitted")

	assert.Error(t, s.Fit(mat.NewDense(2, 3, nil)))
	require.NoError(t, s.FitBounds(0, 1, 0, 1))
	_, err = s.Transform(mat.NewDense(2, 3, nil))
	assert.Error(t, err)
	assert.Contains(t, s.String(), "uniform=false")
}
