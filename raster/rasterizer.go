// Package raster draws conditioned keypoint frames onto fixed-size intensity
// grids.
package raster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/core/parallel"
	"github.com/YuminosukeSato/posegrid/keypoint"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/preprocessing"
)

// Rasterizer converts keypoint frames into (MatrixSize−VerticalCrop)×MatrixSize
// matrices with values in [0,1]. Coordinates are placed on the full
// MatrixSize square; keypoints in the bottom VerticalCrop rows are dropped.
type Rasterizer struct {
	cfg     Config
	rows    int
	cols    int
	workers int
	bounds  *preprocessing.CoordinateScaler // nil in skeleton mode
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithWorkers sets how many goroutines RasterizeAll splits frames across.
// Values < 1 mean one per CPU. The default is 1.
func WithWorkers(n int) Option {
	return func(r *Rasterizer) {
		r.workers = n
	}
}

// New validates cfg and returns a Rasterizer.
func New(cfg Config, opts ...Option) (*Rasterizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Rasterizer{cfg: cfg, workers: 1}
	for _, opt := range opts {
		opt(r)
	}
	r.rows, r.cols = cfg.Shape()
	if cfg.Mode == NormalizeBounds {
		r.bounds = preprocessing.NewCoordinateScaler(false)
		if err := r.bounds.FitBounds(cfg.MinX, cfg.MaxX, cfg.MinY, cfg.MaxY); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Config returns the configuration the rasterizer was built with.
func (r *Rasterizer) Config() Config { return r.cfg }

// Shape returns (rows, cols) of the produced matrices.
func (r *Rasterizer) Shape() (int, int) { return r.rows, r.cols }

// Rasterize draws one frame. Every keypoint must be valid.
func (r *Rasterizer) Rasterize(f keypoint.Frame) (*mat.Dense, error) {
	if n := f.MissingCount(); n > 0 {
		return nil, errors.NewValidationError("frame", "contains missing keypoints", n)
	}
	if f.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "raster.Rasterize")
	}

	scaler := r.bounds
	if scaler == nil {
		pts := f.Points()
		coords := mat.NewDense(len(pts), 2, nil)
		for i, p := range pts {
			coords.Set(i, 0, p.X)
			coords.Set(i, 1, p.Y)
		}
		scaler = preprocessing.NewCoordinateScaler(true)
		if err := scaler.Fit(coords); err != nil {
			return nil, err
		}
	}

	m := mat.NewDense(r.rows, r.cols, nil)
	for i := 0; i < f.Len(); i++ {
		p := f.At(i)
		u, v := scaler.TransformPoint(p.X, p.Y)
		row := cell(v, r.cfg.MatrixSize)
		if row >= r.rows {
			// 切り取られた下端の帯
			continue
		}
		m.Set(row, cell(u, r.cfg.MatrixSize), r.cfg.Intensity)
	}
	if r.cfg.UseDilation {
		m = Dilate(m, r.cfg.KernelSize)
	}
	return m, nil
}

// RasterizeAll draws every frame. out[i] is the matrix of frames[i]; on
// failure the error of the lowest failing frame is returned.
func (r *Rasterizer) RasterizeAll(frames []keypoint.Frame) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, len(frames))
	errs := make([]error, len(frames))
	parallel.Parallelize(len(frames), r.workers, func(start, end int) {
		for i := start; i < end; i++ {
			out[i], errs[i] = r.Rasterize(frames[i])
		}
	})
	for i, err := range errs {
		if err != nil {
			return nil, errors.Wrapf(err, "frame %d", i)
		}
	}
	return out, nil
}

// cell maps a normalized coordinate onto [0, n-1], clipping outliers.
func cell(v float64, n int) int {
	return int(math.Round(errors.ClipValue(v, 0, 1) * float64(n-1)))
}
