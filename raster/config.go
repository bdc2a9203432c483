package raster

import (
	"fmt"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Normalization selects how keypoint coordinates are mapped onto the grid.
type Normalization string

const (
	// NormalizeBounds maps a fixed coordinate space shared by every frame.
	NormalizeBounds Normalization = "bounds"
	// NormalizeSkeleton fits each frame's bounding box with an aspect
	// preserving scale, centred on the grid.
	NormalizeSkeleton Normalization = "skeleton"
)

// Defaults.
const (
	DefaultMatrixSize   = 32
	DefaultVerticalCrop = 10
	DefaultKernelSize   = 2
	DefaultIntensity    = 1.0
)

// Config describes the grid a frame is drawn on.
type Config struct {
	MatrixSize   int
	VerticalCrop int
	UseDilation  bool
	KernelSize   int
	Intensity    float64
	Mode         Normalization

	// Fixed coordinate space for NormalizeBounds.
	MinX, MaxX float64
	MinY, MaxY float64
}

// DefaultConfig returns a 32-wide grid with the bottom 10 rows cropped,
// no dilation and a [0,1]×[0,1] coordinate space.
func DefaultConfig() Config {
	return Config{
		MatrixSize:   DefaultMatrixSize,
		VerticalCrop: DefaultVerticalCrop,
		KernelSize:   DefaultKernelSize,
		Intensity:    DefaultIntensity,
		Mode:         NormalizeBounds,
		MaxX:         1,
		MaxY:         1,
	}
}

// Validate checks the grid parameters.
func (c Config) Validate() error {
	if c.MatrixSize < 1 {
		return errors.NewValidationError("matrix_size", "must be positive", c.MatrixSize)
	}
	if c.VerticalCrop < 0 || c.VerticalCrop >= c.MatrixSize {
		return errors.NewValidationError("vertical_crop", fmt.Sprintf("must be in [0, %d)", c.MatrixSize), c.VerticalCrop)
	}
	if c.UseDilation && c.KernelSize < 1 {
		return errors.NewValidationError("kernel_size", "must be positive when dilation is enabled", c.KernelSize)
	}
	if !(c.Intensity > 0 && c.Intensity <= 1) {
		return errors.NewValidationError("intensity", "must be in (0, 1]", c.Intensity)
	}
	switch c.Mode {
	case NormalizeBounds:
		if !(c.MaxX > c.MinX) || !(c.MaxY > c.MinY) {
			return errors.NewValidationError("normalization",
				"bounds must satisfy min < max on both axes",
				fmt.Sprintf("[%g,%g]x[%g,%g]", c.MinX, c.MaxX, c.MinY, c.MaxY))
		}
	case NormalizeSkeleton:
	default:
		return errors.NewValidationError("normalization.mode", "must be bounds or skeleton", string(c.Mode))
	}
	return nil
}

// Shape returns (rows, cols) of every matrix produced with this config.
func (c Config) Shape() (int, int) {
	return c.MatrixSize - c.VerticalCrop, c.MatrixSize
}
