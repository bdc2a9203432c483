// Package dataset assembles labeled frame matrices from a directory of class
// folders.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Stats holds diagnostics gathered while building.
type Stats struct {
	// Files is the number of XML files processed.
	Files int
	// MinFrames is the smallest number of matrices produced by one file.
	MinFrames int
	// FramesPerClass is indexed by label.
	FramesPerClass []int
	// DroppedFrames counts frames removed for unrecoverable gaps.
	DroppedFrames int
	// Interpolated counts coordinates filled by interpolation.
	Interpolated int
}

// Dataset is a set of frame matrices with one integer label each.
// Data[i] carries Labels[i]; label l names the class folder Classes[l].
type Dataset struct {
	Data    []*mat.Dense
	Labels  []int
	Classes []string
	Stats   Stats
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return len(d.Data) }

// Shape returns (rows, cols) of the matrices, or (0, 0) for an empty dataset.
func (d *Dataset) Shape() (int, int) {
	if len(d.Data) == 0 {
		return 0, 0
	}
	return d.Data[0].Dims()
}

// Validate checks the structural invariants: parallel arrays, dense labels,
// one shape for every matrix and intensities in [0,1].
func (d *Dataset) Validate() error {
	if len(d.Data) != len(d.Labels) {
		return errors.NewDimensionError("dataset.Validate", len(d.Data), len(d.Labels), 0)
	}
	if len(d.Stats.FramesPerClass) != 0 && len(d.Stats.FramesPerClass) != len(d.Classes) {
		return errors.NewDimensionError("dataset.Validate stats", len(d.Classes), len(d.Stats.FramesPerClass), 0)
	}
	rows, cols := d.Shape()
	for i, m := range d.Data {
		if m == nil {
			return errors.Newf("sample %d: nil matrix", i)
		}
		if r, c := m.Dims(); r != rows || c != cols {
			return errors.Newf("sample %d: shape %dx%d, want %dx%d", i, r, c, rows, cols)
		}
		if err := errors.CheckMatrix(fmt.Sprintf("sample %d", i), m); err != nil {
			return err
		}
		if lo, hi := mat.Min(m), mat.Max(m); lo < 0 || hi > 1 {
			return errors.Newf("sample %d: intensity outside [0,1]: [%g,%g]", i, lo, hi)
		}
	}
	for i, l := range d.Labels {
		if l < 0 || l >= len(d.Classes) {
			return errors.Newf("sample %d: label %d outside [0,%d)", i, l, len(d.Classes))
		}
	}
	return nil
}

// ClassCounts returns the number of samples per label.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, len(d.Classes))
	for _, l := range d.Labels {
		if l >= 0 && l < len(counts) {
			counts[l]++
		}
	}
	return counts
}

// Equal reports whether two datasets hold the same classes, labels and
// matrices. Stats are not compared.
func (d *Dataset) Equal(o *Dataset) bool {
	if d == nil || o == nil {
		return d == o
	}
	if len(d.Data) != len(o.Data) || len(d.Classes) != len(o.Classes) {
		return false
	}
	for i := range d.Classes {
		if d.Classes[i] != o.Classes[i] {
			return false
		}
	}
	for i := range d.Data {
		if d.Labels[i] != o.Labels[i] || !mat.Equal(d.Data[i], o.Data[i]) {
			return false
		}
	}
	return true
}

// Flatten returns the samples selected by idx as rows of an n×(rows·cols)
// matrix in row-major order. A nil idx selects every sample.
func (d *Dataset) Flatten(idx []int) *mat.Dense {
	if idx == nil {
		idx = make([]int, len(d.Data))
		for i := range idx {
			idx[i] = i
		}
	}
	rows, cols := d.Shape()
	if len(idx) == 0 || rows*cols == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(len(idx), rows*cols, nil)
	for k, i := range idx {
		dst := out.RawRowView(k)
		src := d.Data[i]
		for r := 0; r < rows; r++ {
			copy(dst[r*cols:(r+1)*cols], src.RawRowView(r))
		}
	}
	return out
}
