// Package preview renders frame matrices as grey heat maps for visual
// inspection.
package preview

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/posegrid/partition"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Size is the edge length of a saved image.
const Size = 4 * vg.Inch

// greyLevels is the number of shades between black (0) and white (1).
const greyLevels = 256

type grey struct{}

func (grey) Colors() []color.Color {
	out := make([]color.Color, greyLevels)
	for i := range out {
		out[i] = color.Gray{Y: uint8(i)}
	}
	return out
}

// grid adapts a matrix to plotter.GridXYZ with row 0 at the top.
type grid struct {
	m mat.Matrix
}

func (g grid) Dims() (c, r int) {
	r, c = g.m.Dims()
	return c, r
}

func (g grid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return -float64(r) }

// SaveFrame writes m as an image to path; the format follows the extension
// (.png, .svg, .pdf, ...).
func SaveFrame(m mat.Matrix, title, path string) error {
	r, c := m.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "preview.SaveFrame")
	}

	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	hm := plotter.NewHeatMap(grid{m: m}, grey{})
	hm.Min, hm.Max = 0, 1
	p.Add(hm)

	if err := p.Save(Size, Size, path); err != nil {
		return errors.Wrapf(err, "save preview %s", path)
	}
	return nil
}

// SaveSample writes the first n frames of v into dir, titled with their class,
// and returns the written paths.
func SaveSample(v partition.View, n int, dir string) ([]string, error) {
	if n > v.Len() {
		n = v.Len()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create preview dir %s", dir)
	}
	labels := v.Labels()
	paths := make([]string, 0, n)
	for k := 0; k < n; k++ {
		path := filepath.Join(dir, fmt.Sprintf("sample_%03d_label_%d.png", k, labels[k]))
		title := fmt.Sprintf("%s (label %d)", v.Class(k), labels[k])
		if err := SaveFrame(v.Matrix(k), title, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
