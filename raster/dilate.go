package raster

import "gonum.org/v1/gonum/mat"

// Dilate applies one iteration of grey-level dilation with an all-ones k×k
// kernel anchored at (k/2, k/2). Each output cell is the maximum of the input
// cells at offsets [-k/2, k-1-k/2] on both axes; cells outside the matrix are
// ignored. src is not modified.
func Dilate(src *mat.Dense, k int) *mat.Dense {
	rows, cols := src.Dims()
	dst := mat.NewDense(rows, cols, nil)
	if k <= 1 {
		dst.Copy(src)
		return dst
	}
	anchor := k / 2
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			best := src.At(r, c)
			for dr := -anchor; dr < k-anchor; dr++ {
				rr := r + dr
				if rr < 0 || rr >= rows {
					continue
				}
				for dc := -anchor; dc < k-anchor; dc++ {
					cc := c + dc
					if cc < 0 || cc >= cols {
						continue
					}
					if v := src.At(rr, cc); v > best {
						best = v
					}
				}
			}
			dst.Set(r, c, best)
		}
	}
	return dst
}
