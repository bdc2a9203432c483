package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/YuminosukeSato/posegrid/config"
	"github.com/YuminosukeSato/posegrid/raster"
)

// Key identifies a dataset by every parameter that changes its content.
// Two keys with the same Name produce the same dataset.
type Key struct {
	InterpolationFrames int
	NoiseFrames         int
	UsedKeypoints       []string
	MatrixSize          int
	VerticalCrop        int
	UseDilation         bool
	KernelSize          int
	MinScore            float64
	KeepOrigin          bool
	Normalization       config.Normalization
}

// KeyFor derives the key of a pipeline configuration.
func KeyFor(p config.Pipeline) Key {
	return Key{
		InterpolationFrames: p.InterpolationFrames,
		NoiseFrames:         p.NoiseFrames,
		UsedKeypoints:       append([]string(nil), p.UsedKeypoints...),
		MatrixSize:          p.MatrixSize,
		VerticalCrop:        p.VerticalCrop,
		UseDilation:         p.UseDilation,
		KernelSize:          p.KernelSize,
		MinScore:            p.MinScore,
		KeepOrigin:          p.KeepOrigin,
		Normalization:       p.Normalization,
	}
}

// Name is the storage name of the key:
//
//	interpolation_<i>_noise_<n>_keypoints_<hash>_matrix_size_<m>[_crop_<c>][_dilation_<k>][_opts_<hash>]
//
// The keypoint hash is taken over the sorted keypoints, so the order they are
// configured in does not matter. Optional suffixes only appear for
// non-default values.
func (k Key) Name() string {
	var b strings.Builder
	fmt.Fprintf(&b, "interpolation_%d_noise_%d_keypoints_%s_matrix_size_%d",
		k.InterpolationFrames, k.NoiseFrames, k.keypointsHash(), k.MatrixSize)
	if k.VerticalCrop != raster.DefaultVerticalCrop {
		fmt.Fprintf(&b, "_crop_%d", k.VerticalCrop)
	}
	if k.UseDilation {
		fmt.Fprintf(&b, "_dilation_%d", k.KernelSize)
	}
	if opts := k.options(); opts != "" {
		fmt.Fprintf(&b, "_opts_%s", shortHash(opts, 8))
	}
	return b.String()
}

// Equal reports whether k and o select the same dataset.
func (k Key) Equal(o Key) bool {
	return k.Name() == o.Name()
}

// String implements fmt.Stringer.
func (k Key) String() string { return k.Name() }

func (k Key) keypointsHash() string {
	sorted := append([]string(nil), k.UsedKeypoints...)
	sort.Strings(sorted)
	return shortHash(strings.Join(sorted, ","), 12)
}

// options canonicalizes the parameters that rarely change; empty when all
// are at their defaults.
func (k Key) options() string {
	def := config.Default().Pipeline
	n := k.Normalization
	if k.MinScore == def.MinScore && n == def.Normalization && k.KeepOrigin == def.KeepOrigin {
		return ""
	}
	if n.Mode == string(raster.NormalizeSkeleton) {
		// bounds are unused in skeleton mode
		n.MinX, n.MaxX, n.MinY, n.MaxY = 0, 0, 0, 0
	}
	s := fmt.Sprintf("min_score=%g;mode=%s;bounds=%g,%g,%g,%g",
		k.MinScore, n.Mode, n.MinX, n.MaxX, n.MinY, n.MaxY)
	if k.KeepOrigin {
		s += ";keep_origin"
	}
	return s
}

func shortHash(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}
