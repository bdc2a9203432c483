package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func smallDataset() *Dataset {
	m := func(v ...float64) *mat.Dense { return mat.NewDense(2, 2, v) }
	return &Dataset{
		Data:    []*mat.Dense{m(1, 0, 0, 0), m(0, 1, 0, 0), m(0, 0, 1, 0)},
		Labels:  []int{0, 1, 1},
		Classes: []string{"sit", "stand"},
	}
}

func TestDatasetValidate(t *testing.T) {
	require.NoError(t, smallDataset().Validate())
	require.NoError(t, (&Dataset{}).Validate())

	tests := []struct {
		name   string
		mutate func(*Dataset)
	}{
		{"length mismatch", func(d *Dataset) { d.Labels = d.Labels[:2] }},
		{"label out of range", func(d *Dataset) { d.Labels[2] = 2 }},
		{"negative label", func(d *Dataset) { d.Labels[0] = -1 }},
		{"nil matrix", func(d *Dataset) { d.Data[1] = nil }},
		{"shape mismatch", func(d *Dataset) { d.Data[1] = mat.NewDense(3, 2, nil) }},
		{"NaN", func(d *Dataset) { d.Data[0].Set(0, 0, math.NaN()) }},
		{"above one", func(d *Dataset) { d.Data[0].Set(0, 0, 2) }},
		{"stats classes", func(d *Dataset) { d.Stats.FramesPerClass = []int{1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := smallDataset()
			tt.mutate(d)
			assert.Error(t, d.Validate())
		})
	}
}

func TestDatasetShapeAndCounts(t *testing.T) {
	d := smallDataset()
	r, c := d.Shape()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []int{1, 2}, d.ClassCounts())

	r, c = (&Dataset{}).Shape()
	assert.Zero(t, r)
	assert.Zero(t, c)
}

func TestDatasetEqual(t *testing.T) {
	a, b := smallDataset(), smallDataset()
	assert.True(t, a.Equal(b))

	b.Stats.Files = 9
	assert.True(t, a.Equal(b), "stats are ignored")

	b.Labels[0] = 1
	assert.False(t, a.Equal(b))

	b = smallDataset()
	b.Data[2].Set(1, 1, 0.5)
	assert.False(t, a.Equal(b))

	b = smallDataset()
	b.Classes[1] = "walk"
	assert.False(t, a.Equal(b))

	var nilDS *Dataset
	assert.False(t, a.Equal(nilDS))
	assert.True(t, nilDS.Equal(nil))
}

func TestDatasetFlatten(t *testing.T) {
	d := smallDataset()

	all := d.Flatten(nil)
	r, c := all.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 4, c)
	assert.Equal(t, []float64{0, 0, 1, 0}, all.RawRowView(2))

	some := d.Flatten([]int{2, 0})
	assert.Equal(t, []float64{0, 0, 1, 0}, some.RawRowView(0))
	assert.Equal(t, []float64{1, 0, 0, 0}, some.RawRowView(1))

	empty := d.Flatten([]int{})
	assert.True(t, empty.IsEmpty())
}
