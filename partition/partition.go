// Package partition splits a dataset into train, validation and test views.
//
// 分割はインデックスの順列に基づき、行列はコピーしません。
// シードを指定しない場合は毎回新しい乱数で分割します。
package partition

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/dataset"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/pkg/log"
)

// floorEps absorbs representation error so that e.g. 80·(1/80) floors to 1.
const floorEps = 1e-9

// Ratios は分割比率
//
// train = ⌊n·Train⌋, validation = ⌊(n−train)·ValidationShare⌋, test = 残り
type Ratios struct {
	Train           float64
	ValidationShare float64
}

// LegacyRatios は従来の比率（trainはn/80、残りを半分ずつ）
// 使用すると確認を求める警告が出る
func LegacyRatios() Ratios {
	return Ratios{Train: 1.0 / 80, ValidationShare: 0.5}
}

// Validate は比率を検証する
func (r Ratios) Validate() error {
	if !(r.Train >= 0 && r.Train <= 1) {
		return errors.NewValidationError("train", "must be in [0, 1]", r.Train)
	}
	if !(r.ValidationShare >= 0 && r.ValidationShare <= 1) {
		return errors.NewValidationError("validation_share", "must be in [0, 1]", r.ValidationShare)
	}
	return nil
}

// Sizes returns the split sizes for n samples. They always sum to n.
func (r Ratios) Sizes(n int) (train, validation, test int) {
	train = int(math.Floor(float64(n)*r.Train + floorEps))
	if train > n {
		train = n
	}
	validation = int(math.Floor(float64(n-train)*r.ValidationShare + floorEps))
	if validation > n-train {
		validation = n - train
	}
	return train, validation, n - train - validation
}

type options struct {
	seed   uint64
	seeded bool
	logger log.Logger
}

// Option configures a split.
type Option func(*options)

// WithSeed makes the split reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Partitioned is a dataset with three disjoint views that together cover
// every sample.
type Partitioned struct {
	Dataset     *dataset.Dataset
	Permutation []int
	Train       View
	Validation  View
	Test        View
}

// Split shuffles the samples and cuts the permutation by r.
func Split(ds *dataset.Dataset, r Ratios, opts ...Option) (*Partitioned, error) {
	o, rng, err := prepare(ds, r, opts)
	if err != nil {
		return nil, err
	}
	n := ds.Len()
	perm := rng.Perm(n)
	train, val, _ := r.Sizes(n)
	p := newPartitioned(ds, perm, perm[:train], perm[train:train+val], perm[train+val:])
	p.log(o.logger, "dataset split")
	return p, nil
}

// StratifiedSplit applies r within each class, so every view keeps the class
// proportions up to rounding.
func StratifiedSplit(ds *dataset.Dataset, r Ratios, opts ...Option) (*Partitioned, error) {
	o, rng, err := prepare(ds, r, opts)
	if err != nil {
		return nil, err
	}

	byClass := make(map[int][]int)
	for i, l := range ds.Labels {
		byClass[l] = append(byClass[l], i)
	}
	labels := make([]int, 0, len(byClass))
	for l := range byClass {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	var train, val, test []int
	for _, l := range labels {
		idx := byClass[l]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		tr, va, _ := r.Sizes(len(idx))
		train = append(train, idx[:tr]...)
		val = append(val, idx[tr:tr+va]...)
		test = append(test, idx[tr+va:]...)
	}
	for _, part := range [][]int{train, val, test} {
		rng.Shuffle(len(part), func(i, j int) { part[i], part[j] = part[j], part[i] })
	}

	perm := make([]int, 0, ds.Len())
	perm = append(perm, train...)
	perm = append(perm, val...)
	perm = append(perm, test...)
	nt, nv := len(train), len(val)
	p := newPartitioned(ds, perm, perm[:nt], perm[nt:nt+nv], perm[nt+nv:])
	p.log(o.logger, "dataset split (stratified)")
	return p, nil
}

func prepare(ds *dataset.Dataset, r Ratios, opts []Option) (*options, *rand.Rand, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, nil, errors.Wrap(errors.ErrEmptyData, "partition")
	}
	if err := r.Validate(); err != nil {
		return nil, nil, err
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("partition")
	}
	if r == LegacyRatios() {
		errors.Warn(errors.NewSplitRatioWarning(r.Train, r.ValidationShare,
			"legacy ratio trains on n/80 samples; confirm the intended split with the product owner"))
	}

	seed := o.seed
	if !o.seeded {
		seed = rand.Uint64()
	}
	o.logger.Debug("split seed", log.RandomSeedKey, seed, log.PhaseKey, log.PhasePartitioning)
	return o, rand.New(rand.NewPCG(seed, seed)), nil
}

func newPartitioned(ds *dataset.Dataset, perm, train, val, test []int) *Partitioned {
	return &Partitioned{
		Dataset:     ds,
		Permutation: perm,
		Train:       View{ds: ds, idx: train},
		Validation:  View{ds: ds, idx: val},
		Test:        View{ds: ds, idx: test},
	}
}

func (p *Partitioned) log(logger log.Logger, msg string) {
	logger.Info(msg,
		log.OperationKey, log.OperationSplit,
		log.SamplesKey, p.Dataset.Len(),
		log.TrainKey, p.Train.Len(),
		log.ValidationKey, p.Validation.Len(),
		log.TestKey, p.Test.Len(),
	)
}

// View is an index-based subset of a dataset.
type View struct {
	ds  *dataset.Dataset
	idx []int
}

// Len returns the number of samples in the view.
func (v View) Len() int { return len(v.idx) }

// Indices returns the dataset indices of the view.
func (v View) Indices() []int { return append([]int(nil), v.idx...) }

// Labels returns the label of every sample in view order.
func (v View) Labels() []int {
	out := make([]int, len(v.idx))
	for k, i := range v.idx {
		out[k] = v.ds.Labels[i]
	}
	return out
}

// Class returns the class folder name of the k-th sample.
func (v View) Class(k int) string { return v.ds.Classes[v.ds.Labels[v.idx[k]]] }

// Matrix returns the k-th matrix of the view. It is shared with the dataset
// and must not be modified.
func (v View) Matrix(k int) *mat.Dense { return v.ds.Data[v.idx[k]] }

// Matrices returns the matrices of the view in order.
func (v View) Matrices() []*mat.Dense {
	out := make([]*mat.Dense, len(v.idx))
	for k, i := range v.idx {
		out[k] = v.ds.Data[i]
	}
	return out
}

// Flatten returns an n×(rows·cols) matrix with one sample per row, the layout
// classifiers consume.
func (v View) Flatten() *mat.Dense {
	idx := make([]int, len(v.idx))
	copy(idx, v.idx)
	return v.ds.Flatten(idx)
}

// ClassCounts returns the number of samples per label in the view.
func (v View) ClassCounts() []int {
	counts := make([]int, len(v.ds.Classes))
	for _, i := range v.idx {
		counts[v.ds.Labels[i]]++
	}
	return counts
}
