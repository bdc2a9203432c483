package dataset

import (
	"fmt"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/conditioner"
	"github.com/YuminosukeSato/posegrid/config"
	"github.com/YuminosukeSato/posegrid/core/parallel"
	"github.com/YuminosukeSato/posegrid/keypoint"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/pkg/log"
	"github.com/YuminosukeSato/posegrid/raster"
)

// Builder runs parse → condition → rasterize over every XML file under a
// root directory and assembles the results into a Dataset.
type Builder struct {
	root        string
	workers     int
	logger      log.Logger
	parser      *keypoint.Parser
	conditioner *conditioner.Conditioner
	rasterizer  *raster.Rasterizer
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWorkers sets the number of files processed concurrently.
// Values < 1 mean one per CPU; 1 processes files sequentially.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger log.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder validates p and prepares the per-file stages.
func NewBuilder(p config.Pipeline, root string, opts ...BuilderOption) (*Builder, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	set, err := p.KeypointSet()
	if err != nil {
		return nil, err
	}
	cond, err := conditioner.New(p.NoiseFrames, p.InterpolationFrames)
	if err != nil {
		return nil, err
	}
	ras, err := raster.New(p.Raster())
	if err != nil {
		return nil, err
	}

	b := &Builder{
		root:        root,
		parser:      keypoint.NewParser(set, p.ParserOptions()...),
		conditioner: cond,
		rasterizer:  ras,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.GetLoggerWithName("dataset.builder")
	}
	return b, nil
}

type task struct {
	label int
	path  string
}

type fileResult struct {
	matrices     []*mat.Dense
	dropped      int
	interpolated int
}

// Build processes every file and returns the dataset. Any failing file aborts
// the build; the error of the first failing file in (folder, file) order is
// returned and no partial dataset is produced.
func (b *Builder) Build() (*Dataset, error) {
	start := time.Now()

	classes, err := ClassFolders(b.root)
	if err != nil {
		return nil, err
	}
	var tasks []task
	for label, class := range classes {
		b.logger.Info("class folder mapped to label",
			log.ClassNameKey, class,
			log.LabelKey, label,
		)
		files, err := xmlFiles(filepath.Join(b.root, class), b.logger)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			tasks = append(tasks, task{label: label, path: f})
		}
	}

	workers := parallel.Workers(b.workers, len(tasks))
	b.logger.Debug("building dataset",
		log.OperationKey, log.OperationBuild,
		log.ClassesKey, len(classes),
		log.FilesKey, len(tasks),
		log.WorkersKey, workers,
	)

	results := make([]fileResult, len(tasks))
	err = parallel.ForEach(len(tasks), workers, func(i int) error {
		r, err := b.processFile(tasks[i].path)
		if err != nil {
			return err
		}
		results[i] = r
		return nil
	})
	if err != nil {
		b.logger.Error("dataset build aborted", err, log.OperationKey, log.OperationBuild)
		return nil, err
	}

	ds := &Dataset{
		Classes: classes,
		Stats: Stats{
			Files:          len(tasks),
			FramesPerClass: make([]int, len(classes)),
		},
	}
	for i, r := range results {
		label := tasks[i].label
		for _, m := range r.matrices {
			ds.Data = append(ds.Data, m)
			ds.Labels = append(ds.Labels, label)
		}
		n := len(r.matrices)
		ds.Stats.FramesPerClass[label] += n
		ds.Stats.DroppedFrames += r.dropped
		ds.Stats.Interpolated += r.interpolated
		if i == 0 || n < ds.Stats.MinFrames {
			ds.Stats.MinFrames = n
		}
	}

	for label, n := range ds.Stats.FramesPerClass {
		if n == 0 {
			errors.Warn(errors.NewEmptyClassWarning(classes[label], label))
		}
	}

	rows, cols := b.rasterizer.Shape()
	b.logger.Info("dataset built",
		log.SamplesKey, ds.Len(),
		log.ClassesKey, len(classes),
		log.FilesKey, ds.Stats.Files,
		log.MinFramesKey, ds.Stats.MinFrames,
		log.DroppedFramesKey, ds.Stats.DroppedFrames,
		log.ShapeKey, fmt.Sprintf("%dx%d", rows, cols),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func (b *Builder) processFile(path string) (fileResult, error) {
	seq, err := b.parser.Parse(path)
	if err != nil {
		return fileResult{}, err
	}
	res, err := b.conditioner.Condition(seq)
	if err != nil {
		return fileResult{}, errors.Wrapf(err, "condition %s", path)
	}
	matrices, err := b.rasterizer.RasterizeAll(res.Frames)
	if err != nil {
		return fileResult{}, errors.Wrapf(err, "rasterize %s", path)
	}
	b.logger.Debug("file processed",
		log.FilePathKey, path,
		"data.raw_frames", seq.Len(),
		log.FramesKey, len(matrices),
		log.DroppedFramesKey, len(res.Dropped),
	)
	return fileResult{
		matrices:     matrices,
		dropped:      len(res.Dropped),
		interpolated: res.Interpolated,
	}, nil
}
