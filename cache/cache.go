// Package cache stores built datasets on disk keyed by the pipeline
// configuration, so a configuration is only built once.
//
// The cache is an accelerator: deleting it never changes the dataset a key
// produces. Unreadable or inconsistent artifacts are treated like a miss and
// overwritten by a rebuild.
package cache

import (
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/YuminosukeSato/posegrid/config"
	"github.com/YuminosukeSato/posegrid/dataset"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/pkg/log"
)

// Status is the outcome of a Lookup.
type Status int

const (
	// Miss means no artifact exists for the key.
	Miss Status = iota
	// Found means both artifacts were read and verified.
	Found
	// Corrupt means artifacts exist but cannot be used.
	Corrupt
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case Miss:
		return "miss"
	case Found:
		return "found"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Lookup is the result of reading a key. Dataset is set for Found, Err for
// Corrupt.
type Lookup struct {
	Status  Status
	Dataset *dataset.Dataset
	Err     error
}

// DatasetBuilder builds a dataset on a cache miss.
type DatasetBuilder interface {
	Build() (*dataset.Dataset, error)
}

// BuilderFactory creates the builder for a pipeline and XML root.
type BuilderFactory func(p config.Pipeline, xmlRoot string, workers int, logger log.Logger) (DatasetBuilder, error)

// DefaultBuilderFactory returns a dataset.Builder.
func DefaultBuilderFactory(p config.Pipeline, xmlRoot string, workers int, logger log.Logger) (DatasetBuilder, error) {
	return dataset.NewBuilder(p, xmlRoot, dataset.WithWorkers(workers), dataset.WithLogger(logger))
}

// Cache is a directory of dataset artifacts.
type Cache struct {
	root       string
	logger     log.Logger
	newBuilder BuilderFactory
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithBuilderFactory replaces the builder used on a miss.
func WithBuilderFactory(f BuilderFactory) Option {
	return func(c *Cache) {
		c.newBuilder = f
	}
}

// New returns a cache rooted at dir. The directory is created on first store.
func New(dir string, opts ...Option) *Cache {
	c := &Cache{root: dir, newBuilder: DefaultBuilderFactory}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("cache")
	}
	return c
}

// Root returns the cache directory.
func (c *Cache) Root() string { return c.root }

// Paths returns the data and labels artifact paths of key.
func (c *Cache) Paths(key Key) (data, labels string) {
	name := key.Name()
	return filepath.Join(c.root, "data_"+name+".gob"),
		filepath.Join(c.root, "labels_"+name+".gob")
}

// Lookup reads the artifacts of key. It never returns an error directly:
// read and decode failures are reported as Corrupt.
func (c *Cache) Lookup(key Key) Lookup {
	dataPath, labelsPath := c.Paths(key)
	dataOK, err := exists(dataPath)
	if err != nil {
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", dataPath, err)}
	}
	labelsOK, err := exists(labelsPath)
	if err != nil {
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", labelsPath, err)}
	}
	switch {
	case !dataOK && !labelsOK:
		return Lookup{Status: Miss}
	case !dataOK:
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", dataPath, os.ErrNotExist)}
	case !labelsOK:
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", labelsPath, os.ErrNotExist)}
	}

	name := key.Name()
	var data dataPayload
	if err := readArtifact(dataPath, name, &data); err != nil {
		return Lookup{Status: Corrupt, Err: err}
	}
	var labels labelsPayload
	if err := readArtifact(labelsPath, name, &labels); err != nil {
		return Lookup{Status: Corrupt, Err: err}
	}

	matrices, err := data.matrices()
	if err != nil {
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", dataPath, err)}
	}
	ds := &dataset.Dataset{
		Data:    matrices,
		Labels:  labels.Labels,
		Classes: labels.Classes,
		Stats:   labels.Stats,
	}
	if len(ds.Classes) == 0 {
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", labelsPath, errors.New("no classes"))}
	}
	if err := ds.Validate(); err != nil {
		return Lookup{Status: Corrupt, Err: errors.NewCacheIOError("read", labelsPath, err)}
	}
	return Lookup{Status: Found, Dataset: ds}
}

// Store writes ds under key, replacing any existing artifacts. Each artifact
// is written to a temporary file and renamed into place. The previous labels
// artifact is removed before the new data artifact replaces the old one, so an
// interrupted Store leaves an entry that Lookup reports as Corrupt rather than
// new data next to old labels.
func (c *Cache) Store(key Key, ds *dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return errors.NewCacheIOError("write", c.root, err)
	}
	if err := os.MkdirAll(c.root, 0o755); err != nil {
		return errors.NewCacheIOError("write", c.root, err)
	}
	dataPath, labelsPath := c.Paths(key)
	name := key.Name()
	tmp, err := stageArtifact(dataPath, name, newDataPayload(ds))
	if err != nil {
		return err
	}
	if err := os.Remove(labelsPath); err != nil && !os.IsNotExist(err) {
		_ = os.Remove(tmp)
		return errors.NewCacheIOError("write", labelsPath, err)
	}
	if err := os.Rename(tmp, dataPath); err != nil {
		_ = os.Remove(tmp)
		return errors.NewCacheIOError("write", dataPath, err)
	}
	labels := labelsPayload{Labels: ds.Labels, Classes: ds.Classes, Stats: ds.Stats}
	if err := writeLabels(labelsPath, name, labels); err != nil {
		return err
	}
	c.logger.Debug("cache entry stored",
		log.OperationKey, log.OperationStore,
		log.CacheKeyKey, name,
		log.CachePathKey, dataPath,
		log.SamplesKey, ds.Len(),
	)
	return nil
}

// Remove deletes the artifacts of key. Missing artifacts are not an error.
func (c *Cache) Remove(key Key) error {
	dataPath, labelsPath := c.Paths(key)
	for _, p := range []string{dataPath, labelsPath} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return errors.NewCacheIOError("remove", p, err)
		}
	}
	return nil
}

// LoadOrBuild returns the dataset of cfg.Pipeline, building it from
// cfg.Paths.XMLRootPath and storing it when the cache has no usable entry.
func (c *Cache) LoadOrBuild(cfg config.Config) (*dataset.Dataset, error) {
	key := KeyFor(cfg.Pipeline)
	logger := c.logger.With(log.CacheKeyKey, key.Name(), log.PhaseKey, log.PhaseCaching)

	res := c.Lookup(key)
	switch res.Status {
	case Found:
		logger.Info("dataset loaded from cache",
			log.CacheStatusKey, res.Status.String(),
			log.SamplesKey, res.Dataset.Len(),
			log.ClassesKey, len(res.Dataset.Classes),
		)
		c.checkDrift(key, res.Dataset, cfg.Paths.XMLRootPath)
		return res.Dataset, nil
	case Corrupt:
		logger.Warn("cache entry unusable, rebuilding", res.Err, log.CacheStatusKey, res.Status.String())
	default:
		logger.Info("cache miss, building dataset", log.CacheStatusKey, res.Status.String())
	}
	return c.build(key, cfg, logger)
}

// Rebuild discards the entry of cfg.Pipeline and builds it again.
func (c *Cache) Rebuild(cfg config.Config) (*dataset.Dataset, error) {
	key := KeyFor(cfg.Pipeline)
	if err := c.Remove(key); err != nil {
		return nil, err
	}
	logger := c.logger.With(log.CacheKeyKey, key.Name(), log.PhaseKey, log.PhaseCaching)
	logger.Info("rebuilding dataset")
	return c.build(key, cfg, logger)
}

func (c *Cache) build(key Key, cfg config.Config, logger log.Logger) (*dataset.Dataset, error) {
	start := time.Now()
	b, err := c.newBuilder(cfg.Pipeline, cfg.Paths.XMLRootPath, cfg.Workers, logger)
	if err != nil {
		return nil, err
	}
	ds, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := c.Store(key, ds); err != nil {
		logger.Error("cache write failed", err)
		return nil, err
	}
	logger.Info("dataset built and cached",
		log.SamplesKey, ds.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

// checkDrift warns when the class folders under xmlRoot no longer match the
// classes the cached labels were assigned from.
func (c *Cache) checkDrift(key Key, ds *dataset.Dataset, xmlRoot string) {
	current, err := dataset.ClassFolders(xmlRoot)
	if err != nil {
		c.logger.Debug("label drift check skipped", log.FilePathKey, xmlRoot)
		return
	}
	if !slices.Equal(current, ds.Classes) {
		errors.Warn(errors.NewLabelDriftWarning(key.Name(), ds.Classes, current))
	}
}

func exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.Mode().IsRegular() {
			return false, errors.Newf("%s is not a regular file", path)
		}
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func readArtifact(path, key string, payload interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewCacheIOError("read", path, err)
	}
	defer f.Close()
	if err := decodeArtifact(f, key, payload); err != nil {
		return errors.NewCacheIOError("read", path, err)
	}
	return nil
}

// writeLabels はテストで差し替え可能
var writeLabels = writeArtifact

func writeArtifact(path, key string, payload interface{}) error {
	tmp, err := stageArtifact(path, key, payload)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.NewCacheIOError("write", path, err)
	}
	return nil
}

// stageArtifact encodes payload into a synced temporary file next to path and
// returns its name.
func stageArtifact(path, key string, payload interface{}) (name string, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", errors.NewCacheIOError("write", path, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = encodeArtifact(tmp, key, payload); err != nil {
		return "", errors.NewCacheIOError("write", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return "", errors.NewCacheIOError("write", path, err)
	}
	if err = tmp.Close(); err != nil {
		return "", errors.NewCacheIOError("write", path, err)
	}
	return tmp.Name(), nil
}
