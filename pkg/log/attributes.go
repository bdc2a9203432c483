// Package log defines standard attribute keys for pipeline operations.
//
// Using these keys across the parser, conditioner, rasterizer, builder, cache
// and partitioner keeps log output filterable by stage. Keys follow a
// hierarchical naming convention (e.g. "data.samples", "cache.key").

package log

// Component and operation context.
const (
	// ComponentKey identifies which package is logging.
	// Examples: "dataset.builder", "cache", "partition"
	ComponentKey = "pipeline.component"

	// OperationKey names the operation being performed.
	// Standard values are the Operation* constants below.
	OperationKey = "pipeline.operation"

	// PhaseKey indicates where in the run the record was emitted.
	PhaseKey = "pipeline.phase"
)

// Data shape and characteristics.
const (
	// SamplesKey is the number of frame matrices in a dataset or view.
	SamplesKey = "data.samples"

	// ClassesKey is the number of class folders (labels).
	ClassesKey = "data.classes"

	// LabelKey is the integer label of a class.
	LabelKey = "data.label"

	// ClassNameKey is the folder name a label was derived from.
	ClassNameKey = "data.class"

	// FramesKey is a number of frames (raw or conditioned).
	FramesKey = "data.frames"

	// MinFramesKey is the smallest number of frames produced by one file.
	MinFramesKey = "data.min_frames"

	// DroppedFramesKey counts frames removed by the conditioner.
	DroppedFramesKey = "data.dropped_frames"

	// ShapeKey describes a matrix shape as "HxW".
	ShapeKey = "data.shape"
)

// Files and storage.
const (
	// FilePathKey is the XML file being processed.
	FilePathKey = "file.path"

	// FilesKey is a number of files.
	FilesKey = "file.count"

	// CacheKeyKey is the storage name derived from the configuration.
	CacheKeyKey = "cache.key"

	// CacheStatusKey is the lookup outcome: "found", "miss" or "corrupt".
	CacheStatusKey = "cache.status"

	// CachePathKey is a cache artifact path.
	CachePathKey = "cache.path"
)

// Performance.
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// WorkersKey is the size of a worker pool.
	WorkersKey = "perf.workers"
)

// Split configuration.
const (
	TrainKey      = "split.train"
	ValidationKey = "split.validation"
	TestKey       = "split.test"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error context.
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// WarningKey carries a structured warning object.
	WarningKey = "warning"
)

// Standard attribute values.
const (
	OperationParse     = "parse"
	OperationCondition = "condition"
	OperationRasterize = "rasterize"
	OperationBuild     = "build"
	OperationLoad      = "load"
	OperationStore     = "store"
	OperationSplit     = "split"

	PhasePreprocessing = "preprocessing"
	PhaseCaching       = "caching"
	PhasePartitioning  = "partitioning"
)
