package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/posegrid/keypoint"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/raster"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.Pipeline.InterpolationFrames)
	assert.Equal(t, 2, cfg.Pipeline.NoiseFrames)
	assert.Equal(t, 32, cfg.Pipeline.MatrixSize)
	assert.Equal(t, 10, cfg.Pipeline.VerticalCrop)
	assert.False(t, cfg.Pipeline.UseDilation)
	assert.Len(t, cfg.Pipeline.UsedKeypoints, 15)
	assert.Equal(t, "xml_files", cfg.Paths.XMLRootPath)
	assert.Equal(t, "video_data_models", cfg.Paths.CacheRootPath)
	assert.InDelta(t, 0.0125, cfg.Split.Train, 1e-12)

	// Default must not share the package slice.
	cfg.Pipeline.UsedKeypoints[0] = "changed"
	assert.Equal(t, "nose", DefaultKeypoints[0])
}

func TestDecodeOverridesDefaults(t *testing.T) {
	src := `
pipeline:
  interpolation_frames: 6
  used_keypoints: [nose, neck]
  use_dilation: true
  kernel_size: 3
  normalization:
    mode: skeleton
paths:
  xml_root_path: /data/xml
split:
  seed: 42
workers: 2
`
	cfg, err := Decode(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Pipeline.InterpolationFrames)
	assert.Equal(t, 2, cfg.Pipeline.NoiseFrames, "unset fields keep defaults")
	assert.Equal(t, []string{"nose", "neck"}, cfg.Pipeline.UsedKeypoints)
	assert.Equal(t, "/data/xml", cfg.Paths.XMLRootPath)
	assert.Equal(t, "video_data_models", cfg.Paths.CacheRootPath)
	assert.Equal(t, uint64(42), cfg.Split.Seed)
	assert.Equal(t, 2, cfg.Workers)

	rc := cfg.Pipeline.Raster()
	assert.True(t, rc.UseDilation)
	assert.Equal(t, 3, rc.KernelSize)
	assert.Equal(t, raster.NormalizeSkeleton, rc.Mode)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", "pipeline:\n  matrix_sise: 32\n"},
		{"bad type", "pipeline:\n  matrix_size: big\n"},
		{"negative noise", "pipeline:\n  noise_frames: -1\n"},
		{"negative interpolation", "pipeline:\n  interpolation_frames: -1\n"},
		{"empty keypoints", "pipeline:\n  used_keypoints: []\n"},
		{"duplicate keypoints", "pipeline:\n  used_keypoints: [nose, nose]\n"},
		{"crop too large", "pipeline:\n  vertical_crop: 32\n"},
		{"bad mode", "pipeline:\n  normalization: {mode: polar}\n"},
		{"bad score", "pipeline:\n  min_score: 2\n"},
		{"empty xml root", "paths:\n  xml_root_path: \"\"\n"},
		{"train ratio", "split:\n  train: 1.5\n"},
		{"validation share", "split:\n  validation_share: -0.1\n"},
		{"workers", "workers: -3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestValidationErrorType(t *testing.T) {
	_, err := Decode(strings.NewReader("pipeline:\n  noise_frames: -1\n"))
	require.Error(t, err)

	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "noise_frames", ve.ParamName)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "posegrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  matrix_size: 64\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, cfg.Pipeline.MatrixSize)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestMarshalRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.UseDilation = true

	b, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(b), "use_dilation: true")

	back, err := Decode(strings.NewReader(string(b)))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestApply(t *testing.T) {
	base := Default()
	cfg, err := base.Apply(
		WithXMLRoot("in"),
		WithCacheRoot("out"),
		WithWorkers(3),
		WithLogLevel("debug"),
		WithSeed(7),
	)
	require.NoError(t, err)
	assert.Equal(t, "in", cfg.Paths.XMLRootPath)
	assert.Equal(t, "out", cfg.Paths.CacheRootPath)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, uint64(7), cfg.Split.Seed)
	assert.Equal(t, "xml_files", base.Paths.XMLRootPath, "receiver is not modified")

	_, err = base.Apply(WithWorkers(-1))
	assert.Error(t, err)
}

func TestParserOptions(t *testing.T) {
	doc := `<s><frame><keypoint name="nose" x="0" y="0" score="0.2"/><keypoint name="neck" x="3" y="4" score="0.9"/></frame></s>`
	p := Default().Pipeline
	p.UsedKeypoints = []string{"nose", "neck"}
	set, err := p.KeypointSet()
	require.NoError(t, err)

	parse := func(p Pipeline) keypoint.Frame {
		t.Helper()
		seq, err := keypoint.NewParser(set, p.ParserOptions()...).ParseReader(strings.NewReader(doc), "origin.xml")
		require.NoError(t, err)
		require.Equal(t, 1, seq.Len())
		return seq.Frames[0]
	}

	f := parse(p)
	assert.False(t, f.At(0).Valid(), "origin is not detected by default")
	assert.Equal(t, keypoint.Point{X: 3, Y: 4}, f.At(1))

	p.KeepOrigin = true
	f = parse(p)
	assert.Equal(t, keypoint.Point{X: 0, Y: 0}, f.At(0))

	p.MinScore = 0.5
	f = parse(p)
	assert.False(t, f.At(0).Valid())
}
