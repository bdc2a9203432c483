// Package config loads and validates the pipeline configuration.
//
// 設定はYAMLファイルから読み込み、省略されたフィールドはDefault()の値になります。
// 未知のフィールドはエラーとして扱います。
package config

import (
	"bytes"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/posegrid/keypoint"
	"github.com/YuminosukeSato/posegrid/pkg/errors"
	"github.com/YuminosukeSato/posegrid/raster"
)

// DefaultKeypoints はBODY系ポーズ推定の上半身・下半身の主要15点
var DefaultKeypoints = []string{
	"nose", "neck",
	"right_shoulder", "right_elbow", "right_wrist",
	"left_shoulder", "left_elbow", "left_wrist",
	"mid_hip",
	"right_hip", "right_knee", "right_ankle",
	"left_hip", "left_knee", "left_ankle",
}

// Config はposegrid全体の設定
type Config struct {
	Pipeline Pipeline `json:"pipeline" yaml:"pipeline"`
	Paths    Paths    `json:"paths" yaml:"paths"`
	Split    Split    `json:"split" yaml:"split"`
	Workers  int      `json:"workers" yaml:"workers"`
	LogLevel string   `json:"log_level" yaml:"log_level"`
}

// Pipeline はデータセットの内容を決めるパラメータ。キャッシュキーはここから作られる
type Pipeline struct {
	InterpolationFrames int           `json:"interpolation_frames" yaml:"interpolation_frames"`
	NoiseFrames         int           `json:"noise_frames" yaml:"noise_frames"`
	UsedKeypoints       []string      `json:"used_keypoints" yaml:"used_keypoints"`
	MatrixSize          int           `json:"matrix_size" yaml:"matrix_size"`
	VerticalCrop        int           `json:"vertical_crop" yaml:"vertical_crop"`
	UseDilation         bool          `json:"use_dilation" yaml:"use_dilation"`
	KernelSize          int           `json:"kernel_size" yaml:"kernel_size"`
	MinScore            float64       `json:"min_score" yaml:"min_score"`
	KeepOrigin          bool          `json:"keep_origin" yaml:"keep_origin"` // (0,0) を実座標として扱う
	Normalization       Normalization `json:"normalization" yaml:"normalization"`
}

// Normalization は座標の正規化方法
type Normalization struct {
	Mode string  `json:"mode" yaml:"mode"`
	MinX float64 `json:"min_x" yaml:"min_x"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// Paths は入出力ディレクトリ
type Paths struct {
	XMLRootPath   string `json:"xml_root_path" yaml:"xml_root_path"`
	CacheRootPath string `json:"cache_root_path" yaml:"cache_root_path"`
}

// Split はtrain/validation/testの分割比率。Seedが0の場合は毎回新しい乱数を使う
type Split struct {
	Train           float64 `json:"train" yaml:"train"`
	ValidationShare float64 `json:"validation_share" yaml:"validation_share"`
	Seed            uint64  `json:"seed" yaml:"seed"`
}

// Default はデフォルト設定を返す
func Default() Config {
	rc := raster.DefaultConfig()
	return Config{
		Pipeline: Pipeline{
			InterpolationFrames: 4,
			NoiseFrames:         2,
			UsedKeypoints:       append([]string(nil), DefaultKeypoints...),
			MatrixSize:          rc.MatrixSize,
			VerticalCrop:        rc.VerticalCrop,
			KernelSize:          rc.KernelSize,
			Normalization: Normalization{
				Mode: string(rc.Mode),
				MinX: rc.MinX, MaxX: rc.MaxX,
				MinY: rc.MinY, MaxY: rc.MaxY,
			},
		},
		Paths: Paths{
			XMLRootPath:   "xml_files",
			CacheRootPath: "video_data_models",
		},
		Split: Split{
			Train:           1.0 / 80,
			ValidationShare: 0.5,
		},
		LogLevel: "info",
	}
}

// Load はYAMLファイルを読み込み、Default()に上書きして検証する
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Decode はYAMLを読み込む。空の入力はDefault()になる
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は設定全体を検証する
func (c Config) Validate() error {
	if err := c.Pipeline.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Paths.XMLRootPath) == "" {
		return errors.NewValidationError("xml_root_path", "must not be empty", c.Paths.XMLRootPath)
	}
	if strings.TrimSpace(c.Paths.CacheRootPath) == "" {
		return errors.NewValidationError("cache_root_path", "must not be empty", c.Paths.CacheRootPath)
	}
	if !(c.Split.Train > 0 && c.Split.Train < 1) {
		return errors.NewValidationError("split.train", "must be in (0, 1)", c.Split.Train)
	}
	if c.Split.ValidationShare < 0 || c.Split.ValidationShare > 1 {
		return errors.NewValidationError("split.validation_share", "must be in [0, 1]", c.Split.ValidationShare)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	return nil
}

// Validate はパイプラインのパラメータを検証する
func (p Pipeline) Validate() error {
	if p.InterpolationFrames < 0 {
		return errors.NewValidationError("interpolation_frames", "must not be negative", p.InterpolationFrames)
	}
	if p.NoiseFrames < 0 {
		return errors.NewValidationError("noise_frames", "must not be negative", p.NoiseFrames)
	}
	if p.MinScore < 0 || p.MinScore > 1 {
		return errors.NewValidationError("min_score", "must be in [0, 1]", p.MinScore)
	}
	if _, err := p.KeypointSet(); err != nil {
		return err
	}
	return p.Raster().Validate()
}

// ParserOptions はキーポイントパーサの設定を返す
func (p Pipeline) ParserOptions() []keypoint.ParserOption {
	return []keypoint.ParserOption{
		keypoint.WithMinScore(p.MinScore),
		keypoint.WithOriginAsMissing(!p.KeepOrigin),
	}
}

// KeypointSet は使用するキーポイントの集合を返す
func (p Pipeline) KeypointSet() (keypoint.Set, error) {
	return keypoint.NewSet(p.UsedKeypoints...)
}

// Raster はラスタライザの設定を返す
func (p Pipeline) Raster() raster.Config {
	rc := raster.DefaultConfig()
	rc.MatrixSize = p.MatrixSize
	rc.VerticalCrop = p.VerticalCrop
	rc.UseDilation = p.UseDilation
	rc.KernelSize = p.KernelSize
	rc.Mode = raster.Normalization(p.Normalization.Mode)
	rc.MinX, rc.MaxX = p.Normalization.MinX, p.Normalization.MaxX
	rc.MinY, rc.MaxY = p.Normalization.MinY, p.Normalization.MaxY
	return rc
}

// Marshal は設定をYAMLに書き出す
func (c Config) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}
	return b, nil
}
