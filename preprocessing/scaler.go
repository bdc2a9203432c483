// Package preprocessing はキーポイント座標をラスタライズ前に[0,1]へ正規化するスケーラーを提供します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// constantRange 未満の範囲は定数とみなす
const constantRange = 1e-8

// CoordinateScaler はMin-Maxスケーリングで2次元座標 (x, y) を [0,1] に変換する
//
// Uniform が true の場合、x と y に同じスケール（大きい方の範囲）を使い、
// 短い方の軸を中央に寄せる。骨格の縦横比を保つために使う。
type CoordinateScaler struct {
	// DataMin は各軸の最小値 (x, y)
	DataMin [2]float64

	// DataMax は各軸の最大値 (x, y)
	DataMax [2]float64

	// Scale は各軸の割る値
	Scale [2]float64

	// Offset は変換後に足す値（Uniform時の中央寄せ）
	Offset [2]float64

	// Uniform は縦横比を保つかどうか
	Uniform bool

	fitted bool
}

// NewCoordinateScaler は新しいCoordinateScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewCoordinateScaler(false)
//	err := scaler.FitBounds(0, 1920, 0, 1080)
//	u, v := scaler.TransformPoint(960, 540) // 0.5, 0.5
func NewCoordinateScaler(uniform bool) *CoordinateScaler {
	return &CoordinateScaler{Uniform: uniform}
}

// Fit は n×2 の座標行列から各軸の最小値・最大値を計算する
func (s *CoordinateScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 {
		return errors.Wrap(errors.ErrEmptyData, "CoordinateScaler.Fit")
	}
	if c != 2 {
		return errors.NewDimensionError("CoordinateScaler.Fit", 2, c, 1)
	}

	var lo, hi [2]float64
	for j := 0; j < 2; j++ {
		lo[j], hi[j] = X.At(0, j), X.At(0, j)
		for i := 1; i < r; i++ {
			v := X.At(i, j)
			lo[j] = math.Min(lo[j], v)
			hi[j] = math.Max(hi[j], v)
		}
	}
	return s.fit(lo, hi)
}

// FitBounds は固定の座標空間 [minX,maxX]×[minY,maxY] でスケーラーを設定する
// 全フレーム・全ファイルで同じ変換を使う場合に使う
func (s *CoordinateScaler) FitBounds(minX, maxX, minY, maxY float64) error {
	if !(maxX > minX) || !(maxY > minY) {
		return errors.NewValidationError("normalization", "bounds must satisfy min < max on both axes",
			fmt.Sprintf("[%g,%g]x[%g,%g]", minX, maxX, minY, maxY))
	}
	return s.fit([2]float64{minX, minY}, [2]float64{maxX, maxY})
}

func (s *CoordinateScaler) fit(lo, hi [2]float64) error {
	for j := 0; j < 2; j++ {
		if !errors.IsFinite(lo[j]) || !errors.IsFinite(hi[j]) {
			return errors.NewValidationError("coordinates", "must be finite", [2]float64{lo[j], hi[j]})
		}
	}
	s.DataMin, s.DataMax = lo, hi

	ranges := [2]float64{hi[0] - lo[0], hi[1] - lo[1]}
	if s.Uniform {
		r := math.Max(ranges[0], ranges[1])
		for j := 0; j < 2; j++ {
			if r < constantRange {
				// 1点のみ: 中央に置く
				s.Scale[j], s.Offset[j] = 1, 0.5
				continue
			}
			s.Scale[j] = r
			s.Offset[j] = (1 - ranges[j]/r) / 2
		}
	} else {
		for j := 0; j < 2; j++ {
			if ranges[j] < constantRange {
				// 定数軸の場合、中央に置く
				s.Scale[j], s.Offset[j] = 1, 0.5
				continue
			}
			s.Scale[j], s.Offset[j] = ranges[j], 0
		}
	}
	s.fitted = true
	return nil
}

// IsFitted はスケーラーが設定済みかどうかを返す
func (s *CoordinateScaler) IsFitted() bool {
	return s.fitted
}

// TransformPoint は1点を変換する。範囲外の座標は [0,1] の外になる
func (s *CoordinateScaler) TransformPoint(x, y float64) (float64, float64) {
	return (x-s.DataMin[0])/s.Scale[0] + s.Offset[0],
		(y-s.DataMin[1])/s.Scale[1] + s.Offset[1]
}

// Transform は n×2 の座標行列を変換する
func (s *CoordinateScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.fitted {
		return nil, errors.New("CoordinateScaler.Transform: scaler is not fitted")
	}
	r, c := X.Dims()
	if c != 2 {
		return nil, errors.NewDimensionError("CoordinateScaler.Transform", 2, c, 1)
	}
	out := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		u, v := s.TransformPoint(X.At(i, 0), X.At(i, 1))
		out.Set(i, 0, u)
		out.Set(i, 1, v)
	}
	return out, nil
}

// FitTransform はFitとTransformを同時に実行する
func (s *CoordinateScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// String はスケーラーの文字列表現を返す
func (s *CoordinateScaler) String() string {
	if !s.fitted {
		return fmt.Sprintf("CoordinateScaler(uniform=%t)", s.Uniform)
	}
	return fmt.Sprintf("CoordinateScaler(uniform=%t, x=[%g,%g], y=[%g,%g])",
		s.Uniform, s.DataMin[0], s.DataMax[0], s.DataMin[1], s.DataMax[1])
}
