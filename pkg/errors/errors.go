// Package errors はposegrid全体のエラーハンドリングと警告システムを提供します。
// パイプラインの各段階（XML解析、データセット構築、キャッシュ）ごとに構造化されたエラー型を定義します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("posegrid-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler はライブラリ全体の警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	パイプライン警告型
//
// ===========================================================================

// LabelDriftWarning はキャッシュに保存されたクラスフォルダ一覧と
// 現在のフォルダ一覧が一致しない場合の警告です。ラベル番号の意味が変わった可能性があります。
type LabelDriftWarning struct {
	CacheName string
	Cached    []string
	Current   []string
}

func (w *LabelDriftWarning) Error() string {
	return fmt.Sprintf("label mapping drift for cache entry %s: cached classes [%s], current folders [%s]. Rebuild the cache to relabel",
		w.CacheName, strings.Join(w.Cached, ", "), strings.Join(w.Current, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *LabelDriftWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("cache_name", w.CacheName).
		Strs("cached", w.Cached).
		Strs("current", w.Current).
		Str("type", "LabelDriftWarning")
}

// NewLabelDriftWarning は新しいLabelDriftWarningを作成します。
func NewLabelDriftWarning(cacheName string, cached, current []string) *LabelDriftWarning {
	return &LabelDriftWarning{CacheName: cacheName, Cached: cached, Current: current}
}

// EmptyClassWarning はクラスフォルダにフレームが1つも含まれない場合の警告です。
// ラベルは割り当てられたままですが、データセット内に出現しません。
type EmptyClassWarning struct {
	Class string
	Label int
}

func (w *EmptyClassWarning) Error() string {
	return fmt.Sprintf("class folder %q (label %d) produced no frames", w.Class, w.Label)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *EmptyClassWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("class", w.Class).
		Int("label", w.Label).
		Str("type", "EmptyClassWarning")
}

// NewEmptyClassWarning は新しいEmptyClassWarningを作成します。
func NewEmptyClassWarning(class string, label int) *EmptyClassWarning {
	return &EmptyClassWarning{Class: class, Label: label}
}

// SplitRatioWarning は確認が必要な分割比率が使われた場合の警告です。
type SplitRatioWarning struct {
	Train           float64
	ValidationShare float64
	Reason          string
}

func (w *SplitRatioWarning) Error() string {
	return fmt.Sprintf("split ratio train=%.4f validation_share=%.2f needs confirmation: %s",
		w.Train, w.ValidationShare, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *SplitRatioWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Float64("train", w.Train).
		Float64("validation_share", w.ValidationShare).
		Str("reason", w.Reason).
		Str("type", "SplitRatioWarning")
}

// NewSplitRatioWarning は新しいSplitRatioWarningを作成します。
func NewSplitRatioWarning(train, validationShare float64, reason string) *SplitRatioWarning {
	return &SplitRatioWarning{Train: train, ValidationShare: validationShare, Reason: reason}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// ParseError はXMLファイルが読めない、壊れている、または必要な要素が欠けている場合のエラーです。
// データセット構築全体を中断します。
type ParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("posegrid: parse %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("posegrid: parse %s: %s", e.Path, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "ParseError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(path, reason string, err error) error {
	return errors.WithStack(&ParseError{Path: path, Reason: reason, Err: err})
}

// DatasetBuildError はルートディレクトリが存在しない、またはクラスフォルダがない場合のエラーです。
type DatasetBuildError struct {
	Path   string
	Reason string
	Err    error
}

func (e *DatasetBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("posegrid: build dataset from %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("posegrid: build dataset from %s: %s", e.Path, e.Reason)
}

func (e *DatasetBuildError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DatasetBuildError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("path", e.Path).
		Str("reason", e.Reason).
		Str("type", "DatasetBuildError")
}

// NewDatasetBuildError は新しいDatasetBuildErrorを作成し、スタックトレースを付与します。
func NewDatasetBuildError(path, reason string, err error) error {
	return errors.WithStack(&DatasetBuildError{Path: path, Reason: reason, Err: err})
}

// CacheIOError はキャッシュの読み書きに失敗した場合のエラーです。
// 読み込み失敗はキャッシュミスとして回復されますが、再構築後の書き込み失敗は致命的です。
type CacheIOError struct {
	Op   string // "read", "write", "remove"
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("posegrid: cache %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *CacheIOError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "CacheIOError")
	if e.Err != nil {
		event.Str("cause", e.Err.Error())
	}
}

// NewCacheIOError は新しいCacheIOErrorを作成し、スタックトレースを付与します。
func NewCacheIOError(op, path string, err error) error {
	return errors.WithStack(&CacheIOError{Op: op, Path: path, Err: err})
}

// ValidationError は設定パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("posegrid: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// DimensionError は行列の形状が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("posegrid: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrChecksumMismatch はキャッシュの内容がチェックサムと一致しない場合のエラーです。
	ErrChecksumMismatch = New("checksum mismatch")
)
