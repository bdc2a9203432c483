package errors

import (
	"fmt"
	"math"
)

// NonFiniteError reports NaN or Inf values where only finite values are allowed.
type NonFiniteError struct {
	Operation string
	Row, Col  int
	Value     float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("posegrid: %s: non-finite value %v at (%d, %d)", e.Operation, e.Value, e.Row, e.Col)
}

// CheckMatrix returns an error for the first NaN or Inf value in matrix.
func CheckMatrix(operation string, matrix interface {
	Dims() (int, int)
	At(int, int) float64
}) error {
	rows, cols := matrix.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return WithStack(&NonFiniteError{Operation: operation, Row: i, Col: j, Value: v})
			}
		}
	}
	return nil
}

// IsFinite reports whether v is neither NaN nor Inf.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ClipValue clips a value to the range [min, max].
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
