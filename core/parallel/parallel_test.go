package parallel

import (
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/YuminosukeSato/posegrid/pkg/errors"
)

func TestWorkers(t *testing.T) {
	assert.Equal(t, 4, Workers(4, 10))
	assert.Equal(t, 3, Workers(8, 3))
	assert.Equal(t, 1, Workers(0, 0))
	want := runtime.NumCPU()
	if want > 100 {
		want = 100
	}
	assert.Equal(t, want, Workers(0, 100))
}

func TestForEachVisitsEveryItem(t *testing.T) {
	for _, workers := range []int{1, 3, 0} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			results := make([]int, 50)
			err := ForEach(len(results), workers, func(i int) error {
				results[i] = i * i
				return nil
			})
			require.NoError(t, err)
			for i, v := range results {
				assert.Equal(t, i*i, v)
			}
		})
	}
}

func TestForEachReturnsLowestIndexError(t *testing.T) {
	var calls int64
	err := ForEach(20, 4, func(i int) error {
		atomic.AddInt64(&calls, 1)
		if i == 7 || i == 15 {
			return fmt.Errorf("item %d failed", i)
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "item 7 failed", err.Error())
	assert.Equal(t, int64(20), atomic.LoadInt64(&calls))
}

func TestForEachRecoversPanics(t *testing.T) {
	err := ForEach(5, 2, func(i int) error {
		if i == 2 {
			panic("bad frame")
		}
		return nil
	})
	var panicErr *perrors.PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "item 2", panicErr.Operation)
}

func TestParallelize(t *testing.T) {
	var sum int64
	Parallelize(1000, 4, func(start, end int) {
		local := int64(0)
		for i := start; i < end; i++ {
			local += int64(i)
		}
		atomic.AddInt64(&sum, local)
	})
	assert.Equal(t, int64(999*1000/2), sum)

	called := false
	Parallelize(0, 4, func(start, end int) { called = true })
	assert.False(t, called)
}
