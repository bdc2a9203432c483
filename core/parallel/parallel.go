// Package parallel runs independent per-item work on a bounded set of
// goroutines.
package parallel

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/YuminosukeSato/posegrid/pkg/errors"
)

// Workers resolves a configured worker count: values < 1 mean one worker per
// CPU, and there is never more than one worker per item.
func Workers(configured, items int) int {
	n := configured
	if n < 1 {
		n = runtime.NumCPU()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ForEach calls fn(i) for every i in [0, items) using at most workers
// goroutines. Every item is attempted; a panic in fn is converted into a
// PanicError for that item. The returned error is the one of the lowest failing
// index, so the outcome does not depend on scheduling.
//
// fn must only write to state owned by index i (e.g. results[i]).
func ForEach(items, workers int, fn func(i int) error) error {
	if items == 0 {
		return nil
	}
	workers = Workers(workers, items)

	errs := make([]error, items)
	run := func(i int) {
		errs[i] = errors.SafeExecute(fmt.Sprintf("item %d", i), func() error { return fn(i) })
	}

	if workers == 1 {
		for i := 0; i < items; i++ {
			run(i)
		}
	} else {
		next := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range next {
					run(i)
				}
			}()
		}
		for i := 0; i < items; i++ {
			next <- i
		}
		close(next)
		wg.Wait()
	}

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Parallelize divides items into one contiguous range per worker and runs fn
// on each range concurrently. Used for per-frame work where every range is
// cheap and uniform.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}
	workers = Workers(workers, items)
	chunkSize := (items + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
