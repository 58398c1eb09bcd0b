// Package parallel provides helpers for data-parallel loops over row
// ranges. Work is chunked into contiguous [start, end) partitions, one per
// worker, so callers can keep per-partition state and merge it afterwards
// in partition order.
package parallel

import (
	"runtime"
	"sync"
)

// Partition computes the contiguous row ranges that Parallelize would hand
// to workers for n rows. Exposed so callers that merge per-partition state
// can size their slots up front.
func Partition(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	if n <= 0 {
		return nil
	}

	ranges := make([][2]int, 0, workers)
	chunk := n / workers
	rem := n % workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + chunk
		if i < rem {
			end++
		}
		ranges = append(ranges, [2]int{start, end})
		start = end
	}
	return ranges
}

// ParallelizeWorkers runs fn over the partitions of [0, n) using the given
// number of workers, blocking until all complete.
func ParallelizeWorkers(n, workers int, fn func(start, end int)) {
	ranges := Partition(n, workers)
	if len(ranges) == 0 {
		return
	}
	if len(ranges) == 1 {
		fn(ranges[0][0], ranges[0][1])
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(r[0], r[1])
	}
	wg.Wait()
}

// Parallelize runs fn over [0, n) with one partition per logical CPU.
func Parallelize(n int, fn func(start, end int)) {
	ParallelizeWorkers(n, runtime.GOMAXPROCS(0), fn)
}

// ParallelizeWithThreshold runs fn sequentially when n is below threshold,
// in parallel otherwise. Small inputs are not worth the goroutine overhead.
func ParallelizeWithThreshold(n, threshold int, fn func(start, end int)) {
	if n < threshold {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	Parallelize(n, fn)
}
