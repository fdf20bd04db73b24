package raster

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(y) over y in [0, n) using up to GOMAXPROCS workers.
// Work is distributed by striding rows across workers.
func parallelFor(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := min(runtime.GOMAXPROCS(0), n)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		w := w
		go func() {
			defer wg.Done()
			for y := w; y < n; y += workers {
				fn(y)
			}
		}()
	}
	wg.Wait()
}
