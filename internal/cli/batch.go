package cli

import (
	"context"
	"runtime"
	"sync"

	"github.com/FabienTschanz/DSCParser/core"
)

// fileReport is the outcome of processing one document.
type fileReport struct {
	File        string
	Instances   []core.ResourceInstance
	Diagnostics core.Diagnostics

	// Diff is set by verify when a second serialization drifted from the
	// first.
	Diff string

	Err error
}

// runBatch fans paths out to a worker pool and collects one report per
// path, preserving input order. workers below one means one per CPU.
func runBatch(ctx context.Context, paths []string, workers int, fn func(path string) fileReport) []fileReport {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	reports := make([]fileReport, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					reports[idx] = fileReport{File: paths[idx], Err: err}
					continue
				}
				reports[idx] = fn(paths[idx])
			}
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return reports
}
