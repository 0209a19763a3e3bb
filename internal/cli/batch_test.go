package cli

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBatchPreservesOrder(t *testing.T) {
	paths := make([]string, 16)
	for i := range paths {
		paths[i] = fmt.Sprintf("doc%02d.ps1", i)
	}

	reports := runBatch(context.Background(), paths, 4, func(path string) fileReport {
		// Slow down the first job so later workers finish before it.
		if path == paths[0] {
			time.Sleep(20 * time.Millisecond)
		}
		return fileReport{File: path}
	})

	require.Len(t, reports, len(paths))
	for i, r := range reports {
		assert.Equal(t, paths[i], r.File)
	}
}

func TestRunBatchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	reports := runBatch(ctx, []string{"a.ps1", "b.ps1"}, 2, func(path string) fileReport {
		called = true
		return fileReport{File: path}
	})

	assert.False(t, called, "cancelled batch must not process documents")
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestRunBatchEmptyInput(t *testing.T) {
	reports := runBatch(context.Background(), nil, 0, func(path string) fileReport {
		t.Fatal("worker ran without input")
		return fileReport{}
	})
	assert.Empty(t, reports)
}

func TestRunBatchMoreWorkersThanJobs(t *testing.T) {
	reports := runBatch(context.Background(), []string{"only.ps1"}, 8, func(path string) fileReport {
		return fileReport{File: path, Err: fmt.Errorf("boom")}
	})
	require.Len(t, reports, 1)
	assert.EqualError(t, reports[0].Err, "boom")
}
