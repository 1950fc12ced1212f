package highlight

import (
	"context"
	"sync"
)

// OffsetResult is the outcome of persisting one point's clip offsets in a
// batch save.
type OffsetResult struct {
	PointID string
	Err     error
}

// ApplyOffsets persists clip offsets for each point concurrently. The
// writes are independent: there is no transaction across points and one
// failure does not stop the others. Results come back in the same order as
// the input.
func ApplyOffsets(ctx context.Context, store Store, points []Point) []OffsetResult {
	results := make([]OffsetResult, len(points))

	var wg sync.WaitGroup
	for i, p := range points {
		wg.Add(1)
		go func(i int, p Point) {
			defer wg.Done()
			err := store.SaveOffsets(ctx, p.ID, p.ClipBefore, p.ClipAfter)
			results[i] = OffsetResult{PointID: p.ID, Err: err}
		}(i, p)
	}
	wg.Wait()

	return results
}

// CountFailures returns how many results in a batch failed.
func CountFailures(results []OffsetResult) int {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	return failed
}
