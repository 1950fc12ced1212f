package highlight

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestApplyOffsetsResultOrder(t *testing.T) {
	store := newFakeStore()
	var points []Point
	for i := 0; i < 8; i++ {
		points = append(points, Point{ID: fmt.Sprintf("pt-%d", i), ClipBefore: float64(i), ClipAfter: float64(i)})
	}

	results := ApplyOffsets(context.Background(), store, points)
	if len(results) != len(points) {
		t.Fatalf("Expected %d results, got %d", len(points), len(results))
	}
	for i, r := range results {
		if r.PointID != points[i].ID {
			t.Errorf("Expected result %d for %q, got %q", i, points[i].ID, r.PointID)
		}
		if r.Err != nil {
			t.Errorf("Unexpected error for %q: %v", r.PointID, r.Err)
		}
	}
}

func TestApplyOffsetsIndependentFailures(t *testing.T) {
	store := newFakeStore()
	store.failSave["pt-1"] = errors.New("write failed")
	points := []Point{
		{ID: "pt-0", ClipBefore: 1, ClipAfter: 1},
		{ID: "pt-1", ClipBefore: 2, ClipAfter: 2},
		{ID: "pt-2", ClipBefore: 3, ClipAfter: 3},
	}

	results := ApplyOffsets(context.Background(), store, points)
	if got := CountFailures(results); got != 1 {
		t.Fatalf("Expected 1 failure, got %d", got)
	}
	if _, ok := store.saved["pt-0"]; !ok {
		t.Error("Expected pt-0 to be saved despite pt-1 failing")
	}
	if _, ok := store.saved["pt-2"]; !ok {
		t.Error("Expected pt-2 to be saved despite pt-1 failing")
	}
	if results[1].Err == nil {
		t.Error("Expected the failure to land on pt-1's result")
	}
}

func TestCountFailuresEmpty(t *testing.T) {
	if got := CountFailures(nil); got != 0 {
		t.Errorf("Expected 0 failures for empty batch, got %d", got)
	}
}
