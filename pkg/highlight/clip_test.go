package highlight

import "testing"

func TestClipWindow(t *testing.T) {
	tests := []struct {
		name      string
		timestamp float64
		before    float64
		after     float64
		wantStart float64
		wantEnd   float64
	}{
		{"centered", 60, 5, 5, 55, 65},
		{"clamped at zero", 3, 5, 5, 0, 8},
		{"zero timestamp", 0, 5, 7, 0, 7},
		{"zero padding", 12, 0, 0, 12, 12},
		{"asymmetric", 30, 2, 10, 28, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ClipWindow(tt.timestamp, tt.before, tt.after)
			if w.Start != tt.wantStart {
				t.Errorf("Expected start %.1f, got %.1f", tt.wantStart, w.Start)
			}
			if w.End != tt.wantEnd {
				t.Errorf("Expected end %.1f, got %.1f", tt.wantEnd, w.End)
			}
		})
	}
}

func TestClipWindowEndNeverBeforeStart(t *testing.T) {
	for _, ts := range []float64{0, 0.5, 1, 5, 10, 3600} {
		for _, before := range []float64{0, 1, 5, 100} {
			for _, after := range []float64{0, 1, 5, 100} {
				w := ClipWindow(ts, before, after)
				if w.End < w.Start {
					t.Fatalf("Window end %.1f before start %.1f for t=%.1f b=%.1f a=%.1f", w.End, w.Start, ts, before, after)
				}
				if w.Start < 0 {
					t.Fatalf("Negative window start %.1f for t=%.1f b=%.1f", w.Start, ts, before)
				}
			}
		}
	}
}

func TestMarkTimestamp(t *testing.T) {
	if got := MarkTimestamp(12); got != 7 {
		t.Errorf("Expected marking at 12s to record 7s, got %.1f", got)
	}
	if got := MarkTimestamp(MarkOffsetSeconds); got != 0 {
		t.Errorf("Expected marking at the offset boundary to record 0, got %.1f", got)
	}
	if got := MarkTimestamp(2); got != 0 {
		t.Errorf("Expected early mark to clamp at 0, got %.1f", got)
	}
	if got := MarkTimestamp(0); got != 0 {
		t.Errorf("Expected mark at 0 to record 0, got %.1f", got)
	}
}
