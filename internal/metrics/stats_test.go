package metrics

import (
	"math"
	"testing"
	"time"
)

func TestWindowSnapshot(t *testing.T) {
	var w Window
	w.Record(64, 20*time.Millisecond, 10*time.Millisecond, 1.2, 30)
	w.Record(64, 10*time.Millisecond, 20*time.Millisecond, 0.8, 34)
	snap := w.Snapshot()
	if math.Abs(snap.ImagesPerSec-2133.3333) > 1 {
		t.Fatalf("unexpected throughput %.2f", snap.ImagesPerSec)
	}
	if w.samples != 0 || w.steps != 0 || w.wrong.Total() != 0 {
		t.Fatalf("window was not reset")
	}
	if snap.LastLoss != 0.8 {
		t.Fatalf("expected last loss 0.8, got %.2f", snap.LastLoss)
	}
	if snap.ErrorTop1 != 0.5 {
		t.Fatalf("expected top-1 error 0.5, got %.3f", snap.ErrorTop1)
	}
}

func TestRatioCounter(t *testing.T) {
	var r RatioCounter
	if r.Ratio() != 0 {
		t.Fatalf("empty ratio %v", r.Ratio())
	}
	feeds := [][2]int{{3, 8}, {0, 8}, {5, 5}, {1, 3}}
	sumC, sumT := 0, 0
	for _, f := range feeds {
		r.Feed(f[0], f[1])
		sumC += f[0]
		sumT += f[1]
	}
	if r.Ratio() != float64(sumC)/float64(sumT) || r.Count() != sumC || r.Total() != sumT {
		t.Fatalf("ratio %v count %d total %d", r.Ratio(), r.Count(), r.Total())
	}
	r.Reset()
	r.Feed(7, 7)
	if r.Ratio() != 1 {
		t.Fatalf("all-wrong ratio %v", r.Ratio())
	}
	r.Reset()
	r.Feed(0, 7)
	if r.Ratio() != 0 {
		t.Fatalf("all-correct ratio %v", r.Ratio())
	}
}
