package dataset

import (
	"errors"
	"testing"
)

func TestShardRangeRemainderOnLast(t *testing.T) {
	var sizes []int
	for i := 0; i < 3; i++ {
		start, end, err := ShardRange(100, 3, i)
		if err != nil {
			t.Fatalf("ShardRange(%d): %v", i, err)
		}
		sizes = append(sizes, end-start)
	}
	if sizes[0] != 33 || sizes[1] != 33 || sizes[2] != 34 {
		t.Fatalf("sizes=%v want [33 33 34]", sizes)
	}
	if _, _, err := ShardRange(100, 3, 3); !errors.Is(err, ErrBadSplit) {
		t.Fatalf("split_index=3 should be rejected, got %v", err)
	}
}

func TestShardRangePartitions(t *testing.T) {
	for n := 0; n <= 37; n++ {
		for splits := 1; splits <= 8; splits++ {
			covered := make([]int, n)
			next := 0
			for i := 0; i < splits; i++ {
				start, end, err := ShardRange(n, splits, i)
				if err != nil {
					t.Fatalf("n=%d splits=%d i=%d: %v", n, splits, i, err)
				}
				if start != next {
					t.Fatalf("n=%d splits=%d i=%d: gap or overlap at %d (expected %d)", n, splits, i, start, next)
				}
				if i < splits-1 && end-start != n/splits {
					t.Fatalf("n=%d splits=%d i=%d: size %d", n, splits, i, end-start)
				}
				for j := start; j < end; j++ {
					covered[j]++
				}
				next = end
			}
			if next != n {
				t.Fatalf("n=%d splits=%d: shards end at %d", n, splits, next)
			}
			for j, c := range covered {
				if c != 1 {
					t.Fatalf("n=%d splits=%d: index %d covered %d times", n, splits, j, c)
				}
			}
		}
	}
}

func TestShardRangeRejects(t *testing.T) {
	cases := []struct{ n, splits, index int }{
		{10, 0, 0},
		{10, 2, -1},
		{10, 2, 2},
		{-1, 2, 0},
	}
	for _, c := range cases {
		if _, _, err := ShardRange(c.n, c.splits, c.index); err == nil {
			t.Fatalf("ShardRange(%d,%d,%d) accepted", c.n, c.splits, c.index)
		}
	}
}

func TestShardSamples(t *testing.T) {
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i].Label = i
	}
	got, err := ShardSamples(samples, 3, 2)
	if err != nil {
		t.Fatalf("ShardSamples: %v", err)
	}
	if len(got) != 4 || got[0].Label != 6 || got[3].Label != 9 {
		t.Fatalf("unexpected shard %v", got)
	}
}
