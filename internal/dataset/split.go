package dataset

import "github.com/pkg/errors"

// ErrBadSplit is returned for a split configuration that cannot be sharded.
var ErrBadSplit = errors.New("dataset: invalid split")

// ShardRange returns the half-open range [start, end) of n items owned by
// splitIndex out of numSplits. Every shard holds n/numSplits items except the
// last one, which also takes the remainder, so the shards partition [0, n).
func ShardRange(n, numSplits, splitIndex int) (start, end int, err error) {
	if n < 0 {
		return 0, 0, errors.Wrapf(ErrBadSplit, "negative item count %d", n)
	}
	if numSplits <= 0 {
		return 0, 0, errors.Wrapf(ErrBadSplit, "num_splits must be > 0 (got %d)", numSplits)
	}
	if splitIndex < 0 || splitIndex >= numSplits {
		return 0, 0, errors.Wrapf(ErrBadSplit, "split_index %d out of range for %d splits", splitIndex, numSplits)
	}
	size := n / numSplits
	start = size * splitIndex
	end = start + size
	if splitIndex == numSplits-1 {
		end = n
	}
	return start, end, nil
}

// ShardSamples returns the contiguous slice of samples owned by splitIndex.
func ShardSamples(samples []Sample, numSplits, splitIndex int) ([]Sample, error) {
	start, end, err := ShardRange(len(samples), numSplits, splitIndex)
	if err != nil {
		return nil, err
	}
	return samples[start:end], nil
}
