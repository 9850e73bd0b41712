package dataset

import (
	"context"

	"k8s.io/klog/v2"
)

// Source produces samples in a fixed order. Both channels are closed when the
// source is exhausted, fails, or ctx is cancelled; at most one error is sent.
type Source interface {
	Stream(ctx context.Context) (<-chan Sample, <-chan error)
	// Len is the number of samples the source yields, or -1 if unknown.
	Len() int
}

// ListSource yields an in-memory list of samples, typically read by ReadIndex.
type ListSource struct {
	Samples []Sample
}

// Len implements Source.
func (s ListSource) Len() int { return len(s.Samples) }

// Stream implements Source.
func (s ListSource) Stream(ctx context.Context) (<-chan Sample, <-chan error) {
	out := make(chan Sample)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		for _, sample := range s.Samples {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- sample:
			}
		}
	}()
	return out, errCh
}

// ShardSource yields the samples packed in a sequence of tar shards, one
// shard after the other.
type ShardSource struct {
	Shards     []string
	PendingCap int
}

// Len implements Source; shard contents are not known up front.
func (s ShardSource) Len() int { return -1 }

// Stream implements Source.
func (s ShardSource) Stream(ctx context.Context) (<-chan Sample, <-chan error) {
	out := make(chan Sample)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		emit := func(sample Sample) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- sample:
				return nil
			}
		}
		for _, shard := range s.Shards {
			klog.V(1).Infof("streaming shard %s", shard)
			if err := readShard(ctx, shard, s.PendingCap, emit); err != nil {
				errCh <- err
				return
			}
		}
	}()
	return out, errCh
}
