package pipeline

import (
	"context"
	"sync"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/train"

	"imagenet-dataflow/internal/dataset"
)

// Loader runs a MapStage over a source and hands out batches. It implements
// train.Dataset, so it can also feed a gomlx training loop directly.
type Loader struct {
	name    string
	parent  context.Context
	stage   *MapStage
	src     dataset.Source
	batcher Batcher

	mu      sync.Mutex
	pass    int64
	cancel  context.CancelFunc
	results <-chan Result
	errs    <-chan error
}

var _ train.Dataset = (*Loader)(nil)

// NewLoader prepares a loader; the stage starts on the first call to Next.
func NewLoader(ctx context.Context, name string, stage *MapStage, src dataset.Source, batchSize int) *Loader {
	return &Loader{
		name:    name,
		parent:  ctx,
		stage:   stage,
		src:     src,
		batcher: Batcher{Size: batchSize, ImageSize: stage.ImageSize},
	}
}

// Name implements train.Dataset.
func (l *Loader) Name() string { return l.name }

// Len is the number of samples per pass, or -1 if unknown.
func (l *Loader) Len() int { return l.src.Len() }

// Next returns the next batch, or io.EOF at the end of the pass.
func (l *Loader) Next() (*Batch, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.results == nil {
		ctx, cancel := context.WithCancel(l.parent)
		l.cancel = cancel
		// Each pass draws fresh augmentation randomness.
		stage := *l.stage
		stage.Seed += l.pass << 32
		l.results, l.errs = stage.Run(ctx, l.src)
	}
	return l.batcher.Next(l.parent, l.results, l.errs)
}

// Yield implements train.Dataset: inputs are the image tensor, labels the
// class tensor. It returns io.EOF at the end of the pass.
func (l *Loader) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	batch, err := l.Next()
	if err != nil {
		return nil, nil, nil, err
	}
	images, classes := batch.ToTensors()
	return l, []*tensors.Tensor{images}, []*tensors.Tensor{classes}, nil
}

// Reset implements train.Dataset, restarting from the start of the source.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stop()
}

// Close stops any running stage.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stop()
}

func (l *Loader) stop() {
	if l.cancel == nil {
		return
	}
	l.cancel()
	for range l.results {
	}
	l.cancel, l.results, l.errs = nil, nil, nil
	l.pass++
}
