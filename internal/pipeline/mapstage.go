// Package pipeline turns a stream of samples into batches: a pool of workers
// decodes and augments images, results are optionally put back into input
// order, and a Batcher groups them into fixed-size batches.
package pipeline

import (
	"context"
	"image"
	"math/rand"
	"runtime"
	"sync"

	"github.com/pkg/errors"

	"imagenet-dataflow/internal/augment"
	"imagenet-dataflow/internal/dataset"
)

// Ordering controls whether results leave the map stage in input order.
type Ordering int

const (
	// Strict emits results in the order samples were read from the source.
	Strict Ordering = iota
	// Unordered emits results as soon as a worker finishes them.
	Unordered
)

// ParseOrdering maps the config spelling of an ordering.
func ParseOrdering(s string) (Ordering, error) {
	switch s {
	case "strict":
		return Strict, nil
	case "unordered":
		return Unordered, nil
	}
	return 0, errors.Errorf("unknown ordering %q", s)
}

func (o Ordering) String() string {
	if o == Strict {
		return "strict"
	}
	return "unordered"
}

const (
	maxDefaultWorkers = 40
	maxDefaultBuffer  = 2000
)

// DefaultWorkers is min(40, number of CPUs).
func DefaultWorkers() int {
	return min(maxDefaultWorkers, runtime.NumCPU())
}

// Result is one decoded and augmented sample.
type Result struct {
	Key   string
	Label int
	Image *image.NRGBA
	seq   int64
}

// MapStage decodes and augments samples on a pool of workers. Each worker
// owns a generator seeded with Seed plus its index; nothing mutable is shared
// between workers.
type MapStage struct {
	Chain    augment.Chain
	Ordering Ordering
	// Workers defaults to DefaultWorkers.
	Workers int
	// BufferSize bounds the number of results in flight or waiting to be
	// consumed. It defaults to min(2000, source length).
	BufferSize int
	Seed       int64
	// ImageSize, when positive, is the side every augmented image must have.
	ImageSize int
}

type job struct {
	seq    int64
	sample dataset.Sample
}

func (m *MapStage) workers() int {
	if m.Workers > 0 {
		return m.Workers
	}
	return DefaultWorkers()
}

func (m *MapStage) bufferSize(src dataset.Source) int {
	if m.BufferSize > 0 {
		return m.BufferSize
	}
	if n := src.Len(); n >= 0 && n < maxDefaultBuffer {
		return max(n, 1)
	}
	return maxDefaultBuffer
}

// Run streams src through the workers. The result channel is closed once the
// source is exhausted, an error occurs, or ctx is cancelled; in the latter two
// cases a single error is delivered on the error channel before it closes.
func (m *MapStage) Run(parent context.Context, src dataset.Source) (<-chan Result, <-chan error) {
	numWorkers := m.workers()
	buffer := m.bufferSize(src)

	ctx, cancel := context.WithCancel(parent)
	out := make(chan Result, buffer)
	errCh := make(chan error, 1)

	var once sync.Once
	fail := func(err error) {
		once.Do(func() {
			errCh <- err
			cancel()
		})
	}

	// tokens caps in-flight results so strict reordering cannot grow without bound.
	tokens := make(chan struct{}, buffer)
	jobs := make(chan job, numWorkers)
	done := make(chan Result, numWorkers)

	var producers sync.WaitGroup
	producers.Add(1)
	go func() {
		defer producers.Done()
		defer close(jobs)
		feed(ctx, src, jobs, tokens, fail)
	}()

	for i := 0; i < numWorkers; i++ {
		rng := rand.New(rand.NewSource(m.Seed + int64(i)))
		producers.Add(1)
		go func() {
			defer producers.Done()
			m.work(ctx, rng, jobs, done, fail)
		}()
	}

	go func() {
		producers.Wait()
		close(done)
	}()

	go func() {
		defer close(errCh)
		defer close(out)
		defer cancel()
		if m.Ordering == Strict {
			reorder(ctx, done, out, tokens)
		} else {
			forward(ctx, done, out, tokens)
		}
		if err := parent.Err(); err != nil {
			fail(err)
		}
	}()

	return out, errCh
}

func feed(ctx context.Context, src dataset.Source, jobs chan<- job, tokens chan<- struct{}, fail func(error)) {
	samples, srcErr := src.Stream(ctx)
	var seq int64
	for sample := range samples {
		select {
		case <-ctx.Done():
			continue
		case tokens <- struct{}{}:
		}
		select {
		case <-ctx.Done():
		case jobs <- job{seq: seq, sample: sample}:
			seq++
		}
	}
	if err := <-srcErr; err != nil && ctx.Err() == nil {
		fail(errors.Wrap(err, "read samples"))
	}
}

func (m *MapStage) work(ctx context.Context, rng *rand.Rand, jobs <-chan job, done chan<- Result, fail func(error)) {
	for j := range jobs {
		if ctx.Err() != nil {
			continue
		}
		res, err := m.process(j, rng)
		if err != nil {
			fail(err)
			continue
		}
		select {
		case <-ctx.Done():
		case done <- res:
		}
	}
}

func (m *MapStage) process(j job, rng *rand.Rand) (Result, error) {
	img, err := dataset.Decode(j.sample)
	if err != nil {
		return Result{}, err
	}
	img = m.Chain.Apply(img, rng)
	if m.ImageSize > 0 {
		b := img.Bounds()
		if b.Dx() != m.ImageSize || b.Dy() != m.ImageSize {
			return Result{}, errors.Errorf("augment %s: got %dx%d image, want %dx%d",
				j.sample.Key, b.Dx(), b.Dy(), m.ImageSize, m.ImageSize)
		}
	}
	return Result{Key: j.sample.Key, Label: j.sample.Label, Image: img, seq: j.seq}, nil
}

// forward passes results through in completion order. After cancellation it
// keeps draining done so that every worker can exit.
func forward(ctx context.Context, done <-chan Result, out chan<- Result, tokens <-chan struct{}) {
	for res := range done {
		emit(ctx, out, res)
		<-tokens
	}
}

// reorder holds early results back until every result with a smaller
// sequence number has been emitted.
func reorder(ctx context.Context, done <-chan Result, out chan<- Result, tokens <-chan struct{}) {
	pending := make(map[int64]Result)
	var next int64
	for res := range done {
		pending[res.seq] = res
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			emit(ctx, out, r)
			<-tokens
		}
	}
}

func emit(ctx context.Context, out chan<- Result, res Result) {
	if ctx.Err() != nil {
		return
	}
	select {
	case <-ctx.Done():
	case out <- res:
	}
}
