package trainer

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"imagenet-dataflow/internal/metrics"
	"imagenet-dataflow/internal/model"
	"imagenet-dataflow/internal/pipeline"
)

// BatchSource hands out batches until io.EOF ends the pass.
type BatchSource interface {
	Next() (*pipeline.Batch, error)
	// Len is the number of samples per pass, or -1 if unknown.
	Len() int
}

// EpochSource is a BatchSource that can restart from the beginning.
type EpochSource interface {
	BatchSource
	Reset()
}

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Steps    int
	LogEvery int
}

// Run executes cfg.Steps optimizer steps, starting a new pass over src
// whenever the previous one ends.
func Run(ctx context.Context, src EpochSource, mdl model.Trainable, cfg RunConfig) error {
	if cfg.Steps <= 0 {
		return errors.New("trainer: steps must be > 0")
	}
	if cfg.LogEvery <= 0 {
		cfg.LogEvery = 50
	}

	var window metrics.Window
	epoch := 0
	for step := 1; step <= cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		startData := time.Now()
		batch, err := nextBatch(src, &epoch)
		if err != nil {
			return err
		}
		in, err := model.Preprocess(batch.Images, batch.Len(), batch.ImageSize)
		if err != nil {
			return err
		}
		dataTime := time.Since(startData)

		startCompute := time.Now()
		loss, logits, err := mdl.TrainStep(in, batch.Labels)
		if err != nil {
			return errors.Wrapf(err, "step %d", step)
		}
		wrong, err := model.IncorrectTopK(logits, batch.Labels, 1)
		if err != nil {
			return err
		}
		computeTime := time.Since(startCompute)

		window.Record(batch.Len(), dataTime, computeTime, loss, model.CountTrue(wrong))

		if step%cfg.LogEvery == 0 {
			snap := window.Snapshot()
			klog.Infof("step=%d epoch=%d images_per_sec=%.1f data_ms=%.2f compute_ms=%.2f loss=%.4f train_error_top1=%.3f",
				step,
				epoch,
				snap.ImagesPerSec,
				snap.AvgDataMS,
				snap.AvgComputeMS,
				snap.LastLoss,
				snap.ErrorTop1,
			)
		}
	}
	return nil
}

// nextBatch returns the next batch, rolling over to a new epoch at io.EOF.
func nextBatch(src EpochSource, epoch *int) (*pipeline.Batch, error) {
	batch, err := src.Next()
	if err != io.EOF {
		return batch, err
	}
	src.Reset()
	*epoch++
	klog.V(1).Infof("starting epoch %d", *epoch)
	batch, err = src.Next()
	if err == io.EOF {
		return nil, errors.New("trainer: data source yielded no batches")
	}
	return batch, err
}
