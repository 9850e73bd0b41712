package pipeline

import (
	"context"
	"io"

	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch is a group of augmented samples. Images holds Len() images of
// ImageSize x ImageSize pixels, each stored row-major with interleaved BGR
// channels.
type Batch struct {
	ImageSize int
	Images    []uint8
	Labels    []int32
	Keys      []string
}

// Len is the number of samples in the batch.
func (b *Batch) Len() int { return len(b.Labels) }

// Image returns the BGR pixels of sample i.
func (b *Batch) Image(i int) []uint8 {
	n := b.ImageSize * b.ImageSize * 3
	return b.Images[i*n : (i+1)*n]
}

func (b *Batch) add(res Result) error {
	bounds := res.Image.Bounds()
	if bounds.Dx() != b.ImageSize || bounds.Dy() != b.ImageSize {
		return errors.Errorf("batch: %s is %dx%d, want %dx%d",
			res.Key, bounds.Dx(), bounds.Dy(), b.ImageSize, b.ImageSize)
	}
	img := res.Image
	for y := 0; y < b.ImageSize; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.ImageSize*4]
		for x := 0; x < b.ImageSize; x++ {
			p := row[x*4 : x*4+3]
			b.Images = append(b.Images, p[2], p[1], p[0])
		}
	}
	b.Labels = append(b.Labels, int32(res.Label))
	b.Keys = append(b.Keys, res.Key)
	return nil
}

// ToTensors converts the batch into a uint8 tensor shaped
// [N, ImageSize, ImageSize, 3] and an int32 label tensor shaped [N].
func (b *Batch) ToTensors() (images, labels *tensors.Tensor) {
	images = tensors.FromFlatDataAndDimensions(b.Images, b.Len(), b.ImageSize, b.ImageSize, 3)
	labels = tensors.FromAnyValue(b.Labels)
	return images, labels
}

// Batcher groups results into batches of Size. When the stream ends the
// leftover samples form one last, shorter batch; nothing is dropped or padded.
type Batcher struct {
	Size      int
	ImageSize int
}

// Next collects the next batch from results. It returns io.EOF once results
// is closed and no samples are left, or the stage error if one was reported.
func (b Batcher) Next(ctx context.Context, results <-chan Result, errs <-chan error) (*Batch, error) {
	if b.Size <= 0 {
		return nil, errors.Errorf("batch size must be > 0 (got %d)", b.Size)
	}
	batch := &Batch{
		ImageSize: b.ImageSize,
		Images:    make([]uint8, 0, b.Size*b.ImageSize*b.ImageSize*3),
		Labels:    make([]int32, 0, b.Size),
		Keys:      make([]string, 0, b.Size),
	}
	for batch.Len() < b.Size {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res, ok := <-results:
			if !ok {
				if err := <-errs; err != nil {
					return nil, err
				}
				if batch.Len() == 0 {
					return nil, io.EOF
				}
				return batch, nil
			}
			if err := batch.add(res); err != nil {
				return nil, err
			}
		}
	}
	return batch, nil
}
