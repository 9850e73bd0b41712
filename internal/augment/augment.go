// Package augment implements the per-image transforms applied before
// batching: random-area crops, shortest-edge resizes, center crops, color
// jitter, PCA lighting noise and horizontal flips.
//
// Every transform is a Func. Randomness comes only from the *rand.Rand passed
// in, so a transform is deterministic given the generator state. Transforms
// may return their input unchanged or a new image; callers must use the
// returned value.
package augment

import (
	"image"
	"math/rand"
)

// Func transforms one image.
type Func func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA

// Chain applies transforms in sequence.
type Chain []Func

// Apply runs every transform of c on img, in order.
func (c Chain) Apply(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
	for _, f := range c {
		img = f(img, rng)
	}
	return img
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
