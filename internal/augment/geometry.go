package augment

import (
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
)

// cropTrials is how many random crops GoogleNetResize samples before falling
// back to a center crop.
const cropTrials = 10

// Params configures GoogleNetResize.
type Params struct {
	// CropAreaFraction is the lower bound of the crop area relative to the
	// source area; the upper bound is 1.
	CropAreaFraction float64
	AspectRatioLow   float64
	AspectRatioHigh  float64
	TargetSize       int
}

// DefaultParams crops 8%-100% of the image with aspect ratio in [3/4, 4/3]
// and outputs 224x224, as in "Going Deeper with Convolutions".
func DefaultParams() Params {
	return Params{
		CropAreaFraction: 0.08,
		AspectRatioLow:   0.75,
		AspectRatioHigh:  1.333,
		TargetSize:       224,
	}
}

// GoogleNetResize crops a random area and aspect ratio out of the image and
// resizes it to TargetSize x TargetSize with cubic interpolation. When no
// sampled crop fits the image it resizes the shortest edge to TargetSize and
// takes the center square instead.
func GoogleNetResize(p Params) Func {
	fallback := Chain{ResizeShortestEdge(p.TargetSize), CenterCrop(p.TargetSize)}
	return func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		area := float64(w * h)
		for i := 0; i < cropTrials; i++ {
			targetArea := uniform(rng, p.CropAreaFraction, 1) * area
			aspect := uniform(rng, p.AspectRatioLow, p.AspectRatioHigh)
			ww := int(math.Sqrt(targetArea*aspect) + 0.5)
			hh := int(math.Sqrt(targetArea/aspect) + 0.5)
			if rng.Float64() < 0.5 {
				ww, hh = hh, ww
			}
			if ww <= 0 || hh <= 0 || ww > w || hh > h {
				continue
			}
			var x1, y1 int
			if w > ww {
				x1 = rng.Intn(w - ww)
			}
			if h > hh {
				y1 = rng.Intn(h - hh)
			}
			rect := image.Rect(x1, y1, x1+ww, y1+hh).Add(b.Min)
			return imaging.Resize(imaging.Crop(img, rect), p.TargetSize, p.TargetSize, imaging.CatmullRom)
		}
		return fallback.Apply(img, rng)
	}
}

// ResizeShortestEdge scales the image so its shorter side equals size,
// keeping the aspect ratio.
func ResizeShortestEdge(size int) Func {
	return func(img *image.NRGBA, _ *rand.Rand) *image.NRGBA {
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		scale := float64(size) / float64(min(w, h))
		newW, newH := size, size
		if h < w {
			newW = int(scale*float64(w) + 0.5)
		} else {
			newH = int(scale*float64(h) + 0.5)
		}
		return imaging.Resize(img, newW, newH, imaging.CatmullRom)
	}
}

// CenterCrop takes the centered size x size square. Images smaller than size
// along an axis keep their full extent on that axis.
func CenterCrop(size int) Func {
	return func(img *image.NRGBA, _ *rand.Rand) *image.NRGBA {
		b := img.Bounds()
		x0 := b.Min.X + max(b.Dx()-size, 0)/2
		y0 := b.Min.Y + max(b.Dy()-size, 0)/2
		return imaging.Crop(img, image.Rect(x0, y0, x0+size, y0+size))
	}
}

// Flip mirrors the image left to right with probability prob.
func Flip(prob float64) Func {
	return func(img *image.NRGBA, rng *rand.Rand) *image.NRGBA {
		if rng.Float64() < prob {
			return imaging.FlipH(img)
		}
		return img
	}
}

// FlipH mirrors the image left to right unconditionally.
func FlipH(img *image.NRGBA, _ *rand.Rand) *image.NRGBA {
	return imaging.FlipH(img)
}
