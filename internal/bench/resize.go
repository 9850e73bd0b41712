// Package bench times image resize backends on a random 256x256 image
// scaled to 384x384.
package bench

import (
	"context"
	"image"
	"math/rand"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
)

// Resizer scales src to w x h.
type Resizer func(src *image.NRGBA, w, h int) *image.NRGBA

// Backends lists the resize backends by name.
var Backends = []string{"imaging", "xdraw"}

// Filters lists the interpolation filters both backends support.
var Filters = []string{"catmullrom", "linear", "nearest"}

// NewResizer returns the named backend using the named filter.
func NewResizer(backend, filter string) (Resizer, error) {
	switch backend {
	case "imaging":
		f, err := imagingFilter(filter)
		if err != nil {
			return nil, err
		}
		return func(src *image.NRGBA, w, h int) *image.NRGBA {
			return imaging.Resize(src, w, h, f)
		}, nil
	case "xdraw":
		k, err := xdrawKernel(filter)
		if err != nil {
			return nil, err
		}
		return func(src *image.NRGBA, w, h int) *image.NRGBA {
			dst := image.NewNRGBA(image.Rect(0, 0, w, h))
			k.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
			return dst
		}, nil
	}
	return nil, errors.Errorf("unknown resize backend %q", backend)
}

func imagingFilter(name string) (imaging.ResampleFilter, error) {
	switch name {
	case "catmullrom":
		return imaging.CatmullRom, nil
	case "linear":
		return imaging.Linear, nil
	case "nearest":
		return imaging.NearestNeighbor, nil
	}
	return imaging.ResampleFilter{}, errors.Errorf("unknown filter %q", name)
}

func xdrawKernel(name string) (xdraw.Scaler, error) {
	switch name {
	case "catmullrom":
		return xdraw.CatmullRom, nil
	case "linear":
		return xdraw.BiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	}
	return nil, errors.Errorf("unknown filter %q", name)
}

// Options configures Run.
type Options struct {
	Resize     Resizer
	Iterations int
	SrcSize    int
	DstSize    int
	Seed       int64
}

// DefaultOptions resizes a 256x256 image to 384x384 a thousand times.
func DefaultOptions() Options {
	return Options{Iterations: 1000, SrcSize: 256, DstSize: 384}
}

// Result holds the total wall-clock time and the per-resize latencies.
type Result struct {
	Elapsed   time.Duration
	Latencies []time.Duration
}

// Seconds returns the latencies in seconds.
func (r *Result) Seconds() []float64 {
	out := make([]float64, len(r.Latencies))
	for i, d := range r.Latencies {
		out[i] = d.Seconds()
	}
	return out
}

// RandomImage returns an opaque size x size image filled with uniform noise.
func RandomImage(size int, rng *rand.Rand) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

// Run resizes one random image opts.Iterations times.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Resize == nil {
		return nil, errors.New("bench: no resizer")
	}
	if opts.Iterations <= 0 || opts.SrcSize <= 0 || opts.DstSize <= 0 {
		return nil, errors.Errorf("bench: iterations and sizes must be > 0 (got %d, %d, %d)",
			opts.Iterations, opts.SrcSize, opts.DstSize)
	}
	src := RandomImage(opts.SrcSize, rand.New(rand.NewSource(opts.Seed)))
	res := &Result{Latencies: make([]time.Duration, 0, opts.Iterations)}
	start := time.Now()
	for i := 0; i < opts.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := time.Now()
		out := opts.Resize(src, opts.DstSize, opts.DstSize)
		res.Latencies = append(res.Latencies, time.Since(t))
		if b := out.Bounds(); b.Dx() != opts.DstSize || b.Dy() != opts.DstSize {
			return nil, errors.Errorf("bench: resize produced %dx%d", b.Dx(), b.Dy())
		}
	}
	res.Elapsed = time.Since(start)
	return res, nil
}
